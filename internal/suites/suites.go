package suites

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Task is one benchmark instance: a PDDL domain/problem file pair.
type Task struct {
	Domain      string
	Problem     string
	DomainFile  string
	ProblemFile string
}

// ErrSuite marks a fatal suite configuration problem: a missing benchmark
// root, an unknown domain, or an unknown problem.
type ErrSuite struct {
	Entry  string
	Reason string
}

func (e *ErrSuite) Error() string {
	return fmt.Sprintf("bad suite entry %q: %s", e.Entry, e.Reason)
}

// Build resolves suite entries against the benchmark root and returns the
// tasks in entry order, problems sorted within a domain. An entry is either
// a domain name ("gripper") or a domain:problem pair ("gripper:prob01.pddl").
// Tasks whose domain is in excluded are dropped. All file lookups happen
// here, so the returned slice can be iterated any number of times without
// touching the filesystem again.
func Build(benchmarksDir string, entries []string, excluded mapset.Set[string]) ([]Task, error) {
	if excluded == nil {
		excluded = mapset.NewSet[string]()
	}

	info, err := os.Stat(benchmarksDir)
	if err != nil || !info.IsDir() {
		return nil, &ErrSuite{Entry: benchmarksDir, Reason: "benchmark root is not a directory"}
	}

	tasks := make([]Task, 0, len(entries))
	for _, entry := range entries {
		domain, problem, isPair := strings.Cut(entry, ":")
		if domain == "" {
			return nil, &ErrSuite{Entry: entry, Reason: "empty domain name"}
		}
		if excluded.Contains(domain) {
			continue
		}

		domainDir := filepath.Join(benchmarksDir, domain)
		if info, err := os.Stat(domainDir); err != nil || !info.IsDir() {
			return nil, &ErrSuite{Entry: entry, Reason: "domain not found under benchmark root"}
		}

		if isPair {
			task, err := resolveTask(domainDir, domain, problem)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *task)
			continue
		}

		problems, err := listProblems(domainDir)
		if err != nil {
			return nil, &ErrSuite{Entry: entry, Reason: err.Error()}
		}
		for _, p := range problems {
			task, err := resolveTask(domainDir, domain, p)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func resolveTask(domainDir string, domain string, problem string) (*Task, error) {
	problemFile := filepath.Join(domainDir, problem)
	if _, err := os.Stat(problemFile); err != nil {
		return nil, &ErrSuite{
			Entry:  domain + ":" + problem,
			Reason: "problem file not found",
		}
	}

	domainFile, err := findDomainFile(domainDir, problem)
	if err != nil {
		return nil, &ErrSuite{Entry: domain + ":" + problem, Reason: err.Error()}
	}

	return &Task{
		Domain:      domain,
		Problem:     strings.TrimSuffix(problem, filepath.Ext(problem)),
		DomainFile:  domainFile,
		ProblemFile: problemFile,
	}, nil
}

// findDomainFile mirrors the benchmark collection conventions: most domains
// ship a single domain.pddl, a few pair every problem with its own
// <problem-base>-domain.pddl.
func findDomainFile(domainDir string, problem string) (string, error) {
	shared := filepath.Join(domainDir, "domain.pddl")
	if _, err := os.Stat(shared); err == nil {
		return shared, nil
	}

	base := strings.TrimSuffix(problem, filepath.Ext(problem))
	perProblem := filepath.Join(domainDir, base+"-domain.pddl")
	if _, err := os.Stat(perProblem); err == nil {
		return perProblem, nil
	}

	return "", fmt.Errorf("no domain.pddl or %s-domain.pddl", base)
}

func listProblems(domainDir string) ([]string, error) {
	dirEntries, err := os.ReadDir(domainDir)
	if err != nil {
		return nil, err
	}

	problems := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || filepath.Ext(name) != ".pddl" {
			continue
		}
		if name == "domain.pddl" || strings.HasSuffix(name, "-domain.pddl") {
			continue
		}
		problems = append(problems, name)
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("domain has no problem files")
	}
	sort.Strings(problems)
	return problems, nil
}
