package suites_test

import (
	"os"
	"path/filepath"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/suites"
)

func writeBenchmarks(t *testing.T, layout map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for domain, files := range layout {
		require.NoError(t, os.MkdirAll(filepath.Join(root, domain), 0755))
		for _, f := range files {
			path := filepath.Join(root, domain, f)
			require.NoError(t, os.WriteFile(path, []byte("(define)\n"), 0644))
		}
	}
	return root
}

func TestBuildSingleProblemEntry(t *testing.T) {
	root := writeBenchmarks(t, map[string][]string{
		"gripper": {"domain.pddl", "prob01.pddl", "prob02.pddl"},
	})

	tasks, err := suites.Build(root, []string{"gripper:prob01.pddl"}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "gripper", tasks[0].Domain)
	require.Equal(t, "prob01", tasks[0].Problem)
	require.Equal(t, filepath.Join(root, "gripper", "domain.pddl"), tasks[0].DomainFile)
	require.Equal(t, filepath.Join(root, "gripper", "prob01.pddl"), tasks[0].ProblemFile)
}

func TestBuildWholeDomainSorted(t *testing.T) {
	root := writeBenchmarks(t, map[string][]string{
		"miconic": {"domain.pddl", "s2-0.pddl", "s1-0.pddl", "notes.txt"},
	})

	tasks, err := suites.Build(root, []string{"miconic"}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "s1-0", tasks[0].Problem)
	require.Equal(t, "s2-0", tasks[1].Problem)
}

func TestBuildPerProblemDomainFile(t *testing.T) {
	root := writeBenchmarks(t, map[string][]string{
		"org-synt": {"p01-domain.pddl", "p01.pddl"},
	})

	tasks, err := suites.Build(root, []string{"org-synt:p01.pddl"}, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, filepath.Join(root, "org-synt", "p01-domain.pddl"), tasks[0].DomainFile)
}

func TestBuildExcludedDomainDropped(t *testing.T) {
	root := writeBenchmarks(t, map[string][]string{
		"gripper": {"domain.pddl", "prob01.pddl"},
		"rovers":  {"domain.pddl", "p01.pddl"},
	})

	excluded := mapset.NewSet("rovers")
	tasks, err := suites.Build(root, []string{"gripper:prob01.pddl", "rovers:p01.pddl"}, excluded)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	for _, task := range tasks {
		require.NotEqual(t, "rovers", task.Domain)
	}
}

func TestBuildMissingRoot(t *testing.T) {
	_, err := suites.Build(filepath.Join(t.TempDir(), "nope"), []string{"gripper"}, nil)
	require.Error(t, err)
	var suiteErr *suites.ErrSuite
	require.ErrorAs(t, err, &suiteErr)
}

func TestBuildUnknownDomainAndProblem(t *testing.T) {
	root := writeBenchmarks(t, map[string][]string{
		"gripper": {"domain.pddl", "prob01.pddl"},
	})

	_, err := suites.Build(root, []string{"blocks"}, nil)
	require.Error(t, err)

	_, err = suites.Build(root, []string{"gripper:prob99.pddl"}, nil)
	var suiteErr *suites.ErrSuite
	require.ErrorAs(t, err, &suiteErr)
	require.Contains(t, suiteErr.Entry, "prob99")
}
