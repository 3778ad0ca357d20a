package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/planbench/planbench/internal/gatherer"
	"github.com/planbench/planbench/internal/suites"
)

// Environment dispatches the start step: a local process pool or a
// cluster scheduler submission.
type Environment interface {
	Start(ctx context.Context, exp *Experiment) error
}

// Step is one named, independently invocable phase of the experiment.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Experiment holds the full run grid plus its registered steps.
// Construction is pure and in-memory; only the steps touch disk or spawn
// processes.
type Experiment struct {
	Name string

	// Path is the experiment directory holding one subdirectory per run.
	Path string

	TimeLimit   time.Duration
	MemoryLimMB int64

	Env  Environment
	Gath gatherer.Gatherer
	Log  *slog.Logger

	runs  []*Run
	ids   mapset.Set[string]
	steps []Step
}

func New(name string, path string, env Environment) *Experiment {
	return &Experiment{
		Name:        name,
		Path:        path,
		TimeLimit:   1800 * time.Second,
		MemoryLimMB: 16384,
		Env:         env,
		Gath:        gatherer.Discard{},
		Log:         slog.Default(),
		ids:         mapset.NewSet[string](),
	}
}

func (e *Experiment) Runs() []*Run {
	return e.runs
}

// AddRun appends a run, assigns its directory, and enforces id uniqueness
// across the whole experiment.
func (e *Experiment) AddRun(run *Run) error {
	if !e.ids.Add(run.ID()) {
		return fmt.Errorf("duplicate run id %s", run.ID())
	}
	run.Dir = filepath.Join(e.Path, "runs", fmt.Sprintf("%05d", len(e.runs)+1))
	e.runs = append(e.runs, run)
	return nil
}

// PopulateGrid creates one run per (configuration, task) pair. Excluded
// domains were already dropped by the task enumerator, so the grid is the
// full cross product of what it receives.
func (e *Experiment) PopulateGrid(registry *Registry, tasks []suites.Task, plannerDir string) error {
	for _, config := range registry.Configurations() {
		for _, task := range tasks {
			if err := e.AddRun(e.newPlannerRun(config, task, plannerDir)); err != nil {
				return err
			}
		}
	}
	return nil
}

// newPlannerRun wires the two-stage planner invocation: translate writes
// output.lifted into the run directory, search consumes it together with
// the configuration's arguments.
func (e *Experiment) newPlannerRun(config Configuration, task suites.Task, plannerDir string) *Run {
	run := &Run{
		Algorithm: config.Name,
		Domain:    task.Domain,
		Problem:   task.Problem,
		Resources: map[string]string{
			"domain.pddl":  task.DomainFile,
			"problem.pddl": task.ProblemFile,
		},
		Props: map[string]any{
			"algorithm": config.Name,
			"domain":    task.Domain,
			"problem":   task.Problem,
			"id":        []string{config.Name, task.Domain, task.Problem},
		},
	}

	translator := filepath.Join(plannerDir, "builds", "release", "translator", "translate.py")
	search := filepath.Join(plannerDir, "builds", "release", "search", "search")

	run.Commands = []Command{
		{
			Name:        "run-translator",
			Argv:        []string{translator, task.DomainFile, task.ProblemFile},
			TimeLimit:   e.TimeLimit,
			MemoryLimMB: e.MemoryLimMB,
		},
		{
			Name:        "run-search",
			Argv:        append([]string{search, "output.lifted"}, config.Arguments...),
			TimeLimit:   e.TimeLimit,
			MemoryLimMB: e.MemoryLimMB,
		},
	}
	return run
}

func (e *Experiment) AddStep(name string, fn func(ctx context.Context) error) {
	e.steps = append(e.steps, Step{Name: name, Run: fn})
}

func (e *Experiment) StepNames() []string {
	names := make([]string, 0, len(e.steps))
	for _, s := range e.steps {
		names = append(names, s.Name)
	}
	return names
}

// RunSteps executes the named steps in registration order. With all set,
// the requested names are ignored and every step runs. Step failures do
// not stop later requested steps; the joined error reflects aggregate
// success.
func (e *Experiment) RunSteps(ctx context.Context, names []string, all bool) error {
	requested := mapset.NewSet[string](names...)
	if !all {
		for _, name := range names {
			if !e.hasStep(name) {
				return fmt.Errorf("unknown step %q, available: %v", name, e.StepNames())
			}
		}
	}

	var errs []error
	for _, step := range e.steps {
		if !all && !requested.Contains(step.Name) {
			continue
		}
		e.Log.Info("running step", "step", step.Name)
		if err := step.Run(ctx); err != nil {
			e.Log.Error("step failed", "step", step.Name, "err", err)
			errs = append(errs, fmt.Errorf("step %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Experiment) hasStep(name string) bool {
	for _, s := range e.steps {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Start dispatches all runs to the configured environment. It refuses to
// run before the build step has materialized every run directory.
func (e *Experiment) Start(ctx context.Context) error {
	for _, run := range e.runs {
		if _, err := os.Stat(filepath.Join(run.Dir, "run.sh")); err != nil {
			return fmt.Errorf("run %s is not built, run the build step first", run.ID())
		}
	}
	return e.Env.Start(ctx, e)
}

// ReadState reads a run's current lifecycle state from its directory.
// A missing state file means the run was never built.
func ReadState(runDir string) State {
	b, err := os.ReadFile(filepath.Join(runDir, "state"))
	if err != nil {
		return StatePending
	}
	return State(string(trimNewline(b)))
}

// WriteState records a run's lifecycle state in its directory.
func WriteState(runDir string, s State) error {
	return os.WriteFile(filepath.Join(runDir, "state"), []byte(string(s)+"\n"), 0644)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
