package experiment

import (
	"strings"
	"time"
)

// State is the lifecycle position of one run. Runs move
// pending -> built -> running and end in exactly one terminal state.
type State string

const (
	StatePending        State = "pending"
	StateBuilt          State = "built"
	StateRunning        State = "running"
	StateFinished       State = "finished"
	StateTimedOut       State = "timed_out"
	StateCrashed        State = "crashed"
	StateKilledByMemory State = "killed_by_memory"
)

func (s State) Terminal() bool {
	switch s {
	case StateFinished, StateTimedOut, StateCrashed, StateKilledByMemory:
		return true
	}
	return false
}

// Command is one bounded external process of a run.
type Command struct {
	Name        string
	Argv        []string
	TimeLimit   time.Duration
	MemoryLimMB int64
}

// Run is one scheduled execution of one configuration against one task.
// Built once per (configuration, task) pair; after the build step it is
// only read.
type Run struct {
	Algorithm string
	Domain    string
	Problem   string

	// Dir is the run's private working directory under <exp>/runs.
	Dir string

	// Resources maps link names inside Dir to absolute source paths.
	// The build step symlinks them instead of copying.
	Resources map[string]string

	Commands []Command

	// Props are the static metadata properties written at build time.
	Props map[string]any
}

// ID is the unique (algorithm, domain, problem) triple in string form.
func (r *Run) ID() string {
	return strings.Join([]string{r.Algorithm, r.Domain, r.Problem}, ":")
}
