package gatherer

// Gatherer receives progress events while an experiment executes. The
// driver calls it from worker goroutines, so implementations must be safe
// for concurrent use.
type Gatherer interface {
	StartExperiment(name string, totalRuns int)
	StartRun(runID string)
	FinishRun(runID string, state string)
	FinishExperiment(failed int)
}

// Discard ignores every event. Used by tests and by the Slurm environment,
// where progress lives in the scheduler's own accounting.
type Discard struct{}

func (Discard) StartExperiment(name string, totalRuns int) {}
func (Discard) StartRun(runID string)                      {}
func (Discard) FinishRun(runID string, state string)       {}
func (Discard) FinishExperiment(failed int)                {}
