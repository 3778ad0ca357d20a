package termgath

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TerminalGatherer prints run progress to the terminal.
type TerminalGatherer struct {
	mu        sync.Mutex
	startedAt time.Time
	total     int
	done      int
}

func New() *TerminalGatherer { return &TerminalGatherer{} }

func (t *TerminalGatherer) StartExperiment(name string, totalRuns int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.total = totalRuns
	fmt.Printf("== %s: %d runs ==\n", name, totalRuns)
}

func (t *TerminalGatherer) StartRun(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Printf("-> %s\n", runID)
}

func (t *TerminalGatherer) FinishRun(runID string, state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	stateStr := state
	switch state {
	case "finished":
		stateStr = color.GreenString(state)
	case "timed_out", "killed_by_memory":
		stateStr = color.YellowString(state)
	case "crashed":
		stateStr = color.RedString(state)
	}
	fmt.Printf("<- %s [%s] (%d/%d)\n", runID, stateStr, t.done, t.total)
}

func (t *TerminalGatherer) FinishExperiment(failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.startedAt).Round(time.Second)
	if failed == 0 {
		fmt.Printf("== all %d runs finished in %s ==\n", t.done, elapsed)
		return
	}
	fmt.Printf("== %d of %d runs did not finish cleanly (%s) ==\n", failed, t.done, elapsed)
}
