package runenv_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/experiment"
	"github.com/planbench/planbench/internal/parser"
	"github.com/planbench/planbench/internal/props"
	"github.com/planbench/planbench/internal/runenv"
)

func shellRun(t *testing.T, exp *experiment.Experiment, algo, domain, problem string,
	translate, search string, timeLimit time.Duration) *experiment.Run {

	t.Helper()
	run := &experiment.Run{
		Algorithm: algo,
		Domain:    domain,
		Problem:   problem,
		Props: map[string]any{
			"algorithm": algo, "domain": domain, "problem": problem,
			"id": []string{algo, domain, problem},
		},
		Commands: []experiment.Command{
			{Name: "run-translator", Argv: []string{"/bin/sh", "-c", translate}, TimeLimit: timeLimit},
			{Name: "run-search", Argv: []string{"/bin/sh", "-c", search}, TimeLimit: timeLimit},
		},
	}
	require.NoError(t, exp.AddRun(run))
	return run
}

func TestLocalStartExecutesRuns(t *testing.T) {
	env := runenv.NewLocal(2)
	expPath := filepath.Join(t.TempDir(), "exp")
	exp := experiment.New("mini", expPath, env)
	exp.Log = slog.New(slog.DiscardHandler)

	ok := shellRun(t, exp, "blind-join", "gripper", "prob01",
		"echo translated > output.lifted",
		"echo 'Search time: 0.10s'; echo 'Solution found'",
		10*time.Second)
	crashed := shellRun(t, exp, "blind-join", "gripper", "prob02",
		"echo translated > output.lifted",
		"exit 7",
		10*time.Second)
	timedOut := shellRun(t, exp, "blind-join", "gripper", "prob03",
		"echo translated > output.lifted",
		"sleep 30",
		300*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, exp.Build(ctx))
	require.NoError(t, exp.Start(ctx))

	require.Equal(t, experiment.StateFinished, experiment.ReadState(ok.Dir))
	require.Equal(t, experiment.StateCrashed, experiment.ReadState(crashed.Dir))
	require.Equal(t, experiment.StateTimedOut, experiment.ReadState(timedOut.Dir))
	require.FileExists(t, filepath.Join(ok.Dir, "output.lifted"))
	require.FileExists(t, filepath.Join(ok.Dir, "run-search.log"))

	state, tracked := env.RunState(ok.ID())
	require.True(t, tracked)
	require.Equal(t, experiment.StateFinished, state)

	record, err := props.ReadExec(crashed.Dir)
	require.NoError(t, err)
	require.Equal(t, "crashed", record.State)

	table, err := props.Fetch(expPath, []*parser.Parser{parser.PowerLifted()},
		slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.Len(t, table, 3)
	require.Equal(t, int64(1), table[ok.ID()]["coverage"])
	require.Equal(t, int64(0), table[crashed.ID()]["coverage"])
	require.Equal(t, int64(0), table[timedOut.ID()]["coverage"])
	require.Equal(t, "timed_out", table[timedOut.ID()]["run_state"])
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (g *eventLog) record(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
}

func (g *eventLog) StartExperiment(name string, totalRuns int) { g.record("started_experiment") }
func (g *eventLog) StartRun(runID string)                      { g.record("started_run " + runID) }
func (g *eventLog) FinishRun(runID string, state string)       { g.record("finished_run " + state) }
func (g *eventLog) FinishExperiment(failed int)                { g.record("finished_experiment") }

func TestLocalStartReportsRunProgress(t *testing.T) {
	env := runenv.NewLocal(1)
	exp := experiment.New("progress", filepath.Join(t.TempDir(), "exp"), env)
	exp.Log = slog.New(slog.DiscardHandler)
	gath := &eventLog{}
	exp.Gath = gath

	run := shellRun(t, exp, "blind-join", "gripper", "prob01",
		"echo translated > output.lifted",
		"echo 'Solution found'",
		10*time.Second)

	ctx := context.Background()
	require.NoError(t, exp.Build(ctx))
	require.NoError(t, exp.Start(ctx))

	require.Equal(t, []string{
		"started_experiment",
		"started_run " + run.ID(),
		"finished_run finished",
		"finished_experiment",
	}, gath.events)
}

func TestLocalStartSkipsTerminalRuns(t *testing.T) {
	env := runenv.NewLocal(1)
	expPath := filepath.Join(t.TempDir(), "exp")
	exp := experiment.New("resume", expPath, env)
	exp.Log = slog.New(slog.DiscardHandler)

	marker := filepath.Join(t.TempDir(), "marker")
	run := shellRun(t, exp, "blind-join", "gripper", "prob01",
		"true",
		"touch "+marker,
		10*time.Second)

	ctx := context.Background()
	require.NoError(t, exp.Build(ctx))
	require.NoError(t, experiment.WriteState(run.Dir, experiment.StateFinished))
	require.NoError(t, exp.Start(ctx))

	require.NoFileExists(t, marker)
}

func TestStartRefusesUnbuiltExperiment(t *testing.T) {
	env := runenv.NewLocal(1)
	exp := experiment.New("unbuilt", filepath.Join(t.TempDir(), "exp"), env)
	exp.Log = slog.New(slog.DiscardHandler)
	shellRun(t, exp, "blind-join", "gripper", "prob01", "true", "true", time.Second)

	err := exp.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not built")
}
