package runenv

import (
	"context"
	"os"
	"path/filepath"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/planbench/planbench/internal/experiment"
	"github.com/planbench/planbench/internal/props"
	"github.com/planbench/planbench/internal/runbox"
)

// Local executes runs on the current machine with a fixed-size process
// pool. Each run owns its directory, so workers share nothing but the
// pool itself.
type Local struct {
	Workers int

	// states tracks live run states for progress inspection.
	states *xsync.MapOf[string, experiment.State]
}

func NewLocal(workers int) *Local {
	if workers < 1 {
		workers = 1
	}
	return &Local{
		Workers: workers,
		states:  xsync.NewMapOf[string, experiment.State](),
	}
}

// RunState reports the last state this environment observed for a run id.
func (l *Local) RunState(runID string) (experiment.State, bool) {
	return l.states.Load(runID)
}

// Start executes all non-terminal runs. A run that fails stays failed and
// never aborts the batch; Start only returns an error when the context is
// cancelled.
func (l *Local) Start(ctx context.Context, exp *experiment.Experiment) error {
	exp.Gath.StartExperiment(exp.Name, len(exp.Runs()))

	failed := xsync.NewCounter()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.Workers)

	for _, run := range exp.Runs() {
		if state := experiment.ReadState(run.Dir); state.Terminal() {
			l.states.Store(run.ID(), state)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			exp.Gath.StartRun(run.ID())
			state := l.executeRun(gctx, run)
			if state != experiment.StateFinished {
				failed.Inc()
			}
			exp.Gath.FinishRun(run.ID(), string(state))
			return nil
		})
	}

	err := g.Wait()
	exp.Gath.FinishExperiment(int(failed.Value()))
	return err
}

func (l *Local) executeRun(ctx context.Context, run *experiment.Run) experiment.State {
	l.states.Store(run.ID(), experiment.StateRunning)
	_ = experiment.WriteState(run.Dir, experiment.StateRunning)

	hostname, _ := os.Hostname()
	record := &props.ExecProps{Node: hostname}
	state := experiment.StateFinished

	box := runbox.New(run.Dir)
	for _, cmd := range run.Commands {
		res, runErr := l.executeCommand(ctx, box, run.Dir, cmd)
		if runErr != nil {
			record.UnexplainedErrors = append(record.UnexplainedErrors, runErr.Error())
			record.Error = runErr.Error()
			state = experiment.StateCrashed
			break
		}

		record.Commands = append(record.Commands, props.CommandResult{
			Name:     cmd.Name,
			Status:   string(res.Status),
			ExitCode: res.ExitCode,
			WallTime: res.WallTime.Seconds(),
			MaxRssKB: res.MaxRssKB,
		})

		if res.Status != runbox.StatusOK {
			switch res.Status {
			case runbox.StatusTimeout:
				state = experiment.StateTimedOut
			case runbox.StatusMemory:
				state = experiment.StateKilledByMemory
			default:
				state = experiment.StateCrashed
			}
			record.Error = cmd.Name + " " + string(res.Status)
			break
		}
	}

	record.State = string(state)
	if err := props.WriteExec(run.Dir, record); err != nil {
		record.UnexplainedErrors = append(record.UnexplainedErrors, err.Error())
	}
	_ = experiment.WriteState(run.Dir, state)
	l.states.Store(run.ID(), state)
	return state
}

func (l *Local) executeCommand(ctx context.Context, box *runbox.Box, runDir string,
	cmd experiment.Command) (*runbox.Result, error) {

	stdout, err := os.Create(filepath.Join(runDir, cmd.Name+".log"))
	if err != nil {
		return nil, err
	}
	defer stdout.Close()

	stderr, err := os.Create(filepath.Join(runDir, cmd.Name+".err"))
	if err != nil {
		return nil, err
	}
	defer stderr.Close()

	constraints := runbox.Constraints{
		WallTimeLim: cmd.TimeLimit,
		MemoryLimKB: cmd.MemoryLimMB * 1024,
	}
	if constraints.WallTimeLim <= 0 {
		constraints.WallTimeLim = runbox.DefaultConstraints().WallTimeLim
	}
	return box.Run(ctx, cmd.Argv, constraints, stdout, stderr)
}
