package natsgath

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type natsGatherer struct {
	nc      *nats.Conn
	subject string
	batchID string
}

// New creates a gatherer that streams progress events to the given NATS
// subject. Every event carries a batch id so multiple experiment
// invocations can share one subject.
func New(nc *nats.Conn, subject string) *natsGatherer {
	return &natsGatherer{
		nc:      nc,
		subject: subject,
		batchID: uuid.NewString(),
	}
}

type event struct {
	MsgType    string `json:"msg_type"`
	BatchID    string `json:"batch_id"`
	Experiment string `json:"experiment,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	State      string `json:"state,omitempty"`
	TotalRuns  int    `json:"total_runs,omitempty"`
	Failed     int    `json:"failed,omitempty"`
	Time       string `json:"time"`
}

func (g *natsGatherer) StartExperiment(name string, totalRuns int) {
	g.send(event{MsgType: "started_experiment", Experiment: name, TotalRuns: totalRuns})
}

func (g *natsGatherer) StartRun(runID string) {
	g.send(event{MsgType: "started_run", RunID: runID})
}

func (g *natsGatherer) FinishRun(runID string, state string) {
	g.send(event{MsgType: "finished_run", RunID: runID, State: state})
}

func (g *natsGatherer) FinishExperiment(failed int) {
	g.send(event{MsgType: "finished_experiment", Failed: failed})
	g.nc.Flush()
}

func (g *natsGatherer) send(ev event) {
	ev.BatchID = g.batchID
	ev.Time = time.Now().Format(time.RFC3339)
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to marshal progress event", "err", err)
		return
	}
	if err := g.nc.Publish(g.subject, b); err != nil {
		slog.Warn("failed to publish progress event", "err", err)
	}
}
