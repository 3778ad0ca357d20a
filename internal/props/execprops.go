package props

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const execPropsFile = "exec-properties"

// CommandResult records the outcome of one bounded command of a run.
type CommandResult struct {
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	ExitCode int     `json:"exit_code"`
	WallTime float64 `json:"wall_time"`
	MaxRssKB int64   `json:"max_rss_kb"`
}

// ExecProps is the execution record the start step writes into each run
// directory and the fetch step reads back.
type ExecProps struct {
	Node              string          `json:"node"`
	State             string          `json:"state"`
	Commands          []CommandResult `json:"commands"`
	Error             string          `json:"error,omitempty"`
	UnexplainedErrors []string        `json:"unexplained_errors,omitempty"`
}

func WriteExec(runDir string, ep *ExecProps) error {
	b, err := json.MarshalIndent(ep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, execPropsFile), b, 0644)
}

func ReadExec(runDir string) (*ExecProps, error) {
	b, err := os.ReadFile(filepath.Join(runDir, execPropsFile))
	if err != nil {
		return nil, err
	}
	var ep ExecProps
	if err := json.Unmarshal(b, &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}
