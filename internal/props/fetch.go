package props

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/planbench/planbench/internal/parser"
)

// Fetch scans the completed run directories of expDir and assembles the
// property table: static build-time properties, the execution record, and
// whatever the parsers can extract from the logs. Partial results are
// kept; an attribute a parser cannot find is simply absent, never zero.
// Fetch is a pure function of the run directories, so re-running it over
// unchanged runs yields an identical table.
func Fetch(expDir string, parsers []*parser.Parser, log *slog.Logger) (Table, error) {
	runsDir := filepath.Join(expDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("no run directories under %s, run build and start first: %w", expDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, de := range entries {
		if de.IsDir() {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	table := Table{}
	for _, name := range names {
		runDir := filepath.Join(runsDir, name)
		record, runID, err := fetchRun(runDir, parsers, log)
		if err != nil {
			log.Warn("skipping unreadable run directory", "dir", runDir, "err", err)
			continue
		}
		table[runID] = record
	}
	return table, nil
}

func fetchRun(runDir string, parsers []*parser.Parser, log *slog.Logger) (map[string]any, string, error) {
	record, err := readStaticProps(runDir)
	if err != nil {
		return nil, "", err
	}

	runID, err := idString(record)
	if err != nil {
		return nil, "", err
	}

	state := "built"
	if exec, err := ReadExec(runDir); err == nil {
		state = exec.State
		record["node"] = exec.Node
		if exec.Error != "" {
			record["error"] = exec.Error
		}
		if len(exec.UnexplainedErrors) > 0 {
			record["unexplained_errors"] = exec.UnexplainedErrors
		}
		for _, cmd := range exec.Commands {
			if cmd.Name == "run-search" {
				record["peak_memory_rss"] = cmd.MaxRssKB
				record["wall_time"] = cmd.WallTime
			}
		}
	} else if b, serr := os.ReadFile(filepath.Join(runDir, "state")); serr == nil {
		// cluster runs have no exec record, only the driver's state file
		state = strings.TrimSpace(string(b))
	}
	record["run_state"] = state

	for _, p := range parsers {
		parsed, warnings := p.Parse(runDir)
		for _, w := range warnings {
			log.Warn("parse problem", "run", runID, "msg", w)
		}
		for k, v := range parsed {
			record[k] = v
		}
	}

	// coverage is derived, never parsed directly: a run only counts as
	// covered when it finished and the search reported a solution
	_, solved := record["solved"]
	delete(record, "solved")
	if state == "finished" && solved {
		record["coverage"] = int64(1)
	} else {
		record["coverage"] = int64(0)
	}
	if state != "finished" && state != "built" {
		if _, ok := record["error"]; !ok {
			record["error"] = state
		}
		// attributes measured by an unfinished search are unreliable
		delete(record, "search_time")
		delete(record, "total_time")
	}

	return record, runID, nil
}

func readStaticProps(runDir string) (map[string]any, error) {
	b, err := os.ReadFile(filepath.Join(runDir, "static-properties"))
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func idString(record map[string]any) (string, error) {
	raw, ok := record["id"].([]any)
	if !ok || len(raw) == 0 {
		return "", fmt.Errorf("static properties have no id")
	}
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		s, ok := p.(string)
		if !ok {
			return "", fmt.Errorf("static properties id is not a string list")
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ":"), nil
}
