package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build materializes every run on persistent storage: the run directory,
// symlinked input resources, the static properties file, and a driver
// script. Re-running build rewrites the deterministic artifacts but never
// clobbers a run that already reached a terminal state.
func (e *Experiment) Build(ctx context.Context) error {
	for _, run := range e.runs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.buildRun(run); err != nil {
			return fmt.Errorf("build %s: %w", run.ID(), err)
		}
	}
	e.Log.Info("build complete", "runs", len(e.runs), "dir", e.Path)
	return nil
}

func (e *Experiment) buildRun(run *Run) error {
	if err := os.MkdirAll(run.Dir, 0755); err != nil {
		return err
	}

	for name, source := range run.Resources {
		link := filepath.Join(run.Dir, name)
		if _, err := os.Lstat(link); err == nil {
			if err := os.Remove(link); err != nil {
				return err
			}
		}
		if err := os.Symlink(source, link); err != nil {
			return err
		}
	}

	props, err := json.MarshalIndent(run.Props, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(run.Dir, "static-properties"), props, 0644); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(run.Dir, "run.sh"), []byte(driverScript(run)), 0755); err != nil {
		return err
	}

	if !ReadState(run.Dir).Terminal() {
		return WriteState(run.Dir, StateBuilt)
	}
	return nil
}

// driverScript renders a standalone shell driver for the run. The local
// environment executes commands in-process instead, but cluster array jobs
// invoke this script, and it doubles as a record of what the run does.
// Exit code 124 is the timeout convention of coreutils timeout.
func driverScript(run *Run) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("cd \"$(dirname \"$0\")\"\n")
	b.WriteString("echo running > state\n")
	b.WriteString("status=finished\n")
	for _, cmd := range run.Commands {
		prologue := ""
		if cmd.MemoryLimMB > 0 {
			prologue = fmt.Sprintf("ulimit -v %d 2>/dev/null; ", cmd.MemoryLimMB*1024)
		}
		fmt.Fprintf(&b, "if [ \"$status\" = finished ]; then\n")
		fmt.Fprintf(&b, "  timeout %ds bash -c '%sexec \"$0\" \"$@\"' %s > %s.log 2> %s.err\n",
			int(cmd.TimeLimit.Seconds()), prologue, shellJoin(cmd.Argv), cmd.Name, cmd.Name)
		b.WriteString("  rc=$?\n")
		b.WriteString("  if [ $rc -eq 124 ]; then status=timed_out; elif [ $rc -ne 0 ]; then status=crashed; fi\n")
		b.WriteString("fi\n")
	}
	b.WriteString("echo $status > state\n")
	return b.String()
}

func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
