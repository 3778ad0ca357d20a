package runenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/planbench/planbench/internal/experiment"
)

// Slurm submits the experiment as one sbatch array job, one array task per
// run. Scheduling, limits enforcement between jobs, and node placement
// belong to the cluster; each array task just invokes its run's driver
// script.
type Slurm struct {
	Partition    string
	MemoryPerCPU string
	ExtraOptions string
	Export       []string
}

func (s *Slurm) Start(ctx context.Context, exp *experiment.Experiment) error {
	runs := exp.Runs()
	if len(runs) == 0 {
		return fmt.Errorf("no runs to submit")
	}

	batchID := uuid.NewString()
	script := s.arrayScript(exp, batchID)
	scriptPath := filepath.Join(exp.Path, "slurm-array.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		return fmt.Errorf("write array script: %w", err)
	}

	cmd := exec.CommandContext(ctx, "sbatch", scriptPath)
	cmd.Dir = exp.Path
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("sbatch failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	exp.Log.Info("submitted array job",
		"batch", batchID,
		"runs", len(runs),
		"sbatch", strings.TrimSpace(string(out)))
	return nil
}

func (s *Slurm) arrayScript(exp *experiment.Experiment, batchID string) string {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s-%s\n", exp.Name, batchID[:8])
	if s.Partition != "" {
		fmt.Fprintf(&b, "#SBATCH --partition=%s\n", s.Partition)
	}
	if s.MemoryPerCPU != "" {
		fmt.Fprintf(&b, "#SBATCH --mem-per-cpu=%s\n", s.MemoryPerCPU)
	}
	if len(s.Export) > 0 {
		fmt.Fprintf(&b, "#SBATCH --export=%s\n", strings.Join(s.Export, ","))
	}
	fmt.Fprintf(&b, "#SBATCH --array=1-%d\n", len(exp.Runs()))
	if s.ExtraOptions != "" {
		b.WriteString(s.ExtraOptions + "\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "exec \"$(printf 'runs/%%05d/run.sh' \"$SLURM_ARRAY_TASK_ID\")\"\n")
	return b.String()
}
