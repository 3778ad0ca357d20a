package runbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// Status is the terminal classification of one bounded command.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusMemory  Status = "memory"
	StatusCrashed Status = "crashed"
)

type Result struct {
	ExitCode int
	Status   Status
	WallTime time.Duration
	MaxRssKB int64
}

// Box runs external commands inside one private working directory. Each
// experiment run gets its own Box, so concurrent runs never share files.
type Box struct {
	dir string
}

func New(dir string) *Box {
	return &Box{dir: dir}
}

// Run executes argv inside the box under the given constraints, streaming
// stdout and stderr to the supplied writers. The wall-clock limit is
// enforced with a context deadline, the memory ceiling with an address
// space rlimit set in a shell wrapper before exec. Run never retries; a
// command that exceeds a limit or exits non-zero comes back with a
// non-OK status and a nil error.
func (box *Box) Run(ctx context.Context, argv []string, constraints Constraints,
	stdout io.Writer, stderr io.Writer) (*Result, error) {

	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if constraints.WallTimeLim > 0 {
		runCtx, cancel = context.WithTimeout(ctx, constraints.WallTimeLim)
		defer cancel()
	}

	wrapped := wrapWithMemoryLimit(argv, constraints.MemoryLimKB)
	cmd := exec.CommandContext(runCtx, wrapped[0], wrapped[1:]...)
	cmd.Dir = box.dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	wall := time.Since(start)

	res := &Result{
		Status:   StatusOK,
		WallTime: wall,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		if rusage, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
			// Maxrss is KiB on Linux
			res.MaxRssKB = rusage.Maxrss
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && runCtx.Err() == nil {
			return nil, err
		}
	}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		res.Status = StatusTimeout
	case constraints.MemoryLimKB > 0 && res.ExitCode != 0 && res.MaxRssKB >= constraints.MemoryLimKB:
		res.Status = StatusMemory
	case res.ExitCode != 0:
		res.Status = StatusCrashed
	}

	return res, nil
}

// wrapWithMemoryLimit lowers the address space rlimit in a shell before
// handing off to the real command. $0 picks up the first argument after
// the -c script, the rest become positional parameters.
func wrapWithMemoryLimit(argv []string, memKB int64) []string {
	if memKB <= 0 {
		return argv
	}
	script := fmt.Sprintf(`ulimit -v %d 2>/dev/null; exec "$0" "$@"`, memKB)
	wrapped := []string{"/usr/bin/bash", "-c", script}
	return append(wrapped, argv...)
}
