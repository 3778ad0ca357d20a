package runbox_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/runbox"
)

func TestRunCapturesOutput(t *testing.T) {
	box := runbox.New(t.TempDir())
	var stdout, stderr bytes.Buffer

	res, err := box.Run(context.Background(),
		[]string{"/bin/sh", "-c", "echo out; echo err >&2"},
		runbox.Constraints{WallTimeLim: 10 * time.Second},
		&stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, runbox.StatusOK, res.Status)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "out\n", stdout.String())
	require.Equal(t, "err\n", stderr.String())
}

func TestRunNonZeroExitIsCrashed(t *testing.T) {
	box := runbox.New(t.TempDir())
	var stdout, stderr bytes.Buffer

	res, err := box.Run(context.Background(),
		[]string{"/bin/sh", "-c", "exit 3"},
		runbox.Constraints{WallTimeLim: 10 * time.Second},
		&stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, runbox.StatusCrashed, res.Status)
	require.Equal(t, 3, res.ExitCode)
}

func TestRunWallClockTimeout(t *testing.T) {
	box := runbox.New(t.TempDir())
	var stdout, stderr bytes.Buffer

	start := time.Now()
	res, err := box.Run(context.Background(),
		[]string{"/bin/sh", "-c", "sleep 30"},
		runbox.Constraints{WallTimeLim: 200 * time.Millisecond},
		&stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, runbox.StatusTimeout, res.Status)
	require.Less(t, time.Since(start), 15*time.Second)
}

func TestRunWorksInBoxDirectory(t *testing.T) {
	dir := t.TempDir()
	box := runbox.New(dir)
	var stdout, stderr bytes.Buffer

	res, err := box.Run(context.Background(),
		[]string{"/bin/sh", "-c", "echo hi > artifact.txt"},
		runbox.Constraints{WallTimeLim: 10 * time.Second},
		&stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, runbox.StatusOK, res.Status)
	require.FileExists(t, dir+"/artifact.txt")
}

func TestRunEmptyCommand(t *testing.T) {
	box := runbox.New(t.TempDir())
	_, err := box.Run(context.Background(), nil, runbox.DefaultConstraints(), nil, nil)
	require.Error(t, err)
}
