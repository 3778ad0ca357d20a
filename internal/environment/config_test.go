package environment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/planbench/planbench/internal/environment"
)

func TestReadEnvConfig(t *testing.T) {
	t.Setenv("DOWNWARD_BENCHMARKS", "/data/benchmarks")
	t.Setenv("POWER_LIFTED_SRC", "/opt/planner")
	t.Setenv("PLANBENCH_WORKERS", "8")
	t.Setenv("PLANBENCH_TIME_LIMIT", "60")
	t.Setenv("PLANBENCH_MEMORY_LIMIT", "")
	t.Setenv("PLANBENCH_NATS_URL", "")

	cfg, err := environment.ReadEnvConfig()
	require.NoError(t, err)
	require.Equal(t, "/data/benchmarks", cfg.BenchmarksDir)
	require.Equal(t, "/opt/planner", cfg.PlannerDir)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 60, cfg.TimeLimitSec)
	require.Zero(t, cfg.MemoryLimitMB, "unset overrides stay zero")
	require.Empty(t, cfg.NatsURL)
}

func TestReadEnvConfigMissingBenchmarks(t *testing.T) {
	t.Setenv("DOWNWARD_BENCHMARKS", "")
	t.Setenv("POWER_LIFTED_SRC", "/opt/planner")

	_, err := environment.ReadEnvConfig()
	require.Error(t, err)
	var missing *environment.ErrMissingEnv
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "DOWNWARD_BENCHMARKS", missing.Variable)
}

func TestReadEnvConfigBadNumbers(t *testing.T) {
	t.Setenv("DOWNWARD_BENCHMARKS", "/data/benchmarks")
	t.Setenv("POWER_LIFTED_SRC", "/opt/planner")
	t.Setenv("PLANBENCH_WORKERS", "zero")

	_, err := environment.ReadEnvConfig()
	require.Error(t, err)
}
