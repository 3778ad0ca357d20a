package environment

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrMissingEnv marks a fatal configuration problem detected before any
// run is constructed.
type ErrMissingEnv struct {
	Variable string
}

func (e *ErrMissingEnv) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Variable)
}

// EnvConfig carries the environment-sourced configuration. The limit and
// worker fields are optional overrides and stay zero when the variable is
// unset, so the experiment definition's values win by default.
type EnvConfig struct {
	BenchmarksDir string // DOWNWARD_BENCHMARKS
	PlannerDir    string // POWER_LIFTED_SRC

	Workers       int // PLANBENCH_WORKERS, local environment only
	TimeLimitSec  int // PLANBENCH_TIME_LIMIT
	MemoryLimitMB int // PLANBENCH_MEMORY_LIMIT

	NatsURL string // PLANBENCH_NATS_URL, optional progress streaming
}

func ReadEnvConfig() (*EnvConfig, error) {
	// a .env file is optional; real deployments export the variables
	_ = godotenv.Load()

	result := &EnvConfig{}

	result.BenchmarksDir = os.Getenv("DOWNWARD_BENCHMARKS")
	if result.BenchmarksDir == "" {
		return nil, &ErrMissingEnv{Variable: "DOWNWARD_BENCHMARKS"}
	}

	result.PlannerDir = os.Getenv("POWER_LIFTED_SRC")
	if result.PlannerDir == "" {
		return nil, &ErrMissingEnv{Variable: "POWER_LIFTED_SRC"}
	}

	if v := os.Getenv("PLANBENCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PLANBENCH_WORKERS value %q", v)
		}
		result.Workers = n
	}

	if v := os.Getenv("PLANBENCH_TIME_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PLANBENCH_TIME_LIMIT value %q", v)
		}
		result.TimeLimitSec = n
	}

	if v := os.Getenv("PLANBENCH_MEMORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PLANBENCH_MEMORY_LIMIT value %q", v)
		}
		result.MemoryLimitMB = n
	}

	result.NatsURL = os.Getenv("PLANBENCH_NATS_URL")

	return result, nil
}
