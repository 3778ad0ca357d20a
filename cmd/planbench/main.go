package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/planbench/planbench/internal/environment"
	"github.com/planbench/planbench/internal/expdef"
	"github.com/planbench/planbench/internal/experiment"
	"github.com/planbench/planbench/internal/gatherer"
	"github.com/planbench/planbench/internal/gatherer/natsgath"
	"github.com/planbench/planbench/internal/gatherer/termgath"
	"github.com/planbench/planbench/internal/parser"
	"github.com/planbench/planbench/internal/props"
	"github.com/planbench/planbench/internal/reports"
	"github.com/planbench/planbench/internal/runenv"
	"github.com/planbench/planbench/internal/suites"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	cmd := &cli.Command{
		Name:      "planbench",
		Usage:     "build, execute and report planner benchmark experiments",
		ArgsUsage: "[step ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "exp",
				Usage: "experiment definition TOML (built-in grid when omitted)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "run every registered step in order",
			},
			&cli.StringFlag{
				Name:  "data",
				Value: "data",
				Usage: "directory holding experiment data",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("planbench failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	envCfg, err := environment.ReadEnvConfig()
	if err != nil {
		return err
	}

	var def *expdef.Definition
	if path := c.String("exp"); path != "" {
		def, err = expdef.Load(path)
		if err != nil {
			return err
		}
	} else {
		def = expdef.Default()
	}
	applyEnvOverrides(def, envCfg)

	hostname, _ := os.Hostname()
	remote := def.Remote(hostname)

	suite := def.Suite
	if remote {
		suite = def.RemoteSuite
	}
	excluded := mapset.NewSet[string](def.ExcludedDomains...)
	tasks, err := suites.Build(envCfg.BenchmarksDir, suite, excluded)
	if err != nil {
		return err
	}

	exp, err := assembleExperiment(def, envCfg, tasks, remote, filepath.Join(c.String("data"), def.Name))
	if err != nil {
		return err
	}

	steps := c.Args().Slice()
	all := c.Bool("all")
	if len(steps) == 0 && !all {
		return fmt.Errorf("no steps requested, available: %s", strings.Join(exp.StepNames(), ", "))
	}
	return exp.RunSteps(ctx, steps, all)
}

func applyEnvOverrides(def *expdef.Definition, envCfg *environment.EnvConfig) {
	if envCfg.Workers > 0 {
		def.Environment.Workers = envCfg.Workers
	}
	if envCfg.TimeLimitSec > 0 {
		def.TimeLimitSec = envCfg.TimeLimitSec
	}
	if envCfg.MemoryLimitMB > 0 {
		def.MemoryLimitMB = int64(envCfg.MemoryLimitMB)
	}
}

func assembleExperiment(def *expdef.Definition, envCfg *environment.EnvConfig,
	tasks []suites.Task, remote bool, expPath string) (*experiment.Experiment, error) {

	var env experiment.Environment
	var gath gatherer.Gatherer = gatherer.Discard{}
	if remote {
		env = &runenv.Slurm{
			Partition:    def.Environment.Partition,
			MemoryPerCPU: def.Environment.MemoryPerCPU,
			ExtraOptions: def.Environment.ExtraOptions,
			Export:       def.Environment.Export,
		}
	} else {
		env = runenv.NewLocal(def.Environment.Workers)
		gath = termgath.New()
		if envCfg.NatsURL != "" {
			nc, err := nats.Connect(envCfg.NatsURL)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to NATS: %w", err)
			}
			gath = natsgath.New(nc, "planbench.progress."+def.Name)
		}
	}

	exp := experiment.New(def.Name, expPath, env)
	exp.Gath = gath
	exp.TimeLimit = time.Duration(def.TimeLimitSec) * time.Second
	exp.MemoryLimMB = def.MemoryLimitMB

	configs := make([]experiment.Configuration, 0, len(def.Configurations))
	for _, c := range def.Configurations {
		configs = append(configs, experiment.Configuration{
			Name:      c.Name,
			Arguments: c.Arguments,
		})
	}
	registry, err := experiment.NewRegistry(configs...)
	if err != nil {
		return nil, err
	}
	if err := exp.PopulateGrid(registry, tasks, envCfg.PlannerDir); err != nil {
		return nil, err
	}

	parsers := []*parser.Parser{parser.PowerLifted()}
	propsPath := filepath.Join(props.EvalDir(expPath), "properties")

	exp.AddStep("build", exp.Build)
	exp.AddStep("start", exp.Start)
	exp.AddStep("fetch", func(ctx context.Context) error {
		table, err := props.Fetch(expPath, parsers, exp.Log)
		if err != nil {
			return err
		}
		exp.Log.Info("fetched run properties", "runs", len(table))
		return props.Save(propsPath, table)
	})

	for _, rdef := range def.Reports {
		exp.AddStep(stepName(rdef.Outfile), reportStep(def, rdef, propsPath, exp.Log))
	}
	return exp, nil
}

func stepName(outfile string) string {
	return strings.TrimSuffix(outfile, filepath.Ext(outfile))
}

func reportStep(def *expdef.Definition, rdef expdef.ReportDef,
	propsPath string, log *slog.Logger) func(ctx context.Context) error {

	return func(ctx context.Context) error {
		table, err := props.Load(propsPath)
		if err != nil {
			return fmt.Errorf("no fetched properties, run the fetch step first: %w", err)
		}

		filters, err := def.ResolveFilters(rdef.Filters)
		if err != nil {
			return err
		}

		var rendered string
		switch rdef.Kind {
		case "absolute":
			report := &reports.AbsoluteReport{
				Attributes:      def.ReportAttributes(rdef),
				FilterAlgorithm: rdef.Algorithms,
				Filters:         filters,
				Log:             log,
			}
			rendered, err = report.Render(table)
		case "scatter":
			report := &reports.ScatterReport{
				Attribute:  rdef.Attribute,
				AlgorithmX: rdef.Algorithms[0],
				AlgorithmY: rdef.Algorithms[1],
				Filters:    filters,
				Log:        log,
			}
			rendered, err = report.Render(table)
		}
		if err != nil {
			// a broken report is a warning, the remaining steps still run
			log.Warn("skipping report", "outfile", rdef.Outfile, "err", err)
			return nil
		}

		outPath := filepath.Join(filepath.Dir(propsPath), rdef.Outfile)
		if err := os.WriteFile(outPath, []byte(rendered), 0644); err != nil {
			return err
		}
		log.Info("wrote report", "outfile", outPath)
		return nil
	}
}
