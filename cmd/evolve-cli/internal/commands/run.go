// Package commands holds the CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evoforge/evolve/cmd/evolve-cli/internal/benchmarks"
	"github.com/evoforge/evolve/pkg/config"
	"github.com/evoforge/evolve/pkg/dist"
	"github.com/evoforge/evolve/pkg/engine"
	"github.com/evoforge/evolve/pkg/genomes"
	"github.com/evoforge/evolve/pkg/logging"
	"github.com/evoforge/evolve/pkg/persist"
)

func NewRunCommand() *cobra.Command {
	var configPath string
	var benchmark string
	var generations int
	var dimension int
	var resumePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark optimization",
		Long: `Run the engine on a built-in benchmark problem. Configuration comes
from a YAML file; flags select the problem and run length.`,
		Example: `  # NSGA-II on ZDT1 for 100 generations
  evolve-cli run --benchmark zdt1 --config nsga2.yaml --generations 100

  # Resume from a saved population snapshot
  evolve-cli run --benchmark sphere --resume evos/sphere_1_9_0/gen40/pop40.pop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd.Context(), configPath, benchmark, generations, dimension, resumePath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults apply when omitted)")
	cmd.Flags().StringVarP(&benchmark, "benchmark", "b", "zdt1", "benchmark problem to run")
	cmd.Flags().IntVarP(&generations, "generations", "g", 50, "number of generations")
	cmd.Flags().IntVarP(&dimension, "dimension", "d", 0, "genome dimension (0 uses the benchmark default)")
	cmd.Flags().StringVar(&resumePath, "resume", "", "population snapshot to resume from")
	return cmd
}

func runBenchmark(ctx context.Context, configPath, benchmark string, generations, dimension int, resumePath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	setupLogging(cfg.Logging)

	bench, err := benchmarks.Get(benchmark)
	if err != nil {
		return err
	}
	if dimension == 0 {
		dimension = bench.Dimension
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	if bench.Novelty {
		opts.Novelty = true
	}
	if bench.Minimize {
		cfg.Engine.Minimize = true
	}

	recorder, store, err := buildRecorder(cfg, bench.Name)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	engineOpts := []engine.Option[*genomes.Vector]{
		engine.WithEvaluator(bench.Name, bench.Eval),
		engine.WithRecorder[*genomes.Vector](recorder),
	}
	if cfg.Engine.Minimize {
		engineOpts = append(engineOpts, engine.WithIsBetter[*genomes.Vector](engine.LessIsBetter))
	}
	if cfg.Distribution.Workers > 0 {
		pool, err := dist.NewPool(ctx, genomes.DecodeVector, bench.Name,
			opts.Concurrency, cfg.Distribution.Workers,
			cfg.Distribution.WorkerCommand, cfg.Distribution.WorkerArgs...)
		if err != nil {
			return err
		}
		defer pool.Close()
		engineOpts = append(engineOpts, engine.WithRunner[*genomes.Vector](pool))
	}

	e, err := engine.New(opts, engineOpts...)
	if err != nil {
		return err
	}

	if resumePath != "" {
		pop, gen, err := persist.LoadPopulation(resumePath, genomes.DecodeVector)
		if err != nil {
			return err
		}
		if err := e.Resume(pop, gen); err != nil {
			return err
		}
	} else {
		e.InitPopulation(genomes.NewVectorFactory(dimension))
	}

	if err := e.Step(ctx, generations); err != nil {
		return err
	}
	fmt.Printf("run complete after generation %d, results in %s\n", e.Generation()-1, recorder.Dir())
	return nil
}

func buildRecorder(cfg *config.Config, evaluator string) (*persist.FolderRecorder[*genomes.Vector], *persist.RunStore, error) {
	savePop, saveArch := true, true
	if cfg.Persistence.SavePopulation != nil {
		savePop = *cfg.Persistence.SavePopulation
	}
	if cfg.Persistence.SaveArchive != nil {
		saveArch = *cfg.Persistence.SaveArchive
	}
	recorder, err := persist.NewFolderRecorder(cfg.Persistence.Folder, evaluator,
		persist.WithPopulationSave[*genomes.Vector](savePop),
		persist.WithArchiveSave[*genomes.Vector](saveArch),
	)
	if err != nil {
		return nil, nil, err
	}

	var store *persist.RunStore
	if cfg.Persistence.SQLite {
		store, err = persist.OpenRunStore(filepath.Join(recorder.Dir(), "run.db"), filepath.Base(recorder.Dir()))
		if err != nil {
			return nil, nil, err
		}
		persist.WithRunStore[*genomes.Vector](store)(recorder)
	}
	return recorder, store, nil
}

func setupLogging(cfg config.LoggingConfig) {
	outputs := []logging.Output{logging.NewConsoleOutput(false, logging.WithColor(true))}
	if cfg.File != "" {
		if fileOut, err := logging.NewFileOutput(cfg.File); err == nil {
			outputs = append(outputs, fileOut)
		}
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: cfg.Severity(),
		Outputs:  outputs,
	}))
}
