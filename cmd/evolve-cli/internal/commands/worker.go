package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/evoforge/evolve/cmd/evolve-cli/internal/benchmarks"
	"github.com/evoforge/evolve/pkg/dist"
	"github.com/evoforge/evolve/pkg/genomes"
	"github.com/evoforge/evolve/pkg/logging"
)

func NewWorkerCommand() *cobra.Command {
	var benchmark string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run as an evaluation worker over stdio",
		Long: `Run the evaluation loop of a distributed run. The controller sends
population batches as JSON on stdin and reads evaluated batches from stdout,
so all logging goes to stderr. Typically launched by the controller itself via
the distribution config, not by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stdout belongs to the batch protocol.
			logging.SetLogger(logging.NewLogger(logging.Config{
				Severity: logging.ERROR,
				Outputs:  []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(false))},
			}))

			bench, err := benchmarks.Get(benchmark)
			if err != nil {
				return err
			}
			return dist.RunWorker(cmd.Context(), os.Stdin, os.Stdout, genomes.DecodeVector, bench.Eval, concurrency)
		},
	}

	cmd.Flags().StringVarP(&benchmark, "benchmark", "b", "zdt1", "benchmark evaluator to serve")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "evaluation goroutines (0 uses all CPUs)")
	return cmd
}
