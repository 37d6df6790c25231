package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evoforge/evolve/cmd/evolve-cli/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "evolve-cli",
	Short: "Run evolutionary optimizations from the command line",
	Long: `A command-line interface for the evolve engine that runs built-in
benchmark problems without writing any code.

The CLI provides:
- Classic benchmark problems (ZDT1, sphere, novelty variants)
- YAML-configured runs with on-disk result folders
- Worker mode for distributed evaluation`,
	Version: "0.1.0",
}

func main() {
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewWorkerCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
