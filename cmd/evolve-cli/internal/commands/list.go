package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evoforge/evolve/cmd/evolve-cli/internal/benchmarks"
)

func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in benchmark problems",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range benchmarks.Names() {
				b, _ := benchmarks.Get(name)
				goal := "maximize"
				if b.Minimize {
					goal = "minimize"
				}
				fmt.Printf("%-16s %s (%s, %d dimensions)\n", b.Name, b.Description, goal, b.Dimension)
			}
		},
	}
}
