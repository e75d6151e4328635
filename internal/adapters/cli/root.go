// Package cli implements the wareflow command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wareflow",
		Short: "Wareflow CLI - warehouse material-flow scheduling toolbox",
		Long: `Wareflow CLI manages the local action-log database and runs offline
analysis against it: WMS ingestion, statistics recomputation, training
exports and wave backtests.

Examples:
  wareflow sync all
  wareflow sync tasks --truncate
  wareflow stats recompute
  wareflow stats routes
  wareflow backtest 42
  wareflow train export --target routes --out routes.csv`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/wareflow)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewBacktestCommand())
	rootCmd.AddCommand(NewTrainCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
