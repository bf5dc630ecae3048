package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prism",
		Short: "Prism - Insight Workflow Orchestration Engine",
		Long: `Prism orchestrates multiple insight engines into named workflows,
running them concurrently and synthesizing their results into themes,
alignments, tensions and self-inquiry prompts.

Features:
  - Engine registry with phase-gated access
  - Six canonical workflows (birth-blueprint, daily-practice, ...)
  - Concurrent execution tolerant of individual engine failures
  - Three-tier result caching (memory, distributed, disk)
  - Cross-engine synthesis and witness prompts
  - Daily request budgeting for metered backends
  - SQLite-backed execution history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newWorkflowsCommand(version))
	rootCmd.AddCommand(newEnginesCommand(version))
	rootCmd.AddCommand(newExecuteCommand(version))
	rootCmd.AddCommand(newHistoryCommand(version))
	rootCmd.AddCommand(newCacheCommand(version))

	return rootCmd
}
