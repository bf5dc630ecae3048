package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newHistoryCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Execution history",
		Long: `Inspect and manage recorded workflow executions.

Executions recorded with 'prism execute --record' are stored in a local
SQLite database together with their per-engine outcomes and the full
workflow output JSON.`,
	}

	cmd.AddCommand(newHistoryListCommand(version))
	cmd.AddCommand(newHistoryShowCommand(version))
	cmd.AddCommand(newHistoryPruneCommand(version))

	return cmd
}

func newHistoryListCommand(version string) *cobra.Command {
	var (
		workflowID string
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded executions",
		Example: `  # List recent executions
  prism history list

  # List executions of one workflow
  prism history list --workflow daily-practice

  # Page through older executions
  prism history list --limit 20 --offset 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			store, err := app.openStore(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer store.Close()

			var filter *string
			if workflowID != "" {
				filter = &workflowID
			}

			execs, err := store.ListExecutions(cmd.Context(), filter, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(execs)
			}

			for _, exec := range execs {
				fmt.Printf("%s  %-22s %-9s %6dms  %s\n",
					exec.ID, exec.WorkflowID, exec.Status, exec.DurationMS,
					exec.StartedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "filter by workflow id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum executions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "executions to skip")

	return cmd
}

func newHistoryShowCommand(version string) *cobra.Command {
	var showOutput bool

	cmd := &cobra.Command{
		Use:   "show <execution-id>",
		Short: "Show one execution",
		Args:  cobra.ExactArgs(1),
		Example: `  # Show an execution and its per-engine outcomes
  prism history show 6f1c9c0e-...

  # Include the full workflow output JSON
  prism history show 6f1c9c0e-... --output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			store, err := app.openStore(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer store.Close()

			exec, err := store.GetExecution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			results, err := store.ListEngineResultsByExecution(cmd.Context(), exec.ID)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"execution":      exec,
					"engine_results": results,
				})
			}

			fmt.Printf("ID:        %s\n", exec.ID)
			fmt.Printf("Workflow:  %s\n", exec.WorkflowID)
			fmt.Printf("Status:    %s\n", exec.Status)
			fmt.Printf("Phase:     %d\n", exec.Phase)
			fmt.Printf("Duration:  %dms\n", exec.DurationMS)
			fmt.Printf("Started:   %s\n", exec.StartedAt.Format(time.RFC3339))
			if exec.Summary != "" {
				fmt.Printf("Summary:   %s\n", exec.Summary)
			}
			for _, result := range results {
				line := fmt.Sprintf("  %-9s %-16s", result.Status, result.EngineID)
				if result.Cached {
					line += " (cached)"
				}
				if result.Error != nil {
					line += " " + *result.Error
				}
				fmt.Println(line)
			}
			if showOutput {
				fmt.Println()
				fmt.Println(exec.Output)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showOutput, "output", false, "print the full workflow output JSON")

	return cmd
}

func newHistoryPruneCommand(version string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old executions",
		Example: `  # Delete executions older than 30 days
  prism history prune --older-than 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			store, err := app.openStore(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer store.Close()

			cutoff := time.Now().UTC().Add(-olderThan)
			pruned, err := store.PruneExecutionsBefore(cmd.Context(), cutoff)
			if err != nil {
				return err
			}

			log.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("History pruned")
			fmt.Printf("Pruned %d executions started before %s\n", pruned, cutoff.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 720*time.Hour, "age threshold for deletion")

	return cmd
}
