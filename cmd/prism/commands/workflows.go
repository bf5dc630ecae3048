package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newWorkflowsCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Workflow catalog",
		Long: `Inspect the workflow catalog.

Workflows are named compositions of insight engines. Each declares the
engines it fans out to, the minimum consciousness phase required to run
it, and the synthesis strategy applied to the combined results.`,
	}

	cmd.AddCommand(newWorkflowsListCommand(version))
	cmd.AddCommand(newWorkflowsShowCommand(version))

	return cmd
}

func newWorkflowsListCommand(version string) *cobra.Command {
	var phase int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		Example: `  # List all workflows
  prism workflows list

  # List workflows accessible at phase 2
  prism workflows list --phase 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			defs := app.orch.Workflows().List()
			if cmd.Flags().Changed("phase") {
				defs = app.orch.Workflows().ListForPhase(phase)
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(defs)
			}

			for _, def := range defs {
				fmt.Printf("%-22s phase>=%d  strategy=%-12s engines=%s\n",
					def.ID, def.RequiredPhase, def.Strategy, strings.Join(def.EngineIDs, ","))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&phase, "phase", 0, "only workflows accessible at this phase")

	return cmd
}

func newWorkflowsShowCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Show one workflow definition",
		Args:  cobra.ExactArgs(1),
		Example: `  # Show the birth-blueprint workflow
  prism workflows show birth-blueprint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			def, ok := app.orch.Workflows().Get(args[0])
			if !ok {
				return fmt.Errorf("unknown workflow: %s", args[0])
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(def)
			}

			fmt.Printf("ID:          %s\n", def.ID)
			fmt.Printf("Name:        %s\n", def.Name)
			fmt.Printf("Description: %s\n", def.Description)
			fmt.Printf("Engines:     %s\n", strings.Join(def.EngineIDs, ", "))
			fmt.Printf("Phase:       %d\n", def.RequiredPhase)
			fmt.Printf("Strategy:    %s\n", def.Strategy)
			return nil
		},
	}

	return cmd
}
