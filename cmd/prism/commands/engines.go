package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newEnginesCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "Registered insight engines",
		Long: `Inspect the engine registry.

Engines are registered by the embedding application; a bare CLI process
starts with an empty registry. Each engine declares an id, a display
name and the minimum consciousness phase required to call it.`,
	}

	cmd.AddCommand(newEnginesListCommand(version))

	return cmd
}

func newEnginesListCommand(version string) *cobra.Command {
	var phase int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered engines",
		Example: `  # List all registered engines
  prism engines list

  # List engines accessible at phase 1
  prism engines list --phase 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			ids := app.orch.Engines().List()
			if cmd.Flags().Changed("phase") {
				ids = app.orch.Engines().ListForPhase(phase)
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(ids)
			}

			if len(ids) == 0 {
				fmt.Println("no engines registered")
				return nil
			}
			for _, id := range ids {
				eng, _ := app.orch.Engines().Get(id)
				fmt.Printf("%-16s %-32s phase>=%d\n", id, eng.Name(), eng.RequiredPhase())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&phase, "phase", 0, "only engines accessible at this phase")

	return cmd
}
