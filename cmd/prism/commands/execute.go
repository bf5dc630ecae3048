package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prism-engine/prism/pkg/engine"
	"github.com/prism-engine/prism/pkg/stores"
	"github.com/prism-engine/prism/pkg/telemetry"
)

func newExecuteCommand(version string) *cobra.Command {
	var (
		inputFile string
		phase     int
		record    bool
	)

	cmd := &cobra.Command{
		Use:   "execute <workflow-id>",
		Short: "Execute a workflow",
		Long: `Execute a workflow against an input file.

The input file is a JSON document with birth data, a reference time and
optional engine options. Engines named by the workflow that are not
registered, or not accessible at the caller's phase, are skipped; failed
engines are reported without failing the workflow.`,
		Example: `  # Run the daily-practice workflow
  prism execute daily-practice --input birth.json

  # Run at a higher consciousness phase
  prism execute self-inquiry --input birth.json --phase 3

  # Run and record the execution in the history database
  prism execute birth-blueprint --input birth.json --record`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflowID := args[0]

			input, err := readInput(inputFile)
			if err != nil {
				return err
			}

			app, err := newApp(version)
			if err != nil {
				return err
			}
			defer app.close(cmd.Context())

			log.Info().
				Str("workflow_id", workflowID).
				Str("input", inputFile).
				Int("phase", phase).
				Msg("Executing workflow")

			executionID := uuid.New().String()
			ctx := telemetry.WithWorkflowContext(
				app.tel.WithContext(cmd.Context()), executionID, workflowID)

			out, err := app.orch.ExecuteWorkflow(ctx, workflowID, input, phase)
			telemetry.EndWorkflowContext(ctx, executionID, workflowID, executionStatus(out), err)
			if err != nil {
				return fmt.Errorf("executing workflow: %w", err)
			}

			if record {
				store, err := app.openStore(cmd.Context(), "")
				if err != nil {
					return err
				}
				defer store.Close()

				id, err := stores.NewRecorder(store).RecordWorkflow(
					cmd.Context(), out, engine.InputFingerprint(input), phase)
				if err != nil {
					return fmt.Errorf("recording execution: %w", err)
				}
				log.Info().Str("execution_id", id).Msg("Execution recorded")
			}

			return printWorkflowOutput(out)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "input JSON file path")
	cmd.Flags().IntVar(&phase, "phase", 1, "caller consciousness phase")
	cmd.Flags().BoolVar(&record, "record", false, "record the execution in the history database")
	cmd.MarkFlagRequired("input")

	return cmd
}

// executionStatus derives the recorded status from a workflow output,
// mirroring the history store's failed/partial/succeeded classes.
func executionStatus(out *engine.WorkflowOutput) string {
	switch {
	case out == nil:
		return string(stores.ExecutionStatusFailed)
	case len(out.EngineResults) == 0 && len(out.Failures) > 0:
		return string(stores.ExecutionStatusFailed)
	case len(out.Failures) > 0:
		return string(stores.ExecutionStatusPartial)
	default:
		return string(stores.ExecutionStatusSucceeded)
	}
}

func readInput(path string) (engine.Input, error) {
	var input engine.Input

	data, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("reading input file: %w", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("parsing input file: %w", err)
	}
	return input, nil
}

func printWorkflowOutput(out *engine.WorkflowOutput) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Workflow:  %s (%s)\n", out.WorkflowID, out.Duration)
	fmt.Printf("Succeeded: %d  Failed: %d  Skipped: %d\n",
		len(out.EngineResults), len(out.Failures), len(out.Skipped))

	for engineID, reason := range out.Failures {
		fmt.Printf("  failed  %-16s %s\n", engineID, reason)
	}
	if len(out.Skipped) > 0 {
		fmt.Printf("  skipped %s\n", strings.Join(out.Skipped, ", "))
	}

	if out.Synthesis.Summary != "" {
		fmt.Printf("\nSummary: %s\n", out.Synthesis.Summary)
	}
	for _, theme := range out.Synthesis.Themes {
		fmt.Printf("  theme   %-20s strength=%.2f  sources=%s\n",
			theme.Name, theme.Strength, strings.Join(theme.Sources, ","))
	}
	for _, alignment := range out.Synthesis.Alignments {
		fmt.Printf("  aligned %-20s engines=%s\n",
			alignment.Aspect, strings.Join(alignment.Engines, ","))
	}
	for _, tension := range out.Synthesis.Tensions {
		fmt.Printf("  tension %-20s %s\n", tension.Aspect, tension.IntegrationHint)
	}

	if len(out.WitnessPrompts) > 0 {
		fmt.Println()
		for _, prompt := range out.WitnessPrompts {
			fmt.Printf("  ask [%s] %s\n", prompt.Inquiry, prompt.Text)
		}
	}
	return nil
}
