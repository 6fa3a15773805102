package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/models"
)

// NewCompareCommand creates the 'sitecheck compare' command.
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <property-id>",
		Short: "Compare scenario assessments against a baseline scenario",
		Long: `Take the most recent assessment of every development scenario and
compare each one against the baseline scenario. The baseline defaults to
the most recently assessed scenario.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompare,
	}

	cmd.Flags().String("baseline", "", "Baseline scenario")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ws := e.workspace(cmd.Context(), args[0], models.ScenarioAll)
	defer ws.Close()

	if raw, _ := cmd.Flags().GetString("baseline"); raw != "" {
		baseline, ok := models.ParseScenario(raw)
		if !ok || baseline.IsAll() {
			return fmt.Errorf("unknown baseline scenario %q", raw)
		}
		if err := ws.SetBaseline(baseline); err != nil {
			return err
		}
	}

	views := ws.Views()
	if len(views.Errors) > 0 {
		return fmt.Errorf("load %s: %s", args[0], views.Errors[0])
	}

	output := cmd.OutOrStdout()
	renderScenarioComparisons(output, newPalette(output), views.Baseline, views.ScenarioComparisons)
	return nil
}
