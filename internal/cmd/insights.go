package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInsightsCommand creates the 'sitecheck insights' command.
func NewInsightsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights <property-id>",
		Short: "Show prioritised insights for a scenario",
		Long: `Merge the scenario's current assessment (falling back to the general
assessment) with feasibility signals from the property capture. Insights
are ordered critical, warning, info, positive.`,
		Args: cobra.ExactArgs(1),
		RunE: runInsights,
	}

	cmd.Flags().String("scenario", "", "Scenario to assess")

	return cmd
}

func runInsights(cmd *cobra.Command, args []string) error {
	scenario, err := scenarioFlag(cmd)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ws := e.workspace(cmd.Context(), args[0], scenario)
	defer ws.Close()

	views := ws.Views()
	if len(views.Errors) > 0 {
		return fmt.Errorf("load %s: %s", args[0], views.Errors[0])
	}

	output := cmd.OutOrStdout()
	p := newPalette(output)
	if views.Current != nil {
		renderAssessment(output, p, *views.Current)
	}
	renderInsights(output, p, views.Insights)
	renderSignals(output, p, views.Signals)
	return nil
}
