package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/filelock"
	"github.com/harrison/sitecheck/internal/models"
)

// NewExportCommand creates the 'sitecheck export' command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <property-id> <output-file>",
		Short: "Write every derived view for a property as JSON",
		Long: `Write a JSON snapshot of the property's views: current assessment,
history, latest-vs-previous comparison, scenario comparison, checklist
progress, feasibility signals and insights.

The file is written atomically under an exclusive lock (<output-file>.lock)
so concurrent exports never interleave.`,
		Args: cobra.ExactArgs(2),
		RunE: runExport,
	}

	cmd.Flags().String("scenario", "", "Scenario to export")
	cmd.Flags().String("baseline", "", "Baseline scenario for the scenario comparison")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	propertyID, outputPath := args[0], args[1]

	scenario, err := scenarioFlag(cmd)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ws := e.workspace(cmd.Context(), propertyID, scenario)
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
		return fmt.Errorf("load %s: %s", propertyID, views.Errors[0])
	}

	if err := filelock.WriteJSON(outputPath, views); err != nil {
		return fmt.Errorf("export views: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d assessments, %d insights) to %s\n",
		propertyID, len(views.History), len(views.Insights), outputPath)
	return nil
}
