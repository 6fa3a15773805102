package cmd

import (
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'sitecheck history' command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <property-id>",
		Short: "List recorded assessments, newest first",
		Long: `List the assessment history for a property. With --scenario only that
scenario's assessments are shown (up to --limit); without it every
assessment for the property is listed.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().String("scenario", "", "Only show assessments for this scenario")
	cmd.Flags().Int("limit", 0, "Maximum assessments for a single scenario (default from config)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	scenario, err := scenarioFlag(cmd)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := e.store.FetchConditionAssessmentHistory(cmd.Context(), args[0], scenario, e.cfg.HistoryLimit)
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	renderHistory(output, newPalette(output), scenario, items)
	return nil
}
