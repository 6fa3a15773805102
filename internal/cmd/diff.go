package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDiffCommand creates the 'sitecheck diff' command.
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <property-id>",
		Short: "Compare the latest assessment with the previous one",
		Long: `Show how the newest assessment differs from the one before it: score
change, rating and risk trends, per-system score changes and the
recommended actions that were added or cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: runDiff,
	}

	cmd.Flags().String("scenario", "", "Compare within this scenario's history")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
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
	renderComparison(output, newPalette(output), views.Comparison)
	return nil
}
