package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/parser"
)

// NewCaptureCommand creates the 'sitecheck capture' command.
func NewCaptureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "capture <capture-file>",
		Short: "Import a property capture",
		Long: `Import a YAML property capture: the property context (zoning, site area,
amenities, heritage listing) and a quick analysis per development scenario.
The capture replaces any earlier capture for the same property and feeds
the feasibility signals shown by 'sitecheck insights'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := parser.ParseCaptureFile(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.SaveCapture(cmd.Context(), *capture); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Captured %s with %d scenario analyses\n", capture.Property.ID, len(capture.QuickAnalysis))
			return nil
		},
	}
}
