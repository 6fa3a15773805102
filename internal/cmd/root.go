package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sitecheck.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecheck",
		Short: "Condition assessment history and scenario comparison",
		Long: `Sitecheck records building condition assessments for a property and
compares them over time and across development scenarios.

It tracks the due-diligence checklist for each property and merges the
inspector's findings with feasibility signals from a property capture
into one prioritised list of insights.

Configuration is loaded from .sitecheck/config.yaml if present.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .sitecheck/config.yaml)")
	cmd.PersistentFlags().String("db", "", "SQLite database path (default: $SITECHECK_HOME/sitecheck.db)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(NewRecordCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewDiffCommand())
	cmd.AddCommand(NewCompareCommand())
	cmd.AddCommand(NewChecklistCommand())
	cmd.AddCommand(NewCaptureCommand())
	cmd.AddCommand(NewInsightsCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}
