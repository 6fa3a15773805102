package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/fileutil"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/parser"
)

// NewRecordCommand creates the 'sitecheck record' command.
func NewRecordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <property-id> <report-file|report-dir>",
		Short: "Record a condition assessment from an inspection report",
		Long: `Import an inspection report (Markdown or YAML) as a draft, validate it
and record it against the property.

Markdown reports carry overall fields in YAML frontmatter and one
"## System: <name>" section per building system. A scenario in the report
is overridden by --scenario.

When given a directory, every report directly inside it is recorded in
path order. --recursive also descends into subdirectories (hidden ones and
those named by --exclude are skipped) and --match keeps only reports whose
base name matches the regular expression. All reports are parsed and
validated before any is saved.`,
		Args: cobra.ExactArgs(2),
		RunE: runRecord,
	}

	cmd.Flags().String("scenario", "", "Development scenario the assessment applies to")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories of a report directory")
	cmd.Flags().String("match", "", "Regular expression a report's base name must match")
	cmd.Flags().StringSlice("exclude", nil, "Directory names to skip when recursing")
	cmd.Flags().Int("max-depth", 0, "Directory levels to scan when recursing (0 = unlimited)")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	propertyID, reportPath := args[0], args[1]
	output := cmd.OutOrStdout()

	paths, err := reportPaths(cmd, reportPath)
	if err != nil {
		return err
	}

	drafts := make([]*models.ConditionAssessment, 0, len(paths))
	for _, path := range paths {
		draft, err := parser.ParseFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if cmd.Flags().Changed("scenario") {
			scenario, err := scenarioFlag(cmd)
			if err != nil {
				return err
			}
			draft.Scenario = scenario
		}
		if draft.PropertyID != "" && draft.PropertyID != propertyID {
			return fmt.Errorf("report %s is for property %s, not %s", path, draft.PropertyID, propertyID)
		}
		if len(paths) > 1 {
			if err := draft.Validate(); err != nil {
				return fmt.Errorf("%s: assessment is not valid: %w", path, err)
			}
		}
		drafts = append(drafts, draft)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	p := newPalette(output)
	for _, draft := range drafts {
		ws := e.workspace(ctx, propertyID, draft.Scenario)
		saved, err := ws.SaveAssessment(ctx, *draft)
		if err != nil {
			ws.Close()
			return err
		}
		renderAssessment(output, p, *saved)
		renderComparison(output, p, ws.Views().Comparison)
		ws.Close()
	}
	return nil
}

// reportPaths expands a directory argument into the reports it holds.
func reportPaths(cmd *cobra.Command, path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	opts := fileutil.ScanOptions{}
	opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	opts.Pattern, _ = cmd.Flags().GetString("match")
	opts.ExcludeDirs, _ = cmd.Flags().GetStringSlice("exclude")
	opts.MaxDepth, _ = cmd.Flags().GetInt("max-depth")

	result, err := fileutil.ScanReports(path, opts)
	if err != nil {
		return nil, err
	}
	for _, scanErr := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", scanErr)
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no reports found in %s", path)
	}
	return result.Files, nil
}
