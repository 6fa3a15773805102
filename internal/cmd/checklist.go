package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/checklist"
	"github.com/harrison/sitecheck/internal/models"
)

// NewChecklistCommand creates the 'sitecheck checklist' parent command.
func NewChecklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Due-diligence checklist commands",
		Long: `Commands for viewing and updating a property's due-diligence checklist.

Items carry one of four statuses: pending, in_progress, completed and
not_applicable. Progress counts completed items against every item,
including those marked not applicable.`,
	}

	cmd.AddCommand(newChecklistProgressCommand())
	cmd.AddCommand(newChecklistSetCommand())
	cmd.AddCommand(newChecklistAddCommand())

	return cmd
}

func newChecklistProgressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <property-id>",
		Short: "Show checklist completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			renderProgress(output, p, "Checklist ("+scenario.Label()+")", views.Progress)
			if listItems, _ := cmd.Flags().GetBool("items"); listItems {
				items, err := e.store.FetchPropertyChecklist(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderChecklist(output, p, items)
			}
			return nil
		},
	}

	cmd.Flags().String("scenario", "", "Only count items for this scenario")
	cmd.Flags().Bool("items", false, "List every item after the summary")

	return cmd
}

func newChecklistSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <status>",
		Short: "Change the status of a checklist item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := models.ChecklistStatus(strings.ToLower(strings.TrimSpace(args[1])))
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q (valid: pending, in_progress, completed, not_applicable)", args[1])
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			updated, err := e.store.UpdateChecklistItem(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			if updated == nil {
				return fmt.Errorf("checklist item %s not found", args[0])
			}

			items, err := e.store.FetchPropertyChecklist(cmd.Context(), updated.PropertyID)
			if err != nil {
				return err
			}

			output := cmd.OutOrStdout()
			fmt.Fprintf(output, "%s: %s\n", updated.Title, updated.Status)
			renderProgress(output, newPalette(output), "Checklist", checklist.Compute(items))
			return nil
		},
	}
}

func newChecklistAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <property-id> <title>",
		Short: "Add an item to the checklist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := scenarioFlag(cmd)
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")
			priority, _ := cmd.Flags().GetString("priority")
			switch priority {
			case "low", "medium", "high", "critical":
			default:
				return fmt.Errorf("invalid priority %q (valid: low, medium, high, critical)", priority)
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			item, err := e.store.AddChecklistItem(cmd.Context(), models.ChecklistItem{
				PropertyID:          args[0],
				Title:               args[1],
				Category:            category,
				Status:              models.ChecklistPending,
				DevelopmentScenario: scenario,
				Priority:            priority,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.ID, item.Title)
			return nil
		},
	}

	cmd.Flags().String("category", "General", "Checklist category")
	cmd.Flags().String("priority", "medium", "Priority: low, medium, high, critical")
	cmd.Flags().String("scenario", "", "Scenario the item applies to (default: all)")

	return cmd
}
