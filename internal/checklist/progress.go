// Package checklist reduces due-diligence checklist items into progress
// counts and keeps a guarded copy of a property's checklist.
package checklist

import (
	"math"

	"github.com/harrison/sitecheck/internal/models"
)

// StatusCounts is the four-way status breakdown.
type StatusCounts struct {
	Completed     int `json:"completed"`
	InProgress    int `json:"inProgress"`
	Pending       int `json:"pending"`
	NotApplicable int `json:"notApplicable"`
}

// Total returns the sum of all buckets.
func (c StatusCounts) Total() int {
	return c.Completed + c.InProgress + c.Pending + c.NotApplicable
}

func (c *StatusCounts) add(status models.ChecklistStatus) {
	switch status {
	case models.ChecklistCompleted:
		c.Completed++
	case models.ChecklistInProgress:
		c.InProgress++
	case models.ChecklistNotApplicable:
		c.NotApplicable++
	default:
		// unknown or missing statuses count as pending
		c.Pending++
	}
}

// ProgressSummary aggregates a checklist.
type ProgressSummary struct {
	StatusCounts
	Total                int                     `json:"total"`
	CompletionPercentage int                     `json:"completionPercentage"`
	ByCategoryStatus     map[string]StatusCounts `json:"byCategoryStatus"`
	Categories           []string                `json:"categories"` // first-seen order
}

// Summarize aggregates items for filter.
//
// For the "all" filter a non-nil cached summary is returned as-is, so totals
// stay consistent with what the checklist service computed. A specific
// scenario filter always recomputes from the matching items.
func Summarize(items []models.ChecklistItem, filter models.Scenario, cached *ProgressSummary) ProgressSummary {
	if filter.IsAll() {
		if cached != nil {
			return cached.clone()
		}
		return Compute(items)
	}

	filtered := make([]models.ChecklistItem, 0, len(items))
	for _, item := range items {
		if item.DevelopmentScenario == filter {
			filtered = append(filtered, item)
		}
	}
	return Compute(filtered)
}

// Compute aggregates every item without filtering.
func Compute(items []models.ChecklistItem) ProgressSummary {
	summary := ProgressSummary{
		ByCategoryStatus: make(map[string]StatusCounts),
		Categories:       []string{},
	}

	for _, item := range items {
		summary.StatusCounts.add(item.Status)

		counts, seen := summary.ByCategoryStatus[item.Category]
		if !seen {
			summary.Categories = append(summary.Categories, item.Category)
		}
		counts.add(item.Status)
		summary.ByCategoryStatus[item.Category] = counts
	}

	summary.Total = len(items)
	summary.CompletionPercentage = CompletionPercentage(summary.Completed, summary.Total)
	return summary
}

// CompletionPercentage returns round(completed/total*100), or 0 for an empty list.
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (p *ProgressSummary) clone() ProgressSummary {
	out := *p
	out.ByCategoryStatus = make(map[string]StatusCounts, len(p.ByCategoryStatus))
	for k, v := range p.ByCategoryStatus {
		out.ByCategoryStatus[k] = v
	}
	out.Categories = append([]string(nil), p.Categories...)
	return out
}
