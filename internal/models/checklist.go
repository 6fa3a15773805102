package models

import "errors"

// ChecklistStatus is the progress state of a due-diligence checklist item.
type ChecklistStatus string

const (
	ChecklistPending       ChecklistStatus = "pending"
	ChecklistInProgress    ChecklistStatus = "in_progress"
	ChecklistCompleted     ChecklistStatus = "completed"
	ChecklistNotApplicable ChecklistStatus = "not_applicable"
)

// IsValid returns true for the four recognised statuses.
func (s ChecklistStatus) IsValid() bool {
	switch s {
	case ChecklistPending, ChecklistInProgress, ChecklistCompleted, ChecklistNotApplicable:
		return true
	}
	return false
}

// ChecklistItem is a single due-diligence task owned by the checklist service.
type ChecklistItem struct {
	ID                  string          `json:"id" yaml:"id"`
	PropertyID          string          `json:"propertyId" yaml:"property_id"`
	Category            string          `json:"category" yaml:"category"`
	Title               string          `json:"title" yaml:"title"`
	Status              ChecklistStatus `json:"status" yaml:"status"`
	DevelopmentScenario Scenario        `json:"developmentScenario" yaml:"development_scenario"`
	Priority            string          `json:"priority" yaml:"priority"` // low, medium, high, critical
}

// Validate checks if the item has all required fields.
func (c *ChecklistItem) Validate() error {
	if c.PropertyID == "" {
		return errors.New("checklist item property id is required")
	}
	if c.Title == "" {
		return errors.New("checklist item title is required")
	}
	if c.Category == "" {
		return errors.New("checklist item category is required")
	}
	return nil
}
