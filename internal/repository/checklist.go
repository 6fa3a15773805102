package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harrison/sitecheck/internal/models"
)

// AddChecklistItem stores a new checklist item. Missing status, scenario and
// priority are defaulted.
func (s *Store) AddChecklistItem(ctx context.Context, item models.ChecklistItem) (*models.ChecklistItem, error) {
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checklist item: %w", err)
	}

	record := item
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if !record.Status.IsValid() {
		record.Status = models.ChecklistPending
	}
	if record.DevelopmentScenario == "" {
		record.DevelopmentScenario = models.ScenarioAll
	}
	if record.Priority == "" {
		record.Priority = "medium"
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO checklist_items (id, property_id, category, title, status, development_scenario, priority, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.PropertyID, record.Category, record.Title, string(record.Status),
		string(record.DevelopmentScenario), record.Priority, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checklist item: %w", err)
	}
	return &record, nil
}

// FetchPropertyChecklist returns every checklist item for the property in
// insertion order.
func (s *Store) FetchPropertyChecklist(ctx context.Context, propertyID string) ([]models.ChecklistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, property_id, category, title, status, development_scenario, priority
FROM checklist_items
WHERE property_id = ?
ORDER BY created_at ASC, rowid ASC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query checklist: %w", err)
	}
	defer rows.Close()

	items := []models.ChecklistItem{}
	for rows.Next() {
		var item models.ChecklistItem
		var status, scenario string
		if err := rows.Scan(&item.ID, &item.PropertyID, &item.Category, &item.Title, &status, &scenario, &item.Priority); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		item.Status = models.ChecklistStatus(status)
		item.DevelopmentScenario = models.Scenario(scenario)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist: %w", err)
	}
	return items, nil
}

// UpdateChecklistItem sets the status of one item and returns the updated
// item. An unknown item id yields a nil item and a nil error.
func (s *Store) UpdateChecklistItem(ctx context.Context, itemID string, status models.ChecklistStatus) (*models.ChecklistItem, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid checklist status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE checklist_items SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now(), itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update checklist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update checklist item: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	var item models.ChecklistItem
	var st, scenario string
	err = s.db.QueryRowContext(ctx, `
SELECT id, property_id, category, title, status, development_scenario, priority
FROM checklist_items WHERE id = ?`, itemID).
		Scan(&item.ID, &item.PropertyID, &item.Category, &item.Title, &st, &scenario, &item.Priority)
	if err != nil {
		return nil, fmt.Errorf("reload checklist item: %w", err)
	}
	item.Status = models.ChecklistStatus(st)
	item.DevelopmentScenario = models.Scenario(scenario)
	return &item, nil
}
