package checklist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harrison/sitecheck/internal/guard"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
)

// Service is the checklist collaborator. UpdateChecklistItem returning a nil
// item with a nil error is a recoverable failure, not an exception.
type Service interface {
	FetchPropertyChecklist(ctx context.Context, propertyID string) ([]models.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, itemID string, status models.ChecklistStatus) (*models.ChecklistItem, error)
}

// Tracker holds the checklist for the active property along with the
// unfiltered summary computed when the list was loaded.
type Tracker struct {
	service Service
	guard   *guard.Guard
	log     logger.Logger

	mu         sync.RWMutex
	propertyID string
	items      []models.ChecklistItem
	summary    *ProgressSummary
	loading    bool
	err        string
}

// NewTracker creates an empty tracker. A nil log discards messages.
func NewTracker(service Service, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracker{
		service: service,
		guard:   guard.New(),
		log:     log,
	}
}

// Load fetches the checklist for propertyID. An empty propertyID resets the
// tracker synchronously. Failures clear the items and record the error.
func (t *Tracker) Load(ctx context.Context, propertyID string) {
	if propertyID == "" {
		t.guard.Invalidate()
		t.mu.Lock()
		t.propertyID = ""
		t.items = nil
		t.summary = nil
		t.loading = false
		t.err = ""
		t.mu.Unlock()
		return
	}

	token, reqCtx := t.guard.Begin(ctx)
	t.guard.Update(token, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.propertyID = propertyID
		t.loading = true
	})

	var (
		items []models.ChecklistItem
		err   error
	)
	if t.service == nil {
		err = errors.New("no checklist service configured")
	} else {
		items, err = t.service.FetchPropertyChecklist(reqCtx, propertyID)
	}

	accepted := t.guard.Accept(token, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.loading = false
		if err != nil {
			t.items = nil
			t.summary = nil
			t.err = fmt.Sprintf("fetch checklist: %v", err)
			return
		}
		t.items = items
		summary := Compute(items)
		t.summary = &summary
		t.err = ""
	})

	switch {
	case !accepted:
		t.log.LogDebug(fmt.Sprintf("checklist: discarded stale result for %s", propertyID))
	case err != nil:
		t.log.LogWarn(fmt.Sprintf("checklist: load %s failed: %v", propertyID, err))
	}
}

// UpdateStatus changes an item's status through the service. On failure the
// local items are left untouched and a user-facing message is returned.
func (t *Tracker) UpdateStatus(ctx context.Context, itemID string, status models.ChecklistStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid checklist status %q", status)
	}
	if t.service == nil {
		return errors.New("no checklist service configured")
	}

	updated, err := t.service.UpdateChecklistItem(ctx, itemID, status)
	if err != nil {
		t.log.LogWarn(fmt.Sprintf("checklist: update %s failed: %v", itemID, err))
		return fmt.Errorf("could not update checklist item: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("could not update checklist item %s", itemID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].ID == updated.ID {
			t.items[i] = *updated
			summary := Compute(t.items)
			t.summary = &summary
			break
		}
	}
	return nil
}

// Items returns a copy of the loaded items.
func (t *Tracker) Items() []models.ChecklistItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.ChecklistItem(nil), t.items...)
}

// Summary aggregates the loaded items for filter, reusing the cached
// unfiltered summary for the "all" filter.
func (t *Tracker) Summary(filter models.Scenario) ProgressSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Summarize(t.items, filter, t.summary)
}

// Err returns the last load error, or "".
func (t *Tracker) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Loading reports whether a visible load is in flight.
func (t *Tracker) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loading
}

// Close invalidates any in-flight fetch.
func (t *Tracker) Close() {
	t.guard.Invalidate()
	t.mu.Lock()
	t.loading = false
	t.mu.Unlock()
}
