// Package workspace ties the per-property stores together. It owns the
// selection (property and scenario), fans out guarded loads when the
// selection changes, and recomputes the derived views on demand.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harrison/sitecheck/internal/checklist"
	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/guard"
	"github.com/harrison/sitecheck/internal/history"
	"github.com/harrison/sitecheck/internal/insight"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/overrides"
)

// CurrentFetcher returns the current assessment for a scenario (nil if none).
type CurrentFetcher interface {
	FetchConditionAssessment(ctx context.Context, propertyID string, scenario models.Scenario) (*models.ConditionAssessment, error)
}

// Saver records a new assessment. A nil result with a nil error is a failed
// save that the user should be told about.
type Saver interface {
	SaveConditionAssessment(ctx context.Context, propertyID string, draft models.ConditionAssessment) (*models.ConditionAssessment, error)
}

// Collaborator is everything the workspace needs from the assessment and
// checklist services.
type Collaborator interface {
	CurrentFetcher
	Saver
	history.Fetcher
	overrides.Fetcher
	checklist.Service
}

// Options configure a workspace. Zero values fall back to defaults.
type Options struct {
	HistoryLimit int
	Thresholds   *feasibility.Thresholds
	Attention    *insight.Attention
	Log          logger.Logger
}

// Workspace is bound to at most one property at a time.
type Workspace struct {
	collab    Collaborator
	log       logger.Logger
	limit     int
	extractor *feasibility.Extractor
	merger    *insight.Merger

	history   *history.Store
	checklist *checklist.Tracker

	currentGuard *guard.Guard

	mu         sync.RWMutex
	propertyID string
	scenario   models.Scenario
	overrides  *overrides.Registry
	capture    *models.PropertyCapture
	current    *models.ConditionAssessment
	currentErr string
}

// New creates an empty workspace over collab.
func New(collab Collaborator, opts Options) *Workspace {
	log := opts.Log
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	thresholds := feasibility.DefaultThresholds()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}
	attention := insight.DefaultAttention()
	if opts.Attention != nil {
		attention = *opts.Attention
	}

	return &Workspace{
		collab:       collab,
		log:          log,
		limit:        limit,
		extractor:    feasibility.NewExtractor(thresholds),
		merger:       insight.NewMerger(attention),
		history:      history.NewStore(collab, log),
		checklist:    checklist.NewTracker(collab, log),
		currentGuard: guard.New(),
		scenario:     models.ScenarioAll,
		overrides:    overrides.NewRegistry(collab, log),
	}
}

// SelectProperty binds the workspace to propertyID and reloads everything.
// Switching property drops the scenario registry and the capture; an empty
// id clears the workspace without fetching.
func (w *Workspace) SelectProperty(ctx context.Context, propertyID string) {
	w.mu.Lock()
	if propertyID != w.propertyID {
		w.overrides.Close()
		w.overrides = overrides.NewRegistry(w.collab, w.log)
		w.capture = nil
		w.current = nil
		w.currentErr = ""
	}
	w.propertyID = propertyID
	w.mu.Unlock()

	w.Refresh(ctx)
}

// SelectScenario changes the scenario filter and reloads the scenario-scoped
// queries. Unknown scenarios select "all".
func (w *Workspace) SelectScenario(ctx context.Context, scenario models.Scenario) {
	if !scenario.IsKnown() {
		scenario = models.ScenarioAll
	}
	w.mu.Lock()
	w.scenario = scenario
	w.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.loadHistory(ctx)
	}()
	go func() {
		defer wg.Done()
		w.LoadCurrent(ctx)
	}()
	wg.Wait()
}

// SetCapture attaches the capture result for the selected property. A capture
// for another property is rejected.
func (w *Workspace) SetCapture(c *models.PropertyCapture) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c != nil && c.Property.ID != "" && c.Property.ID != w.propertyID {
		return fmt.Errorf("capture is for property %s, workspace has %s", c.Property.ID, w.propertyID)
	}
	w.capture = c
	return nil
}

// Refresh reloads every store for the current selection concurrently and
// waits for all of them.
func (w *Workspace) Refresh(ctx context.Context) {
	w.mu.RLock()
	propertyID, registry := w.propertyID, w.overrides
	w.mu.RUnlock()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		w.loadHistory(ctx)
	}()
	go func() {
		defer wg.Done()
		registry.Load(ctx, propertyID, false)
	}()
	go func() {
		defer wg.Done()
		w.checklist.Load(ctx, propertyID)
	}()
	go func() {
		defer wg.Done()
		w.LoadCurrent(ctx)
	}()
	wg.Wait()
}

// selection returns the selected property and scenario.
func (w *Workspace) selection() (string, models.Scenario) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.propertyID, w.scenario
}

// loadHistory reloads the history for whatever is selected when the request
// is issued, so a reload racing a selection change cannot outlive it.
func (w *Workspace) loadHistory(ctx context.Context, opts ...history.LoadOption) {
	w.history.LoadSelection(ctx, w.selection, w.limit, opts...)
}

// LoadCurrent fetches the current assessment for the selected scenario.
func (w *Workspace) LoadCurrent(ctx context.Context) {
	var (
		propertyID string
		scenario   models.Scenario
	)
	token, reqCtx := w.currentGuard.BeginFunc(ctx, func() {
		propertyID, scenario = w.selection()
	})

	if propertyID == "" {
		w.currentGuard.Accept(token, func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.current = nil
			w.currentErr = ""
		})
		return
	}
	current, err := w.collab.FetchConditionAssessment(reqCtx, propertyID, scenario)

	accepted := w.currentGuard.Accept(token, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if err != nil {
			w.current = nil
			w.currentErr = fmt.Sprintf("fetch current assessment: %v", err)
			return
		}
		w.current = current.Clone()
		w.currentErr = ""
	})
	if accepted && err != nil {
		w.log.LogWarn(fmt.Sprintf("workspace: current assessment for %s failed: %v", propertyID, err))
	}
}

// SaveAssessment validates and records draft for the selected property. A
// draft without a scenario takes the selected one. On success the new
// assessment is placed in the scenario registry and the history and
// overrides reload silently; on failure nothing local changes.
//
// The reloads follow the selection as it is once the save returns. If the
// property changed while the save was in flight, the new property has
// already loaded itself and nothing is reloaded.
func (w *Workspace) SaveAssessment(ctx context.Context, draft models.ConditionAssessment) (*models.ConditionAssessment, error) {
	w.mu.RLock()
	propertyID, scenario, registry := w.propertyID, w.scenario, w.overrides
	w.mu.RUnlock()

	if propertyID == "" {
		return nil, errors.New("select a property before recording an assessment")
	}
	if draft.Scenario == "" {
		draft.Scenario = scenario
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("assessment is not valid: %w", err)
	}

	saved, err := w.collab.SaveConditionAssessment(ctx, propertyID, draft)
	if err != nil {
		w.log.LogWarn(fmt.Sprintf("workspace: save for %s failed: %v", propertyID, err))
		return nil, fmt.Errorf("could not save assessment: %w", err)
	}
	if saved == nil {
		return nil, errors.New("could not save assessment: the service returned no record")
	}

	if r, ok := w.log.(logger.AssessmentRecorder); ok {
		r.LogAssessmentRecorded(*saved)
	}

	w.mu.RLock()
	moved := w.propertyID != propertyID || w.overrides != registry
	w.mu.RUnlock()
	if moved {
		return saved.Clone(), nil
	}
	registry.Put(*saved)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		w.loadHistory(ctx, history.WithSilent())
	}()
	go func() {
		defer wg.Done()
		registry.Load(ctx, propertyID, true)
	}()
	go func() {
		defer wg.Done()
		w.LoadCurrent(ctx)
	}()
	wg.Wait()

	return saved.Clone(), nil
}

// UpdateChecklistItem changes one item's status.
func (w *Workspace) UpdateChecklistItem(ctx context.Context, itemID string, status models.ChecklistStatus) error {
	return w.checklist.UpdateStatus(ctx, itemID, status)
}

// SetBaseline selects the reference scenario for comparisons.
func (w *Workspace) SetBaseline(s models.Scenario) error {
	w.mu.RLock()
	registry := w.overrides
	w.mu.RUnlock()
	return registry.SetBaseline(s)
}

// Close invalidates every in-flight fetch.
func (w *Workspace) Close() {
	w.history.Close()
	w.checklist.Close()
	w.currentGuard.Invalidate()
	w.mu.RLock()
	w.overrides.Close()
	w.mu.RUnlock()
}
