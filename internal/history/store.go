// Package history holds the newest-first window of inspection assessments for
// the active property and scenario filter.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/harrison/sitecheck/internal/guard"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
)

// DefaultLimit is the number of assessments fetched when no limit is given.
const DefaultLimit = 10

// Fetcher is the collaborator operation the store loads from.
type Fetcher interface {
	FetchConditionAssessmentHistory(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error)
}

// State is a point-in-time copy of the store.
type State struct {
	PropertyID string
	Scenario   models.Scenario
	Items      []models.ConditionAssessment // newest first
	Loading    bool
	Err        string
}

// LoadOption tweaks a single Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	silent bool
}

// WithSilent reloads without toggling the loading flag. Used right after a
// save so the view doesn't flicker for a write the user just made.
func WithSilent() LoadOption {
	return func(o *loadOptions) {
		o.silent = true
	}
}

// Store owns the assessment history. It is replaced wholesale on every
// successful fetch and never partially mutated.
type Store struct {
	fetcher Fetcher
	guard   *guard.Guard
	log     logger.Logger

	mu    sync.RWMutex
	state State
}

// NewStore creates an empty store. A nil log discards messages.
func NewStore(fetcher Fetcher, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		fetcher: fetcher,
		guard:   guard.New(),
		log:     log,
		state:   State{Scenario: models.ScenarioAll},
	}
}

// Selection reports the property and scenario a load is for.
type Selection func() (propertyID string, scenario models.Scenario)

// Load fetches the history for propertyID filtered to scenario.
//
// An empty propertyID resets the store synchronously and issues no fetch.
// On failure the history is cleared and the error recorded; stale results
// from superseded calls are dropped without touching state.
// Load blocks until its own fetch resolves; callers that need concurrency
// run it on a goroutine.
func (s *Store) Load(ctx context.Context, propertyID string, scenario models.Scenario, limit int, opts ...LoadOption) {
	s.LoadSelection(ctx, func() (string, models.Scenario) { return propertyID, scenario }, limit, opts...)
}

// LoadSelection is Load with the property and scenario read from sel at the
// moment the request is issued. Owners whose selection can change while a
// load is being set up use it so the newest request always carries the
// newest selection.
func (s *Store) LoadSelection(ctx context.Context, sel Selection, limit int, opts ...LoadOption) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		propertyID string
		scenario   models.Scenario
	)
	token, reqCtx := s.guard.BeginFunc(ctx, func() {
		propertyID, scenario = sel()
	})
	if scenario == "" {
		scenario = models.ScenarioAll
	}

	if propertyID == "" {
		s.guard.Accept(token, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.state = State{Scenario: scenario}
		})
		return
	}

	s.guard.Update(token, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.PropertyID = propertyID
		s.state.Scenario = scenario
		if !o.silent {
			s.state.Loading = true
		}
	})

	items, err := s.fetch(reqCtx, propertyID, scenario, limit)

	accepted := s.guard.Accept(token, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.state.Loading = false
		if err != nil {
			s.state.Items = nil
			s.state.Err = err.Error()
			return
		}
		if len(items) > limit {
			items = items[:limit]
		}
		s.state.Items = items
		s.state.Err = ""
	})

	switch {
	case !accepted:
		s.log.LogDebug(fmt.Sprintf("history: discarded stale result for %s/%s", propertyID, scenario))
	case err != nil:
		s.log.LogWarn(fmt.Sprintf("history: load %s/%s failed: %v", propertyID, scenario, err))
	}
}

func (s *Store) fetch(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("no history source configured")
	}
	items, err := s.fetcher.FetchConditionAssessmentHistory(ctx, propertyID, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return items, nil
}

// Latest returns a copy of the newest assessment, or nil.
func (s *Store) Latest() *models.ConditionAssessment {
	return s.at(0)
}

// Previous returns a copy of the second newest assessment, or nil.
func (s *Store) Previous() *models.ConditionAssessment {
	return s.at(1)
}

func (s *Store) at(i int) *models.ConditionAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i >= len(s.state.Items) {
		return nil
	}
	return s.state.Items[i].Clone()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.Items = models.CloneAssessments(s.state.Items)
	return out
}

// Close invalidates any in-flight fetch. Results arriving afterwards are discarded.
func (s *Store) Close() {
	s.guard.Invalidate()
	s.mu.Lock()
	s.state.Loading = false
	s.mu.Unlock()
}
