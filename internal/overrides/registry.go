// Package overrides keeps one manual assessment per development scenario and
// compares each of them with a selectable baseline scenario.
//
// A Registry belongs to a single property. Create a new one when the active
// property changes rather than sharing one across properties.
package overrides

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harrison/sitecheck/internal/diff"
	"github.com/harrison/sitecheck/internal/guard"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
)

// ErrUnknownScenario is returned when selecting a baseline that has no entry.
var ErrUnknownScenario = errors.New("scenario has no assessment in the registry")

// Fetcher is the collaborator operation the registry loads from.
type Fetcher interface {
	FetchScenarioAssessments(ctx context.Context, propertyID string) ([]models.ConditionAssessment, error)
}

// State is a point-in-time copy of the registry. Comparisons are computed
// from the same Entries and Baseline.
type State struct {
	PropertyID  string
	Entries     []models.ConditionAssessment // registry order
	Baseline    *models.Scenario
	Comparisons []diff.BaselineComparison
	Loading     bool
	Err         string
}

// Registry maps scenario to its most recent assessment. Entries keep the
// order in which their scenario was first seen.
type Registry struct {
	fetcher Fetcher
	guard   *guard.Guard
	log     logger.Logger

	mu         sync.RWMutex
	propertyID string
	order      []models.Scenario
	entries    map[models.Scenario]models.ConditionAssessment
	baseline   *models.Scenario
	loading    bool
	err        string
}

// NewRegistry creates an empty registry. A nil log discards messages.
func NewRegistry(fetcher Fetcher, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Registry{
		fetcher: fetcher,
		guard:   guard.New(),
		log:     log,
		entries: make(map[models.Scenario]models.ConditionAssessment),
	}
}

// Put adds or replaces the entry for a.Scenario. Assessments for the "all"
// sentinel belong to the history only and are rejected (false).
// A replaced scenario keeps its position.
func (r *Registry) Put(a models.ConditionAssessment) bool {
	if a.Scenario.IsAll() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[a.Scenario]; !exists {
		r.order = append(r.order, a.Scenario)
	}
	r.entries[a.Scenario] = *a.Clone()
	r.reconcileBaselineLocked()
	return true
}

// Replace swaps the whole registry for list, which is expected newest first:
// the first assessment seen for a scenario wins.
func (r *Registry) Replace(list []models.ConditionAssessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceLocked(list)
}

func (r *Registry) replaceLocked(list []models.ConditionAssessment) {
	r.order = nil
	r.entries = make(map[models.Scenario]models.ConditionAssessment, len(list))
	for i := range list {
		a := list[i]
		if a.Scenario.IsAll() {
			continue
		}
		if _, exists := r.entries[a.Scenario]; exists {
			continue
		}
		r.order = append(r.order, a.Scenario)
		r.entries[a.Scenario] = *a.Clone()
	}
	r.reconcileBaselineLocked()
}

// reconcileBaselineLocked applies the baseline rule: keep a present
// selection, otherwise fall back to the first entry, or nil when empty.
func (r *Registry) reconcileBaselineLocked() {
	if r.baseline != nil {
		if _, ok := r.entries[*r.baseline]; ok {
			return
		}
	}
	if len(r.order) == 0 {
		r.baseline = nil
		return
	}
	first := r.order[0]
	r.baseline = &first
}

// Load fetches every scenario assessment for propertyID and replaces the
// registry. An empty propertyID clears it synchronously without fetching.
// On failure entries are cleared and the error recorded.
func (r *Registry) Load(ctx context.Context, propertyID string, silent bool) {
	if propertyID == "" {
		r.guard.Invalidate()
		r.mu.Lock()
		r.propertyID = ""
		r.loading = false
		r.err = ""
		r.replaceLocked(nil)
		r.mu.Unlock()
		return
	}

	token, reqCtx := r.guard.Begin(ctx)
	r.guard.Update(token, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.propertyID = propertyID
		if !silent {
			r.loading = true
		}
	})

	var (
		list []models.ConditionAssessment
		err  error
	)
	if r.fetcher == nil {
		err = errors.New("no scenario assessment source configured")
	} else {
		list, err = r.fetcher.FetchScenarioAssessments(reqCtx, propertyID)
	}

	accepted := r.guard.Accept(token, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.loading = false
		if err != nil {
			r.err = fmt.Sprintf("fetch scenario assessments: %v", err)
			r.replaceLocked(nil)
			return
		}
		r.err = ""
		r.replaceLocked(list)
	})

	switch {
	case !accepted:
		r.log.LogDebug(fmt.Sprintf("overrides: discarded stale result for %s", propertyID))
	case err != nil:
		r.log.LogWarn(fmt.Sprintf("overrides: load %s failed: %v", propertyID, err))
	}
}

// SetBaseline selects the reference scenario. It must be present.
func (r *Registry) SetBaseline(s models.Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[s]; !ok {
		return fmt.Errorf("set baseline %q: %w", s, ErrUnknownScenario)
	}
	r.baseline = &s
	return nil
}

// Baseline returns the selected baseline scenario, or nil when empty.
func (r *Registry) Baseline() *models.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.baseline == nil {
		return nil
	}
	s := *r.baseline
	return &s
}

// Get returns a copy of the entry for s.
func (r *Registry) Get(s models.Scenario) (*models.ConditionAssessment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.entries[s]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// Len returns the number of scenarios in the registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Entries returns copies of all entries in registry order.
func (r *Registry) Entries() []models.ConditionAssessment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entriesLocked()
}

func (r *Registry) entriesLocked() []models.ConditionAssessment {
	out := make([]models.ConditionAssessment, 0, len(r.order))
	for _, s := range r.order {
		a := r.entries[s]
		out = append(out, *a.Clone())
	}
	return out
}

// ComparisonEntries compares every non-baseline entry against the baseline,
// in registry order. Returns nil when there is no baseline.
func (r *Registry) ComparisonEntries() []diff.BaselineComparison {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.comparisonsLocked()
}

func (r *Registry) comparisonsLocked() []diff.BaselineComparison {
	if r.baseline == nil {
		return nil
	}
	base, ok := r.entries[*r.baseline]
	if !ok {
		return nil
	}

	out := make([]diff.BaselineComparison, 0, len(r.order))
	for _, s := range r.order {
		if s == *r.baseline {
			continue
		}
		entry := r.entries[s]
		out = append(out, diff.AgainstBaseline(&entry, &base))
	}
	return out
}

// Snapshot returns a deep copy of the registry state.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := State{
		PropertyID:  r.propertyID,
		Entries:     r.entriesLocked(),
		Comparisons: r.comparisonsLocked(),
		Loading:     r.loading,
		Err:         r.err,
	}
	if r.baseline != nil {
		s := *r.baseline
		state.Baseline = &s
	}
	return state
}

// Close invalidates any in-flight fetch.
func (r *Registry) Close() {
	r.guard.Invalidate()
	r.mu.Lock()
	r.loading = false
	r.mu.Unlock()
}
