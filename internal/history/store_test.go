package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sitecheck/internal/models"
)

// stubFetcher returns canned history and counts calls.
type stubFetcher struct {
	mu     sync.Mutex
	items  []models.ConditionAssessment
	err    error
	calls  int
	limits []int
}

func (f *stubFetcher) FetchConditionAssessmentHistory(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return models.CloneAssessments(f.items), nil
}

// gatedFetcher blocks each call until the test releases it, so arrival order
// can be controlled independently of issue order.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[models.Scenario]chan struct{}
	results map[models.Scenario][]models.ConditionAssessment
	started chan models.Scenario
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   make(map[models.Scenario]chan struct{}),
		results: make(map[models.Scenario][]models.ConditionAssessment),
		started: make(chan models.Scenario, 10),
	}
}

func (f *gatedFetcher) gate(s models.Scenario) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[s]
	if !ok {
		ch = make(chan struct{})
		f.gates[s] = ch
	}
	return ch
}

func (f *gatedFetcher) resetGate(s models.Scenario) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[s] = make(chan struct{})
}

func (f *gatedFetcher) FetchConditionAssessmentHistory(ctx context.Context, propertyID string, scenario models.Scenario, limit int) ([]models.ConditionAssessment, error) {
	gate := f.gate(scenario)
	f.started <- scenario
	<-gate
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.CloneAssessments(f.results[scenario]), nil
}

func assessment(scenario models.Scenario, score int, rating models.Rating, risk models.RiskLevel) models.ConditionAssessment {
	recorded := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return models.ConditionAssessment{
		PropertyID:    "prop-1",
		Scenario:      scenario,
		OverallScore:  score,
		OverallRating: rating,
		RiskLevel:     risk,
		RecordedAt:    &recorded,
	}
}

func TestStore_LoadReplacesHistory(t *testing.T) {
	fetcher := &stubFetcher{items: []models.ConditionAssessment{
		assessment(models.ScenarioAll, 70, models.RatingB, models.RiskModerate),
		assessment(models.ScenarioAll, 55, models.RatingC, models.RiskElevated),
	}}
	store := NewStore(fetcher, nil)

	store.Load(context.Background(), "prop-1", models.ScenarioAll, 0)

	state := store.Snapshot()
	require.Len(t, state.Items, 2)
	assert.Equal(t, "prop-1", state.PropertyID)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Err)
	assert.Equal(t, []int{DefaultLimit}, fetcher.limits)

	require.NotNil(t, store.Latest())
	assert.Equal(t, 70, store.Latest().OverallScore)
	require.NotNil(t, store.Previous())
	assert.Equal(t, 55, store.Previous().OverallScore)
}

func TestStore_LatestAndPreviousMissing(t *testing.T) {
	store := NewStore(&stubFetcher{}, nil)
	assert.Nil(t, store.Latest())
	assert.Nil(t, store.Previous())

	store = NewStore(&stubFetcher{items: []models.ConditionAssessment{
		assessment(models.ScenarioAll, 80, models.RatingA, models.RiskLow),
	}}, nil)
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 5)
	assert.NotNil(t, store.Latest())
	assert.Nil(t, store.Previous())
}

func TestStore_TruncatesToLimit(t *testing.T) {
	var items []models.ConditionAssessment
	for i := 0; i < 5; i++ {
		items = append(items, assessment(models.ScenarioAll, 50+i, models.RatingC, models.RiskModerate))
	}
	store := NewStore(&stubFetcher{items: items}, nil)

	store.Load(context.Background(), "prop-1", models.ScenarioAll, 3)

	assert.Len(t, store.Snapshot().Items, 3)
}

func TestStore_FailureClearsHistory(t *testing.T) {
	fetcher := &stubFetcher{items: []models.ConditionAssessment{
		assessment(models.ScenarioAll, 70, models.RatingB, models.RiskModerate),
	}}
	store := NewStore(fetcher, nil)
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)
	require.Len(t, store.Snapshot().Items, 1)

	fetcher.err = errors.New("connection refused")
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)

	state := store.Snapshot()
	assert.Empty(t, state.Items)
	assert.Contains(t, state.Err, "connection refused")
	assert.Nil(t, store.Latest())
}

func TestStore_EmptyPropertyResetsWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{items: []models.ConditionAssessment{
		assessment(models.ScenarioAll, 70, models.RatingB, models.RiskModerate),
	}}
	store := NewStore(fetcher, nil)
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)
	require.Equal(t, 1, fetcher.calls)

	store.Load(context.Background(), "", models.ScenarioAll, 10)

	state := store.Snapshot()
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, state.Items)
	assert.Empty(t, state.PropertyID)
	assert.Empty(t, state.Err)
	assert.False(t, state.Loading)
}

func TestStore_LastIssuedWinsRegardlessOfArrival(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.results[models.ScenarioRawLand] = []models.ConditionAssessment{
		assessment(models.ScenarioRawLand, 40, models.RatingD, models.RiskHigh),
	}
	fetcher.results[models.ScenarioRenovation] = []models.ConditionAssessment{
		assessment(models.ScenarioRenovation, 90, models.RatingA, models.RiskLow),
	}
	store := NewStore(fetcher, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Load(context.Background(), "prop-1", models.ScenarioRawLand, 10)
	}()
	require.Equal(t, models.ScenarioRawLand, <-fetcher.started)

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Load(context.Background(), "prop-1", models.ScenarioRenovation, 10)
	}()
	require.Equal(t, models.ScenarioRenovation, <-fetcher.started)

	// B (renovation) resolves first, then A (raw land) arrives late
	close(fetcher.gate(models.ScenarioRenovation))
	time.Sleep(10 * time.Millisecond)
	close(fetcher.gate(models.ScenarioRawLand))
	wg.Wait()

	latest := store.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, models.ScenarioRenovation, latest.Scenario)
	assert.Equal(t, 90, latest.OverallScore)
	assert.False(t, store.Snapshot().Loading)
}

func TestStore_SilentLoadKeepsLoadingFlagOff(t *testing.T) {
	fetcher := newGatedFetcher()
	store := NewStore(fetcher, nil)

	done := make(chan struct{})
	go func() {
		store.Load(context.Background(), "prop-1", models.ScenarioAll, 10, WithSilent())
		close(done)
	}()
	<-fetcher.started
	assert.False(t, store.Snapshot().Loading)

	close(fetcher.gate(models.ScenarioAll))
	<-done

	done = make(chan struct{})
	fetcher.resetGate(models.ScenarioAll)
	go func() {
		store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)
		close(done)
	}()
	<-fetcher.started
	assert.True(t, store.Snapshot().Loading)
	close(fetcher.gate(models.ScenarioAll))
	<-done
	assert.False(t, store.Snapshot().Loading)
}

func TestStore_CloseDiscardsInFlight(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.results[models.ScenarioAll] = []models.ConditionAssessment{
		assessment(models.ScenarioAll, 70, models.RatingB, models.RiskModerate),
	}
	store := NewStore(fetcher, nil)

	done := make(chan struct{})
	go func() {
		store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)
		close(done)
	}()
	<-fetcher.started
	store.Close()
	close(fetcher.gate(models.ScenarioAll))
	<-done

	assert.Nil(t, store.Latest())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	store := NewStore(&stubFetcher{items: []models.ConditionAssessment{
		{PropertyID: "prop-1", Systems: []models.SystemAssessment{{Name: "Roof", Score: 60}}},
	}}, nil)
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)

	snap := store.Snapshot()
	snap.Items[0].Systems[0].Score = 1

	assert.Equal(t, 60, store.Latest().Systems[0].Score)
}

func TestStore_LoadSelectionReadsSelectionWhenIssued(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.results[models.ScenarioRawLand] = []models.ConditionAssessment{
		assessment(models.ScenarioRawLand, 40, models.RatingD, models.RiskHigh),
	}
	fetcher.results[models.ScenarioRenovation] = []models.ConditionAssessment{
		assessment(models.ScenarioRenovation, 90, models.RatingA, models.RiskLow),
	}
	store := NewStore(fetcher, nil)

	var (
		mu       sync.Mutex
		selected = models.ScenarioRawLand
	)
	sel := func() (string, models.Scenario) {
		mu.Lock()
		defer mu.Unlock()
		return "prop-1", selected
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.LoadSelection(context.Background(), sel, 10)
	}()
	require.Equal(t, models.ScenarioRawLand, <-fetcher.started)

	mu.Lock()
	selected = models.ScenarioRenovation
	mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		store.LoadSelection(context.Background(), sel, 10, WithSilent())
	}()
	require.Equal(t, models.ScenarioRenovation, <-fetcher.started)

	close(fetcher.gate(models.ScenarioRenovation))
	time.Sleep(10 * time.Millisecond)
	close(fetcher.gate(models.ScenarioRawLand))
	wg.Wait()

	state := store.Snapshot()
	assert.Equal(t, models.ScenarioRenovation, state.Scenario)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 90, state.Items[0].OverallScore)
}

func TestStore_LoadSelectionEmptyPropertyResets(t *testing.T) {
	fetcher := &stubFetcher{items: []models.ConditionAssessment{
		assessment(models.ScenarioAll, 70, models.RatingB, models.RiskModerate),
	}}
	store := NewStore(fetcher, nil)
	store.Load(context.Background(), "prop-1", models.ScenarioAll, 10)

	store.LoadSelection(context.Background(), func() (string, models.Scenario) { return "", models.ScenarioRenovation }, 10)

	state := store.Snapshot()
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, state.Items)
	assert.Equal(t, models.ScenarioRenovation, state.Scenario)
}
