package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/repository"
)

func setupServer(t *testing.T) (*repository.Store, *httptest.Server) {
	t.Helper()
	store, err := repository.NewStore(filepath.Join(t.TempDir(), "sitecheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewServer(store, Options{AccessLog: io.Discard}).Handler())
	t.Cleanup(srv.Close)
	return store, srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func record(t *testing.T, store *repository.Store, s models.Scenario, score int, rating models.Rating, risk models.RiskLevel, actions ...string) {
	t.Helper()
	_, err := store.SaveConditionAssessment(context.Background(), "prop-1", models.ConditionAssessment{
		Scenario:           s,
		OverallScore:       score,
		OverallRating:      rating,
		RiskLevel:          risk,
		RecommendedActions: actions,
	})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	_, srv := setupServer(t)
	status, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAndListAssessments(t *testing.T) {
	_, srv := setupServer(t)
	base := srv.URL + "/properties/prop-1/assessments"

	status, created := do(t, http.MethodPost, base, `{"scenario":"renovation","overallRating":"c","overall_score":"61.6","riskLevel":"moderate","recordedAt":"2020-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "prop-1", created["propertyId"])
	assert.Equal(t, "C", created["overallRating"])
	assert.Equal(t, float64(62), created["overallScore"])
	assert.NotEqual(t, "2020-01-01T00:00:00Z", created["recordedAt"])

	status, _ = do(t, http.MethodPost, base, `{"scenario":"renovation","overallScore":70,"overallRating":"B"}`)
	require.Equal(t, http.StatusCreated, status)

	status, list := do(t, http.MethodGet, base+"?scenario=renovation&limit=1", "")
	require.Equal(t, http.StatusOK, status)
	items := list["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(70), items[0].(map[string]any)["overallScore"])

	status, latest := do(t, http.MethodGet, base+"/latest?scenario=renovation", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(70), latest["overallScore"])
}

func TestAssessmentRequestErrors(t *testing.T) {
	_, srv := setupServer(t)
	base := srv.URL + "/properties/prop-1/assessments"

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, base, `{`, http.StatusBadRequest},
		{"empty assessment", http.MethodPost, base, `{"scenario":"renovation"}`, http.StatusBadRequest},
		{"json array", http.MethodPost, base, `[]`, http.StatusBadRequest},
		{"unknown scenario filter", http.MethodGet, base + "?scenario=moon_base", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, base + "?limit=-2", "", http.StatusBadRequest},
		{"nothing recorded", http.MethodGet, base + "/latest", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestComparison(t *testing.T) {
	store, srv := setupServer(t)
	url := srv.URL + "/properties/prop-1/comparison?scenario=renovation"

	_, body := do(t, http.MethodGet, url, "")
	assert.Nil(t, body["comparison"])

	record(t, store, models.ScenarioRenovation, 60, models.RatingC, models.RiskElevated, "Replace roof")
	record(t, store, models.ScenarioRenovation, 75, models.RatingB, models.RiskModerate, "Repoint brickwork")

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	summary := body["comparison"].(map[string]any)
	assert.Equal(t, float64(15), summary["scoreDelta"])
	assert.Equal(t, "improved", summary["ratingTrend"].(map[string]any)["label"])
	assert.Equal(t, "improved", summary["riskTrend"].(map[string]any)["label"])
	assert.Equal(t, []any{"Repoint brickwork"}, summary["newActions"])
	assert.Equal(t, []any{"Replace roof"}, summary["clearedActions"])
}

func TestScenarioComparison(t *testing.T) {
	store, srv := setupServer(t)
	url := srv.URL + "/properties/prop-1/scenario-comparison"

	_, body := do(t, http.MethodGet, url, "")
	assert.Nil(t, body["baseline"])
	assert.Empty(t, body["entries"])

	record(t, store, models.ScenarioRawLand, 80, models.RatingB, models.RiskLow)
	record(t, store, models.ScenarioRenovation, 62, models.RatingC, models.RiskElevated)
	record(t, store, models.ScenarioAll, 50, models.RatingC, models.RiskModerate)

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	// newest scenario first, so renovation is the default baseline
	assert.Equal(t, "renovation", body["baseline"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(18), entries[0].(map[string]any)["scoreDelta"])

	status, body = do(t, http.MethodGet, url+"?baseline=raw_land", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "raw_land", body["baseline"])
	entries = body["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(-18), entries[0].(map[string]any)["scoreDelta"])

	status, _ = do(t, http.MethodGet, url+"?baseline=new_construction", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, http.MethodGet, url+"?baseline=all", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChecklistEndpoints(t *testing.T) {
	_, srv := setupServer(t)
	base := srv.URL + "/properties/prop-1/checklist"

	var ids []string
	for i, body := range []string{
		`{"category":"Legal","title":"Title search","developmentScenario":"renovation"}`,
		`{"category":"Legal","title":"Zoning letter","developmentScenario":"renovation"}`,
		`{"category":"Structure","title":"Survey","status":"completed"}`,
		`{"category":"Structure","title":"Asbestos check","developmentScenario":"raw_land"}`,
	} {
		status, item := do(t, http.MethodPost, base, body)
		require.Equal(t, http.StatusCreated, status, "item %d", i)
		assert.Equal(t, "prop-1", item["propertyId"])
		ids = append(ids, item["id"].(string))
	}

	status, _ := do(t, http.MethodPost, base, `{"category":"Legal"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, updated := do(t, http.MethodPatch, srv.URL+"/checklist/"+ids[0], `{"status":"Completed"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", updated["status"])

	status, _ = do(t, http.MethodPatch, srv.URL+"/checklist/"+ids[1], `{"status":"finished"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPatch, srv.URL+"/checklist/missing", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, list := do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list["items"], 4)

	status, progress := do(t, http.MethodGet, base+"/progress", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), progress["total"])
	assert.Equal(t, float64(2), progress["completed"])
	assert.Equal(t, float64(50), progress["completionPercentage"])
	assert.Equal(t, []any{"Legal", "Structure"}, progress["categories"])

	_, progress = do(t, http.MethodGet, base+"/progress?scenario=renovation", "")
	assert.Equal(t, float64(2), progress["total"])
	assert.Equal(t, float64(50), progress["completionPercentage"])
}

func TestInsights(t *testing.T) {
	store, srv := setupServer(t)
	url := srv.URL + "/properties/prop-1/insights?scenario=heritage_property"

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["insights"])

	_, err := store.SaveConditionAssessment(context.Background(), "prop-1", models.ConditionAssessment{
		Scenario:      models.ScenarioHeritageProperty,
		OverallRating: models.RatingD,
		OverallScore:  45,
		RiskLevel:     models.RiskCritical,
		Summary:       "Significant structural movement",
		Systems: []models.SystemAssessment{
			{Name: "Structure", Rating: models.RatingE, Score: 30},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveCapture(context.Background(), models.PropertyCapture{
		Property: models.PropertyContext{ID: "prop-1", HeritageListed: true},
	}))

	status, body = do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)

	insights := body["insights"].([]any)
	require.NotEmpty(t, insights)
	first := insights[0].(map[string]any)
	assert.Equal(t, "critical", first["severity"])
	assert.Equal(t, "manual", first["source"])

	risks := body["signals"].(map[string]any)["risks"].([]any)
	assert.NotEmpty(t, risks)

	var heuristic int
	for _, raw := range insights {
		if raw.(map[string]any)["source"] == "heuristic" {
			heuristic++
		}
	}
	assert.Equal(t, len(risks), heuristic)
}

type failingBackend struct {
	*repository.Store
}

func (failingBackend) FetchScenarioAssessments(context.Context, string) ([]models.ConditionAssessment, error) {
	return nil, errors.New("disk on fire")
}

func TestBackendFailureIsInternalError(t *testing.T) {
	store, _ := setupServer(t)
	srv := httptest.NewServer(NewServer(failingBackend{store}, Options{AccessLog: io.Discard}).Handler())
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/properties/prop-1/scenarios", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "fetch scenario assessments failed", body["error"])
}

type nilSaveBackend struct {
	*repository.Store
}

func (nilSaveBackend) SaveConditionAssessment(context.Context, string, models.ConditionAssessment) (*models.ConditionAssessment, error) {
	return nil, nil
}

func TestCreateAssessmentWithoutSavedRecord(t *testing.T) {
	store, _ := setupServer(t)
	srv := httptest.NewServer(NewServer(nilSaveBackend{store}, Options{
		AccessLog: io.Discard,
		Log:       logger.NewConsoleLogger(io.Discard, "info"),
	}).Handler())
	defer srv.Close()

	status, body := do(t, http.MethodPost, srv.URL+"/properties/prop-1/assessments", `{"scenario":"renovation","overallScore":70,"overallRating":"B"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "could not save assessment", body["error"])

	status, list := do(t, http.MethodGet, srv.URL+"/properties/prop-1/assessments", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list["items"])
}

func TestRequestBodyIsCapped(t *testing.T) {
	_, srv := setupServer(t)

	large := `{"scenario":"renovation","notes":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	status, body := do(t, http.MethodPost, srv.URL+"/properties/prop-1/assessments", large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "body too large", body["error"])

	status, _ = do(t, http.MethodPost, srv.URL+"/properties/prop-1/checklist", large)
	assert.Equal(t, http.StatusBadRequest, status)
}
