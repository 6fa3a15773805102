package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/sitecheck/internal/models"
)

func TestDecodeAssessment_Full(t *testing.T) {
	raw := map[string]any{
		"id":                 "a-1",
		"propertyId":         "prop-1",
		"scenario":           "heritage_property",
		"overallRating":      "b",
		"overallScore":       float64(72.4),
		"riskLevel":          "Moderate",
		"summary":            "Sound fabric",
		"recommendedActions": []any{"Repoint brickwork", "", 3},
		"recordedAt":         "2026-03-01T09:30:00Z",
		"systems": []any{
			map[string]any{"name": "Roof", "rating": "C", "score": float64(61), "notes": "Slate slipping"},
			"not an object",
		},
	}

	a := DecodeAssessment(raw)

	assert.Equal(t, "a-1", a.ID)
	assert.Equal(t, "prop-1", a.PropertyID)
	assert.Equal(t, models.ScenarioHeritageProperty, a.Scenario)
	assert.Equal(t, models.RatingB, a.OverallRating)
	assert.Equal(t, 72, a.OverallScore)
	assert.Equal(t, models.RiskModerate, a.RiskLevel)
	assert.Equal(t, []string{"Repoint brickwork"}, a.RecommendedActions)
	require.NotNil(t, a.RecordedAt)
	assert.Equal(t, 2026, a.RecordedAt.Year())

	require.Len(t, a.Systems, 1)
	assert.Equal(t, "Roof", a.Systems[0].Name)
	assert.Equal(t, models.RatingC, a.Systems[0].Rating)
	assert.Equal(t, 61, a.Systems[0].Score)
	assert.NotNil(t, a.Systems[0].RecommendedActions)
}

func TestDecodeAssessment_Defaults(t *testing.T) {
	a := DecodeAssessment(map[string]any{})

	assert.Equal(t, models.ScenarioAll, a.Scenario)
	assert.Empty(t, a.OverallRating)
	assert.Empty(t, a.RiskLevel)
	assert.Equal(t, 0, a.OverallScore)
	assert.NotNil(t, a.Systems)
	assert.NotNil(t, a.RecommendedActions)
	assert.Nil(t, a.RecordedAt)
}

func TestDecodeAssessment_Normalization(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(t *testing.T, a models.ConditionAssessment)
	}{
		{
			name: "unknown scenario is all",
			raw:  map[string]any{"scenario": "space_station"},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, models.ScenarioAll, a.Scenario)
			},
		},
		{
			name: "unknown rating is unrated",
			raw:  map[string]any{"overallRating": "F"},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Empty(t, a.OverallRating)
			},
		},
		{
			name: "score above range clamps",
			raw:  map[string]any{"overallScore": float64(140)},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, 100, a.OverallScore)
			},
		},
		{
			name: "negative score clamps",
			raw:  map[string]any{"overallScore": float64(-5)},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, 0, a.OverallScore)
			},
		},
		{
			name: "numeric string score",
			raw:  map[string]any{"overallScore": "58"},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, 58, a.OverallScore)
			},
		},
		{
			name: "snake case keys",
			raw:  map[string]any{"property_id": "p-9", "overall_score": float64(44)},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, "p-9", a.PropertyID)
				assert.Equal(t, 44, a.OverallScore)
			},
		},
		{
			name: "bad timestamp is draft",
			raw:  map[string]any{"recordedAt": "yesterday"},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.True(t, a.IsDraft())
			},
		},
		{
			name: "rating and score stay independent",
			raw:  map[string]any{"overallRating": "B", "overallScore": float64(40)},
			check: func(t *testing.T, a models.ConditionAssessment) {
				assert.Equal(t, models.RatingB, a.OverallRating)
				assert.Equal(t, 40, a.OverallScore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DecodeAssessment(tt.raw))
		})
	}
}

func TestDecodeChecklistItem(t *testing.T) {
	item := DecodeChecklistItem(map[string]any{
		"id":                  "c-1",
		"propertyId":          "prop-1",
		"category":            "environmental",
		"title":               "Phase 1 contamination report",
		"status":              "IN_PROGRESS",
		"developmentScenario": "raw_land",
		"priority":            "High",
	})

	assert.Equal(t, models.ChecklistInProgress, item.Status)
	assert.Equal(t, models.ScenarioRawLand, item.DevelopmentScenario)
	assert.Equal(t, "high", item.Priority)

	defaulted := DecodeChecklistItem(map[string]any{"status": "blocked", "developmentScenario": "moon_base"})
	assert.Equal(t, models.ChecklistPending, defaulted.Status)
	assert.Equal(t, models.ScenarioAll, defaulted.DevelopmentScenario)
	assert.Equal(t, "medium", defaulted.Priority)
}

func TestUnmarshalAssessment(t *testing.T) {
	a, err := UnmarshalAssessment([]byte(`{"scenario":"renovation","overallScore":65,"systems":[{"name":"Roof","score":30}]}`))
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioRenovation, a.Scenario)
	assert.Equal(t, 65, a.OverallScore)
	require.Len(t, a.Systems, 1)
	assert.Equal(t, 30, a.Systems[0].Score)

	_, err = UnmarshalAssessment([]byte(`not json`))
	assert.Error(t, err)

	_, err = UnmarshalAssessment([]byte(`null`))
	assert.Error(t, err)
}
