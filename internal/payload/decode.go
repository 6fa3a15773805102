// Package payload converts loosely-typed collaborator responses into strict
// models. Defaults are applied here once so the engine packages never see a
// missing list or an out-of-range score.
package payload

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/sitecheck/internal/models"
)

// DecodeAssessment builds an assessment from a decoded JSON object.
// Unknown scenarios become "all", unknown ratings and risk levels become
// unrated, scores are clamped to 0-100 and nil lists become empty.
func DecodeAssessment(raw map[string]any) models.ConditionAssessment {
	scenario, _ := models.ParseScenario(str(raw, "scenario"))
	a := models.ConditionAssessment{
		ID:                 str(raw, "id"),
		PropertyID:         str(raw, "propertyId", "property_id"),
		Scenario:           scenario,
		OverallRating:      rating(str(raw, "overallRating", "overall_rating")),
		OverallScore:       score(value(raw, "overallScore", "overall_score")),
		RiskLevel:          riskLevel(str(raw, "riskLevel", "risk_level")),
		Summary:            str(raw, "summary"),
		ScenarioContext:    str(raw, "scenarioContext", "scenario_context"),
		Systems:            []models.SystemAssessment{},
		RecommendedActions: stringList(value(raw, "recommendedActions", "recommended_actions")),
		RecordedAt:         timestamp(value(raw, "recordedAt", "recorded_at")),
	}

	if list, ok := value(raw, "systems").([]any); ok {
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			a.Systems = append(a.Systems, models.SystemAssessment{
				Name:               str(obj, "name"),
				Rating:             rating(str(obj, "rating")),
				Score:              score(value(obj, "score")),
				Notes:              str(obj, "notes"),
				RecommendedActions: stringList(value(obj, "recommendedActions", "recommended_actions")),
			})
		}
	}
	return a
}

// DecodeChecklistItem builds a checklist item. Unknown statuses become
// pending and unknown scenarios become "all".
func DecodeChecklistItem(raw map[string]any) models.ChecklistItem {
	scenario, _ := models.ParseScenario(str(raw, "developmentScenario", "development_scenario"))
	priority := strings.ToLower(str(raw, "priority"))
	switch priority {
	case "low", "medium", "high", "critical":
	default:
		priority = "medium"
	}
	return models.ChecklistItem{
		ID:                  str(raw, "id"),
		PropertyID:          str(raw, "propertyId", "property_id"),
		Category:            str(raw, "category"),
		Title:               str(raw, "title"),
		Status:              Status(str(raw, "status")),
		DevelopmentScenario: scenario,
		Priority:            priority,
	}
}

// Status parses a checklist status, defaulting to pending.
func Status(raw string) models.ChecklistStatus {
	s := models.ChecklistStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return models.ChecklistPending
	}
	return s
}

// UnmarshalAssessment decodes a JSON document into an assessment through
// the same defaults as DecodeAssessment.
func UnmarshalAssessment(data []byte) (models.ConditionAssessment, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.ConditionAssessment{}, fmt.Errorf("failed to decode assessment: %w", err)
	}
	if raw == nil {
		return models.ConditionAssessment{}, fmt.Errorf("failed to decode assessment: expected a JSON object")
	}
	return DecodeAssessment(raw), nil
}

// value returns the first present key.
func value(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func str(raw map[string]any, keys ...string) string {
	switch v := value(raw, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func stringList(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func score(v any) int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func rating(raw string) models.Rating {
	r := strings.ToUpper(raw)
	for _, v := range models.RatingScale {
		if v == r {
			return models.Rating(r)
		}
	}
	return ""
}

func riskLevel(raw string) models.RiskLevel {
	r := strings.ToLower(raw)
	for _, v := range models.RiskScale {
		if v == r {
			return models.RiskLevel(r)
		}
	}
	return ""
}

func timestamp(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
