package models

import (
	"errors"
	"fmt"
	"time"
)

// Rating is a letter grade on the A (best) to E (worst) condition scale.
type Rating string

const (
	RatingA Rating = "A"
	RatingB Rating = "B"
	RatingC Rating = "C"
	RatingD Rating = "D"
	RatingE Rating = "E"
)

// RatingScale is the ordered rating vocabulary, best first.
var RatingScale = []string{"A", "B", "C", "D", "E"}

// RiskLevel is a position on the low to critical risk scale.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskScale is the ordered risk vocabulary, lowest risk first.
var RiskScale = []string{"low", "moderate", "elevated", "high", "critical"}

// SystemAssessment is the inspector's view of one building system.
type SystemAssessment struct {
	Name               string   `json:"name" yaml:"name"`
	Rating             Rating   `json:"rating" yaml:"rating"`
	Score              int      `json:"score" yaml:"score"` // 0-100
	Notes              string   `json:"notes" yaml:"notes"`
	RecommendedActions []string `json:"recommendedActions" yaml:"recommended_actions"`
}

// ConditionAssessment is one inspection snapshot for a property.
//
// OverallScore and OverallRating are recorded independently by the inspector;
// a B rating with a score of 40 is valid and neither field is derived from the other.
type ConditionAssessment struct {
	ID                 string             `json:"id" yaml:"id"`
	PropertyID         string             `json:"propertyId" yaml:"property_id"`
	Scenario           Scenario           `json:"scenario" yaml:"scenario"`
	OverallRating      Rating             `json:"overallRating" yaml:"overall_rating"`
	OverallScore       int                `json:"overallScore" yaml:"overall_score"` // 0-100
	RiskLevel          RiskLevel          `json:"riskLevel" yaml:"risk_level"`
	Summary            string             `json:"summary" yaml:"summary"`
	ScenarioContext    string             `json:"scenarioContext" yaml:"scenario_context"`
	Systems            []SystemAssessment `json:"systems" yaml:"systems"`
	RecommendedActions []string           `json:"recommendedActions" yaml:"recommended_actions"`
	RecordedAt         *time.Time         `json:"recordedAt" yaml:"recorded_at"` // nil for unsaved drafts
}

// IsDraft returns true if the assessment has not been recorded yet.
func (a *ConditionAssessment) IsDraft() bool {
	return a.RecordedAt == nil
}

// Validate checks that a draft is fit to be saved.
func (a *ConditionAssessment) Validate() error {
	if a.Scenario != "" && !a.Scenario.IsKnown() {
		return fmt.Errorf("unknown scenario %q", a.Scenario)
	}
	if a.OverallScore < 0 || a.OverallScore > 100 {
		return fmt.Errorf("overall score must be between 0 and 100, got %d", a.OverallScore)
	}
	if a.OverallRating != "" && !inScale(string(a.OverallRating), RatingScale) {
		return fmt.Errorf("invalid overall rating %q", a.OverallRating)
	}
	if a.RiskLevel != "" && !inScale(string(a.RiskLevel), RiskScale) {
		return fmt.Errorf("invalid risk level %q", a.RiskLevel)
	}
	for i, sys := range a.Systems {
		if sys.Name == "" {
			return fmt.Errorf("system %d: name is required", i+1)
		}
		if sys.Score < 0 || sys.Score > 100 {
			return fmt.Errorf("system %q: score must be between 0 and 100, got %d", sys.Name, sys.Score)
		}
	}
	if a.OverallRating == "" && len(a.Systems) == 0 && a.Summary == "" {
		return errors.New("assessment is empty: provide a rating, a summary or at least one system")
	}
	return nil
}

// Clone returns a deep copy so snapshots handed to consumers cannot be
// mutated out from under the owning store.
func (a *ConditionAssessment) Clone() *ConditionAssessment {
	if a == nil {
		return nil
	}
	out := *a
	if a.Systems != nil {
		out.Systems = make([]SystemAssessment, len(a.Systems))
		for i, sys := range a.Systems {
			out.Systems[i] = sys
			out.Systems[i].RecommendedActions = cloneStrings(sys.RecommendedActions)
		}
	}
	out.RecommendedActions = cloneStrings(a.RecommendedActions)
	if a.RecordedAt != nil {
		t := *a.RecordedAt
		out.RecordedAt = &t
	}
	return &out
}

// CloneAssessments deep-copies a slice of assessments.
func CloneAssessments(in []ConditionAssessment) []ConditionAssessment {
	if in == nil {
		return nil
	}
	out := make([]ConditionAssessment, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func inScale(v string, scale []string) bool {
	for _, s := range scale {
		if s == v {
			return true
		}
	}
	return false
}
