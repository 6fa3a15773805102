package diff

import (
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/ordinal"
)

// BaselineComparison compares one scenario's assessment with the baseline
// scenario. Unlike Summary it answers "how does this scenario differ from the
// reference scenario", so rating and risk keep the generic ordinal tone.
type BaselineComparison struct {
	Scenario         models.Scenario            `json:"scenario"`
	BaselineScenario models.Scenario            `json:"baselineScenario"`
	Assessment       models.ConditionAssessment `json:"assessment"`
	ScoreDelta       int                        `json:"scoreDelta"`
	Rating           ordinal.Comparison         `json:"rating"`
	Risk             ordinal.Comparison         `json:"risk"`
	Systems          []SystemEntry              `json:"systems"`
	NewActions       []string                   `json:"newActions"`
	ClearedActions   []string                   `json:"clearedActions"`
}

// AgainstBaseline compares entry with baseline. Both must be non-nil.
func AgainstBaseline(entry, baseline *models.ConditionAssessment) BaselineComparison {
	added, cleared := Actions(entry.RecommendedActions, baseline.RecommendedActions)
	return BaselineComparison{
		Scenario:         entry.Scenario,
		BaselineScenario: baseline.Scenario,
		Assessment:       *entry.Clone(),
		ScoreDelta:       entry.OverallScore - baseline.OverallScore,
		Rating:           ordinal.Compare(string(entry.OverallRating), string(baseline.OverallRating), ordinal.RatingScale),
		Risk:             ordinal.Compare(string(entry.RiskLevel), string(baseline.RiskLevel), ordinal.RiskScale),
		Systems:          Systems(entry.Systems, baseline.Systems),
		NewActions:       added,
		ClearedActions:   cleared,
	}
}
