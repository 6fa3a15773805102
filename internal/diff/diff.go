// Package diff computes deltas and trends between two condition assessments.
package diff

import (
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/ordinal"
)

// TrendLabel summarises a chronological rating or risk movement.
type TrendLabel string

const (
	TrendImproved TrendLabel = "improved"
	TrendDeclined TrendLabel = "declined"
	TrendSame     TrendLabel = "same"
	TrendChanged  TrendLabel = "changed"
)

// Trend is an ordinal comparison relabelled for the history view.
type Trend struct {
	Text  string     `json:"text"`
	Label TrendLabel `json:"label"`
}

// SystemEntry compares one building system across two assessments.
// ScoreDelta is nil unless the system appears on both sides; a zero delta
// means "no change", not "missing".
type SystemEntry struct {
	Name       string                   `json:"name"`
	Latest     *models.SystemAssessment `json:"latest"`
	Previous   *models.SystemAssessment `json:"previous"`
	ScoreDelta *int                     `json:"scoreDelta"`
}

// Summary is the comparison between a newer and an older assessment.
type Summary struct {
	ScoreDelta     int           `json:"scoreDelta"`
	RatingTrend    Trend         `json:"ratingTrend"`
	RiskTrend      Trend         `json:"riskTrend"`
	Systems        []SystemEntry `json:"systems"`
	NewActions     []string      `json:"newActions"`
	ClearedActions []string      `json:"clearedActions"`
}

// Compare diffs latest against previous. It returns nil when either side is
// missing, since a comparison needs exactly two points.
func Compare(latest, previous *models.ConditionAssessment) *Summary {
	if latest == nil || previous == nil {
		return nil
	}

	newActions, clearedActions := Actions(latest.RecommendedActions, previous.RecommendedActions)
	return &Summary{
		ScoreDelta:     latest.OverallScore - previous.OverallScore,
		RatingTrend:    toTrend(ordinal.Compare(string(latest.OverallRating), string(previous.OverallRating), ordinal.RatingScale), latest.OverallRating == previous.OverallRating),
		RiskTrend:      toTrend(ordinal.Compare(string(latest.RiskLevel), string(previous.RiskLevel), ordinal.RiskScale), latest.RiskLevel == previous.RiskLevel),
		Systems:        Systems(latest.Systems, previous.Systems),
		NewActions:     newActions,
		ClearedActions: clearedActions,
	}
}

// toTrend maps the generic tone onto the history vocabulary.
// A neutral tone is "same" when the raw values match and "changed" when they
// differ but cannot be ordered.
func toTrend(c ordinal.Comparison, equal bool) Trend {
	switch c.Tone {
	case ordinal.Positive:
		return Trend{Text: c.Text, Label: TrendImproved}
	case ordinal.Negative:
		return Trend{Text: c.Text, Label: TrendDeclined}
	}
	if equal {
		return Trend{Text: c.Text, Label: TrendSame}
	}
	return Trend{Text: c.Text, Label: TrendChanged}
}

// Systems pairs systems by exact name. Latest's systems come first in their
// own order, followed by systems only present in previous.
func Systems(latest, previous []models.SystemAssessment) []SystemEntry {
	prevByName := make(map[string]*models.SystemAssessment, len(previous))
	for i := range previous {
		if _, seen := prevByName[previous[i].Name]; !seen {
			prevByName[previous[i].Name] = &previous[i]
		}
	}

	entries := make([]SystemEntry, 0, len(latest)+len(previous))
	seen := make(map[string]bool, len(latest)+len(previous))

	for i := range latest {
		name := latest[i].Name
		if seen[name] {
			continue
		}
		seen[name] = true

		cur := latest[i]
		entry := SystemEntry{Name: name, Latest: &cur}
		if prev, ok := prevByName[name]; ok {
			p := *prev
			entry.Previous = &p
			delta := cur.Score - p.Score
			entry.ScoreDelta = &delta
		}
		entries = append(entries, entry)
	}

	for i := range previous {
		name := previous[i].Name
		if seen[name] {
			continue
		}
		seen[name] = true
		p := previous[i]
		entries = append(entries, SystemEntry{Name: name, Previous: &p})
	}

	return entries
}

// Actions treats both action lists as sets of exact strings and returns
// latest \ previous and previous \ latest, each in first-seen order.
func Actions(latest, previous []string) (added, cleared []string) {
	latestSet := toSet(latest)
	previousSet := toSet(previous)

	added = difference(latest, previousSet)
	cleared = difference(previous, latestSet)
	return added, cleared
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func difference(values []string, exclude map[string]struct{}) []string {
	out := []string{}
	emitted := make(map[string]struct{})
	for _, v := range values {
		if _, skip := exclude[v]; skip {
			continue
		}
		if _, dup := emitted[v]; dup {
			continue
		}
		emitted[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
