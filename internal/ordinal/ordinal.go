// Package ordinal compares values on fixed, ordered vocabularies such as
// rating letters and risk levels, where position rather than magnitude
// carries meaning.
package ordinal

import (
	"fmt"

	"github.com/harrison/sitecheck/internal/models"
)

// Tone is the judgement attached to a comparison.
type Tone string

const (
	Positive Tone = "positive"
	Neutral  Tone = "neutral"
	Negative Tone = "negative"
)

// Scale is an ordered vocabulary where index 0 is the best position,
// together with the words used to describe movement along it.
type Scale struct {
	Label    string   // dimension name, e.g. "Rating"
	Values   []string // best first
	Improved string   // verb for moving toward index 0
	Declined string   // verb for moving away from index 0
}

// RatingScale orders condition ratings A (best) to E (worst).
var RatingScale = Scale{
	Label:    "Rating",
	Values:   models.RatingScale,
	Improved: "improved",
	Declined: "declined",
}

// RiskScale orders risk levels low (best) to critical (worst).
var RiskScale = Scale{
	Label:    "Risk",
	Values:   models.RiskScale,
	Improved: "eased",
	Declined: "intensified",
}

// Comparison is the outcome of comparing two values on a scale.
type Comparison struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// Index returns the position of v in the scale, or -1 when absent.
func (s Scale) Index(v string) int {
	for i, candidate := range s.Values {
		if candidate == v {
			return i
		}
	}
	return -1
}

// Compare classifies the movement from reference to current.
// Values outside the scale cannot be ordered, so they are only checked for
// equality and always get a neutral tone.
func Compare(current, reference string, scale Scale) Comparison {
	ci := scale.Index(current)
	ri := scale.Index(reference)

	if ci < 0 || ri < 0 {
		if current == reference {
			return Comparison{Text: scale.Label + " unchanged", Tone: Neutral}
		}
		return Comparison{
			Text: fmt.Sprintf("%s changed from %s to %s", scale.Label, display(reference), display(current)),
			Tone: Neutral,
		}
	}

	switch {
	case ci == ri:
		return Comparison{Text: scale.Label + " unchanged", Tone: Neutral}
	case ci < ri:
		return Comparison{
			Text: fmt.Sprintf("%s %s from %s to %s", scale.Label, scale.Improved, reference, current),
			Tone: Positive,
		}
	default:
		return Comparison{
			Text: fmt.Sprintf("%s %s from %s to %s", scale.Label, scale.Declined, reference, current),
			Tone: Negative,
		}
	}
}

func display(v string) string {
	if v == "" {
		return "unrated"
	}
	return v
}
