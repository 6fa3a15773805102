// Package insight combines the inspector's recorded findings with heuristic
// feasibility signals into one ordered, de-duplicated list.
package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/models"
)

// Severity of an insight.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Source records where an insight came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceHeuristic Source = "heuristic"
)

// Insight is one line of the combined view.
type Insight struct {
	Severity   Severity `json:"severity"`
	Title      string   `json:"title"`
	Detail     string   `json:"detail"`
	Specialist *string  `json:"specialist,omitempty"`
	Source     Source   `json:"source"`
}

// Attention holds the score cut-offs for flagging a system.
type Attention struct {
	CriticalScore int `yaml:"critical_score"` // below this is critical
	WarningScore  int `yaml:"warning_score"`  // below this is a warning
}

// DefaultAttention flags scores under 40 as critical and under 60 as warnings.
func DefaultAttention() Attention {
	return Attention{CriticalScore: 40, WarningScore: 60}
}

// Validate checks the cut-offs are ordered and within 0-100.
func (a Attention) Validate() error {
	if a.CriticalScore < 0 || a.WarningScore > 100 {
		return fmt.Errorf("attention scores must be within 0-100, got critical=%d warning=%d", a.CriticalScore, a.WarningScore)
	}
	if a.CriticalScore > a.WarningScore {
		return fmt.Errorf("critical_score (%d) must not exceed warning_score (%d)", a.CriticalScore, a.WarningScore)
	}
	return nil
}

// specialists maps name keywords to the trade that should look at it.
// Checked in order; the first keyword found wins.
var specialists = []struct {
	keyword    string
	specialist string
}{
	{"structur", "structural engineer"},
	{"electric", "electrician"},
	{"plumb", "plumber"},
	{"roof", "roofing contractor"},
	{"fire", "fire safety engineer"},
	{"heritage", "heritage consultant"},
	{"hvac", "mechanical engineer"},
	{"mechanical", "mechanical engineer"},
	{"facade", "facade specialist"},
	{"façade", "facade specialist"},
}

// Specialist returns the trade implied by text, or nil when no keyword matches.
func Specialist(text string) *string {
	lower := strings.ToLower(text)
	for _, s := range specialists {
		if strings.Contains(lower, s.keyword) {
			name := s.specialist
			return &name
		}
	}
	return nil
}

// Merger builds combined insight lists using a fixed attention policy.
type Merger struct {
	Attention Attention
}

// NewMerger creates a merger with the given attention thresholds.
func NewMerger(a Attention) *Merger {
	return &Merger{Attention: a}
}

// Merge runs the default policy.
func Merge(manual *models.ConditionAssessment, signals feasibility.Signals) []Insight {
	return NewMerger(DefaultAttention()).Merge(manual, signals)
}

// Merge derives insights from manual (may be nil) and signals, then orders
// them critical, warning, info, positive keeping input order within a severity.
// Entries sharing a title and detail collapse into one, keeping any specialist.
func (m *Merger) Merge(manual *models.ConditionAssessment, signals feasibility.Signals) []Insight {
	var all []Insight

	if manual != nil {
		all = append(all, m.systemInsights(manual)...)
		if overall, ok := riskInsight(manual); ok {
			all = append(all, overall)
		}
		all = append(all, actionInsights(manual)...)
	}

	for _, r := range signals.Risks {
		all = append(all, Insight{
			Severity: SeverityWarning,
			Title:    "Feasibility risk",
			Detail:   r,
			Source:   SourceHeuristic,
		})
	}
	for _, o := range signals.Opportunities {
		all = append(all, Insight{
			Severity: SeverityPositive,
			Title:    "Feasibility opportunity",
			Detail:   o,
			Source:   SourceHeuristic,
		})
	}

	out := dedupe(all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.rank() < out[j].Severity.rank()
	})
	return out
}

func (m *Merger) systemInsights(a *models.ConditionAssessment) []Insight {
	var out []Insight
	for _, sys := range a.Systems {
		var severity Severity
		switch {
		case sys.Rating == models.RatingE || sys.Score < m.Attention.CriticalScore:
			severity = SeverityCritical
		case sys.Rating == models.RatingD || sys.Score < m.Attention.WarningScore:
			severity = SeverityWarning
		default:
			continue
		}

		detail := fmt.Sprintf("Rated %s with a score of %d", displayRating(sys.Rating), sys.Score)
		if sys.Notes != "" {
			detail += ". " + sys.Notes
		}
		out = append(out, Insight{
			Severity:   severity,
			Title:      fmt.Sprintf("%s needs attention", sys.Name),
			Detail:     detail,
			Specialist: Specialist(sys.Name),
			Source:     SourceManual,
		})
	}
	return out
}

func riskInsight(a *models.ConditionAssessment) (Insight, bool) {
	var severity Severity
	switch a.RiskLevel {
	case models.RiskCritical:
		severity = SeverityCritical
	case models.RiskHigh:
		severity = SeverityWarning
	default:
		return Insight{}, false
	}

	detail := a.Summary
	if detail == "" {
		detail = fmt.Sprintf("Overall risk assessed as %s", a.RiskLevel)
	}
	return Insight{
		Severity: severity,
		Title:    fmt.Sprintf("Overall risk is %s", a.RiskLevel),
		Detail:   detail,
		Source:   SourceManual,
	}, true
}

// actionInsights lists overall actions followed by per-system actions.
// System actions take the system's specialist when the action text names none.
func actionInsights(a *models.ConditionAssessment) []Insight {
	var out []Insight
	for _, action := range a.RecommendedActions {
		out = append(out, Insight{
			Severity:   SeverityInfo,
			Title:      "Recommended action",
			Detail:     action,
			Specialist: Specialist(action),
			Source:     SourceManual,
		})
	}
	for _, sys := range a.Systems {
		for _, action := range sys.RecommendedActions {
			specialist := Specialist(action)
			if specialist == nil {
				specialist = Specialist(sys.Name)
			}
			out = append(out, Insight{
				Severity:   SeverityInfo,
				Title:      "Recommended action",
				Detail:     action,
				Specialist: specialist,
				Source:     SourceManual,
			})
		}
	}
	return out
}

type dedupeKey struct {
	title  string
	detail string
}

// dedupe keeps the first position of each (title, detail) pair. A later
// duplicate only contributes its specialist when the kept one has none.
func dedupe(in []Insight) []Insight {
	out := make([]Insight, 0, len(in))
	index := make(map[dedupeKey]int, len(in))
	for _, item := range in {
		key := dedupeKey{item.Title, item.Detail}
		if i, seen := index[key]; seen {
			if out[i].Specialist == nil && item.Specialist != nil {
				out[i].Specialist = item.Specialist
			}
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

func displayRating(r models.Rating) string {
	if r == "" {
		return "unrated"
	}
	return string(r)
}
