package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/sitecheck/internal/checklist"
	"github.com/harrison/sitecheck/internal/diff"
	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/insight"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/ordinal"
)

// palette holds the colors used by the renderers. Colors are switched off
// unless w is a terminal.
type palette struct {
	enabled bool
	header  *color.Color
	good    *color.Color
	bad     *color.Color
	warn    *color.Color
	muted   *color.Color
	accent  *color.Color
}

func newPalette(w io.Writer) *palette {
	p := &palette{
		enabled: isColorTerminal(w),
		header:  color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		muted:   color.New(color.FgHiBlack),
		accent:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.header, p.good, p.bad, p.warn, p.muted, p.accent} {
		if p.enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *palette) tone(t ordinal.Tone) *color.Color {
	switch t {
	case ordinal.Positive:
		return p.good
	case ordinal.Negative:
		return p.bad
	default:
		return p.muted
	}
}

func (p *palette) trend(l diff.TrendLabel) *color.Color {
	switch l {
	case diff.TrendImproved:
		return p.good
	case diff.TrendDeclined:
		return p.bad
	default:
		return p.muted
	}
}

func (p *palette) delta(d int) string {
	switch {
	case d > 0:
		return p.good.Sprintf("+%d", d)
	case d < 0:
		return p.bad.Sprintf("%d", d)
	default:
		return p.muted.Sprint("0")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatRecordedAt(a models.ConditionAssessment) string {
	if a.RecordedAt == nil {
		return "draft"
	}
	return a.RecordedAt.Local().Format("2006-01-02 15:04")
}

func renderAssessment(w io.Writer, p *palette, a models.ConditionAssessment) {
	p.header.Fprintf(w, "%s assessment", a.Scenario.Label())
	fmt.Fprintf(w, " (%s)\n", formatRecordedAt(a))
	fmt.Fprintf(w, "  Rating: %s  Score: %d  Risk: %s\n", orDash(string(a.OverallRating)), a.OverallScore, orDash(string(a.RiskLevel)))
	if a.Summary != "" {
		fmt.Fprintf(w, "  %s\n", a.Summary)
	}
	for _, sys := range a.Systems {
		fmt.Fprintf(w, "  - %s: %s (%d)", sys.Name, orDash(string(sys.Rating)), sys.Score)
		if sys.Notes != "" {
			p.muted.Fprintf(w, "  %s", sys.Notes)
		}
		fmt.Fprintln(w)
	}
	if len(a.RecommendedActions) > 0 {
		fmt.Fprintln(w, "  Recommended actions:")
		for _, action := range a.RecommendedActions {
			fmt.Fprintf(w, "    * %s\n", action)
		}
	}
}

func renderHistory(w io.Writer, p *palette, scenario models.Scenario, items []models.ConditionAssessment) {
	p.header.Fprintf(w, "\n=== Assessment history: %s ===\n\n", scenario.Label())
	if len(items) == 0 {
		fmt.Fprintln(w, "No assessments recorded")
		return
	}
	fmt.Fprintf(w, "%-17s  %-26s  %-6s  %5s  %s\n", "RECORDED", "SCENARIO", "RATING", "SCORE", "RISK")
	for _, a := range items {
		fmt.Fprintf(w, "%-17s  %-26s  %-6s  %5d  %s\n",
			formatRecordedAt(a), a.Scenario.Label(), orDash(string(a.OverallRating)), a.OverallScore, orDash(string(a.RiskLevel)))
	}
}

func renderSystems(w io.Writer, p *palette, systems []diff.SystemEntry) {
	if len(systems) == 0 {
		return
	}
	fmt.Fprintln(w, "Systems:")
	for _, s := range systems {
		switch {
		case s.ScoreDelta != nil:
			fmt.Fprintf(w, "  %-20s %s\n", s.Name, p.delta(*s.ScoreDelta))
		case s.Latest != nil:
			fmt.Fprintf(w, "  %-20s %s\n", s.Name, p.good.Sprint("new"))
		default:
			fmt.Fprintf(w, "  %-20s %s\n", s.Name, p.muted.Sprint("no longer assessed"))
		}
	}
}

func renderActions(w io.Writer, p *palette, added, cleared []string) {
	for _, a := range added {
		fmt.Fprintf(w, "  %s %s\n", p.warn.Sprint("+"), a)
	}
	for _, a := range cleared {
		fmt.Fprintf(w, "  %s %s\n", p.good.Sprint("-"), a)
	}
}

func renderComparison(w io.Writer, p *palette, summary *diff.Summary) {
	p.header.Fprintf(w, "\n=== Latest vs previous ===\n\n")
	if summary == nil {
		fmt.Fprintln(w, "At least two assessments are needed for a comparison")
		return
	}
	fmt.Fprintf(w, "Score change: %s\n", p.delta(summary.ScoreDelta))
	fmt.Fprintf(w, "%s\n", p.trend(summary.RatingTrend.Label).Sprint(summary.RatingTrend.Text))
	fmt.Fprintf(w, "%s\n", p.trend(summary.RiskTrend.Label).Sprint(summary.RiskTrend.Text))
	renderSystems(w, p, summary.Systems)
	if len(summary.NewActions)+len(summary.ClearedActions) > 0 {
		fmt.Fprintln(w, "Actions:")
		renderActions(w, p, summary.NewActions, summary.ClearedActions)
	}
}

func renderScenarioComparisons(w io.Writer, p *palette, baseline *models.Scenario, entries []diff.BaselineComparison) {
	if baseline == nil {
		p.header.Fprintf(w, "\n=== Scenario comparison ===\n\n")
		fmt.Fprintln(w, "No scenario-specific assessments recorded")
		return
	}
	p.header.Fprintf(w, "\n=== Scenario comparison (baseline: %s) ===\n\n", baseline.Label())
	if len(entries) == 0 {
		fmt.Fprintln(w, "Only the baseline scenario has been assessed")
		return
	}
	for _, e := range entries {
		p.accent.Fprintf(w, "%s", e.Scenario.Label())
		fmt.Fprintf(w, "  score %s\n", p.delta(e.ScoreDelta))
		fmt.Fprintf(w, "  %s\n", p.tone(e.Rating.Tone).Sprint(e.Rating.Text))
		fmt.Fprintf(w, "  %s\n", p.tone(e.Risk.Tone).Sprint(e.Risk.Text))
		renderActions(w, p, e.NewActions, e.ClearedActions)
	}
}

func renderProgress(w io.Writer, p *palette, label string, summary checklist.ProgressSummary) {
	bar := logger.NewProgressBar(summary.Total, 20, p.enabled)
	bar.Update(summary.Completed)
	fmt.Fprintf(w, "%s: %s\n", label, bar.Render())
	fmt.Fprintf(w, "  completed %d, in progress %d, pending %d, not applicable %d\n",
		summary.Completed, summary.InProgress, summary.Pending, summary.NotApplicable)

	for _, category := range summary.Categories {
		counts := summary.ByCategoryStatus[category]
		total := counts.Total()
		fmt.Fprintf(w, "  %-20s %d/%d (%d%%)\n", category, counts.Completed, total, checklist.CompletionPercentage(counts.Completed, total))
	}
}

func renderChecklist(w io.Writer, p *palette, items []models.ChecklistItem) {
	for _, item := range items {
		marker := p.muted.Sprint("[ ]")
		switch item.Status {
		case models.ChecklistCompleted:
			marker = p.good.Sprint("[x]")
		case models.ChecklistInProgress:
			marker = p.warn.Sprint("[~]")
		case models.ChecklistNotApplicable:
			marker = p.muted.Sprint("[-]")
		}
		fmt.Fprintf(w, "%s %s  %s", marker, item.ID, item.Title)
		p.muted.Fprintf(w, "  (%s, %s, %s)\n", item.Category, item.DevelopmentScenario, item.Priority)
	}
}

func renderSignals(w io.Writer, p *palette, signals feasibility.Signals) {
	if signals.Empty() {
		return
	}
	fmt.Fprintln(w, "Feasibility signals:")
	for _, o := range signals.Opportunities {
		fmt.Fprintf(w, "  %s %s\n", p.good.Sprint("+"), o)
	}
	for _, r := range signals.Risks {
		fmt.Fprintf(w, "  %s %s\n", p.bad.Sprint("!"), r)
	}
}

func renderInsights(w io.Writer, p *palette, insights []insight.Insight) {
	p.header.Fprintf(w, "\n=== Insights ===\n\n")
	if len(insights) == 0 {
		fmt.Fprintln(w, "Nothing needs attention")
		return
	}
	for _, in := range insights {
		var c *color.Color
		switch in.Severity {
		case insight.SeverityCritical:
			c = p.bad
		case insight.SeverityWarning:
			c = p.warn
		case insight.SeverityPositive:
			c = p.good
		default:
			c = p.muted
		}
		fmt.Fprintf(w, "%s %s", c.Sprintf("[%s]", strings.ToUpper(string(in.Severity))), in.Title)
		if in.Specialist != nil {
			p.muted.Fprintf(w, " (%s)", *in.Specialist)
		}
		fmt.Fprintln(w)
		if in.Detail != "" {
			fmt.Fprintf(w, "    %s\n", in.Detail)
		}
	}
}
