package workspace

import (
	"github.com/harrison/sitecheck/internal/checklist"
	"github.com/harrison/sitecheck/internal/diff"
	"github.com/harrison/sitecheck/internal/feasibility"
	"github.com/harrison/sitecheck/internal/insight"
	"github.com/harrison/sitecheck/internal/models"
)

// Views is every derived view for the current selection.
type Views struct {
	PropertyID          string                       `json:"propertyId"`
	Scenario            models.Scenario              `json:"scenario"`
	Current             *models.ConditionAssessment  `json:"current,omitempty"`
	History             []models.ConditionAssessment `json:"history"`
	Comparison          *diff.Summary                `json:"comparison,omitempty"`
	ScenarioEntries     []models.ConditionAssessment `json:"scenarioEntries"`
	Baseline            *models.Scenario             `json:"baseline,omitempty"`
	ScenarioComparisons []diff.BaselineComparison    `json:"scenarioComparisons"`
	Progress            checklist.ProgressSummary    `json:"progress"`
	Signals             feasibility.Signals          `json:"signals"`
	Insights            []insight.Insight            `json:"insights"`
	Loading             bool                         `json:"loading"`
	Errors              []string                     `json:"errors,omitempty"`
}

// Views recomputes the derived views from store snapshots.
func (w *Workspace) Views() Views {
	w.mu.RLock()
	propertyID, scenario, registry := w.propertyID, w.scenario, w.overrides
	capture := w.capture
	current := w.current.Clone()
	currentErr := w.currentErr
	w.mu.RUnlock()

	hist := w.history.Snapshot()
	reg := registry.Snapshot()

	v := Views{
		PropertyID:          propertyID,
		Scenario:            scenario,
		Current:             current,
		History:             hist.Items,
		ScenarioEntries:     reg.Entries,
		Baseline:            reg.Baseline,
		ScenarioComparisons: reg.Comparisons,
		Progress:            w.checklist.Summary(scenario),
		Loading:             hist.Loading || reg.Loading || w.checklist.Loading(),
	}
	if v.History == nil {
		v.History = []models.ConditionAssessment{}
	}
	if v.ScenarioEntries == nil {
		v.ScenarioEntries = []models.ConditionAssessment{}
	}
	if v.ScenarioComparisons == nil {
		v.ScenarioComparisons = []diff.BaselineComparison{}
	}

	if len(hist.Items) >= 2 {
		v.Comparison = diff.Compare(&hist.Items[0], &hist.Items[1])
	}

	v.Signals = w.signals(capture, scenario)

	manual := current
	if manual == nil && len(hist.Items) > 0 {
		manual = &hist.Items[0]
	}
	v.Insights = w.merger.Merge(manual, v.Signals)

	for _, e := range []string{hist.Err, reg.Err, w.checklist.Err(), currentErr} {
		if e != "" {
			v.Errors = append(v.Errors, e)
		}
	}
	return v
}

// signals runs the extractor on the capture's entry for scenario. Without a
// matching entry only the property-level rules can fire.
func (w *Workspace) signals(capture *models.PropertyCapture, scenario models.Scenario) feasibility.Signals {
	if capture == nil {
		return feasibility.Signals{Opportunities: []string{}, Risks: []string{}}
	}
	entry := models.QuickAnalysisEntry{Scenario: scenario}
	if found := capture.QuickAnalysisFor(scenario); found != nil {
		entry = *found
	}
	return w.extractor.Extract(entry, capture.Property)
}
