package models

import "time"

// PropertyContext holds the static attributes of a captured site.
type PropertyContext struct {
	ID             string   `json:"id" yaml:"id"`
	Address        string   `json:"address" yaml:"address"`
	Zoning         string   `json:"zoning" yaml:"zoning"`
	SiteAreaSqm    float64  `json:"siteAreaSqm" yaml:"site_area_sqm"`
	Amenities      []string `json:"amenities" yaml:"amenities"`
	HeritageListed bool     `json:"heritageListed" yaml:"heritage_listed"`
}

// QuickAnalysisEntry is the heuristic feasibility summary for one scenario.
// It is supplied by the capture step and never edited here.
type QuickAnalysisEntry struct {
	Scenario Scenario           `json:"scenario" yaml:"scenario"`
	Headline string             `json:"headline" yaml:"headline"`
	Metrics  map[string]float64 `json:"metrics" yaml:"metrics"`
	Notes    []string           `json:"notes" yaml:"notes"`
}

// PropertyCapture is the result of capturing a site: the property plus
// quick-analysis metrics for each scenario evaluated during capture.
type PropertyCapture struct {
	Property      PropertyContext      `json:"property" yaml:"property"`
	QuickAnalysis []QuickAnalysisEntry `json:"quickAnalysis" yaml:"quick_analysis"`
	CapturedAt    time.Time            `json:"capturedAt" yaml:"captured_at"`
}

// QuickAnalysisFor returns the entry for a scenario, or nil when the capture
// did not evaluate it.
func (c *PropertyCapture) QuickAnalysisFor(s Scenario) *QuickAnalysisEntry {
	if c == nil {
		return nil
	}
	for i := range c.QuickAnalysis {
		if c.QuickAnalysis[i].Scenario == s {
			return &c.QuickAnalysis[i]
		}
	}
	return nil
}
