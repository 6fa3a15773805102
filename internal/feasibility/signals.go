// Package feasibility turns quick-analysis metrics captured for a site into
// short opportunity and risk statements.
package feasibility

import (
	"fmt"
	"strings"

	"github.com/harrison/sitecheck/internal/models"
)

// Metric keys read from QuickAnalysisEntry.Metrics.
const (
	MetricGrossFloorArea = "gross_floor_area"
	MetricPlotRatio      = "plot_ratio"
	MetricCostPerSqm     = "estimated_cost_per_sqm"
	MetricHeritageRisk   = "heritage_risk"
	MetricParkingRatio   = "parking_ratio"
	MetricYieldPercent   = "yield_percent"
	MetricSiteCoverage   = "site_coverage"
	MetricHeightLimit    = "height_limit_m"
)

// Signals are the derived statements for one scenario, in rule order.
type Signals struct {
	Opportunities []string `json:"opportunities"`
	Risks         []string `json:"risks"`
}

// Empty reports whether no rule fired.
func (s Signals) Empty() bool {
	return len(s.Opportunities) == 0 && len(s.Risks) == 0
}

// Thresholds are the cut-offs used by the rule table.
type Thresholds struct {
	LargeFloorAreaSqm float64 `yaml:"large_floor_area_sqm"`
	HighPlotRatio     float64 `yaml:"high_plot_ratio"`
	LowPlotRatio      float64 `yaml:"low_plot_ratio"`
	HighCostPerSqm    float64 `yaml:"high_cost_per_sqm"`
	HeritageRiskHigh  float64 `yaml:"heritage_risk_high"`
	MinParkingRatio   float64 `yaml:"min_parking_ratio"`
	StrongYield       float64 `yaml:"strong_yield_percent"`
	WeakYield         float64 `yaml:"weak_yield_percent"`
	MaxSiteCoverage   float64 `yaml:"max_site_coverage"`
	TallHeightLimitM  float64 `yaml:"tall_height_limit_m"`
	LargeSiteSqm      float64 `yaml:"large_site_sqm"`
	MinAmenities      int     `yaml:"min_amenities"`
}

// DefaultThresholds returns the stock cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LargeFloorAreaSqm: 5000,
		HighPlotRatio:     3.0,
		LowPlotRatio:      1.0,
		HighCostPerSqm:    4500,
		HeritageRiskHigh:  0.6,
		MinParkingRatio:   0.5,
		StrongYield:       6.0,
		WeakYield:         4.0,
		MaxSiteCoverage:   0.8,
		TallHeightLimitM:  30,
		LargeSiteSqm:      2000,
		MinAmenities:      3,
	}
}

// Validate checks that paired thresholds are ordered sensibly.
func (t Thresholds) Validate() error {
	if t.LowPlotRatio > t.HighPlotRatio {
		return fmt.Errorf("low_plot_ratio (%.2f) must not exceed high_plot_ratio (%.2f)", t.LowPlotRatio, t.HighPlotRatio)
	}
	if t.WeakYield > t.StrongYield {
		return fmt.Errorf("weak_yield_percent (%.2f) must not exceed strong_yield_percent (%.2f)", t.WeakYield, t.StrongYield)
	}
	if t.HeritageRiskHigh < 0 || t.HeritageRiskHigh > 1 {
		return fmt.Errorf("heritage_risk_high must be between 0 and 1, got %.2f", t.HeritageRiskHigh)
	}
	if t.MaxSiteCoverage < 0 || t.MaxSiteCoverage > 1 {
		return fmt.Errorf("max_site_coverage must be between 0 and 1, got %.2f", t.MaxSiteCoverage)
	}
	if t.MinAmenities < 0 {
		return fmt.Errorf("min_amenities must be non-negative, got %d", t.MinAmenities)
	}
	return nil
}

type kind int

const (
	opportunity kind = iota
	risk
)

type rule struct {
	kind  kind
	check func(e models.QuickAnalysisEntry, p models.PropertyContext, t Thresholds) (string, bool)
}

// metricRule fires when the metric is present and cmp holds.
func metricRule(k kind, key string, cmp func(v float64, t Thresholds) bool, format string) rule {
	return rule{
		kind: k,
		check: func(e models.QuickAnalysisEntry, _ models.PropertyContext, t Thresholds) (string, bool) {
			v, ok := e.Metrics[key]
			if !ok || !cmp(v, t) {
				return "", false
			}
			return fmt.Sprintf(format, v), true
		},
	}
}

// rules is evaluated top to bottom; output order follows it.
var rules = []rule{
	metricRule(opportunity, MetricGrossFloorArea,
		func(v float64, t Thresholds) bool { return v >= t.LargeFloorAreaSqm },
		"Gross floor area of %.0f m² supports a larger development program"),
	metricRule(opportunity, MetricPlotRatio,
		func(v float64, t Thresholds) bool { return v >= t.HighPlotRatio },
		"Plot ratio of %.1f allows intensification of the site"),
	metricRule(risk, MetricPlotRatio,
		func(v float64, t Thresholds) bool { return v < t.LowPlotRatio },
		"Plot ratio of %.1f limits achievable floor area"),
	metricRule(risk, MetricCostPerSqm,
		func(v float64, t Thresholds) bool { return v > t.HighCostPerSqm },
		"Estimated cost of %.0f per m² is above benchmark"),
	metricRule(risk, MetricHeritageRisk,
		func(v float64, t Thresholds) bool { return v >= t.HeritageRiskHigh },
		"Heritage risk score of %.2f suggests design and approval constraints"),
	metricRule(risk, MetricParkingRatio,
		func(v float64, t Thresholds) bool { return v < t.MinParkingRatio },
		"Parking ratio of %.2f is below typical requirements"),
	metricRule(opportunity, MetricYieldPercent,
		func(v float64, t Thresholds) bool { return v >= t.StrongYield },
		"Projected yield of %.1f%% is above market benchmark"),
	metricRule(risk, MetricYieldPercent,
		func(v float64, t Thresholds) bool { return v < t.WeakYield },
		"Projected yield of %.1f%% is below market benchmark"),
	metricRule(risk, MetricSiteCoverage,
		func(v float64, t Thresholds) bool { return v > t.MaxSiteCoverage },
		"Site coverage of %.2f leaves little room to extend"),
	metricRule(opportunity, MetricHeightLimit,
		func(v float64, t Thresholds) bool { return v >= t.TallHeightLimitM },
		"Height limit of %.0f m permits multi-storey development"),
	{
		kind: opportunity,
		check: func(_ models.QuickAnalysisEntry, p models.PropertyContext, t Thresholds) (string, bool) {
			if p.SiteAreaSqm <= 0 || p.SiteAreaSqm < t.LargeSiteSqm {
				return "", false
			}
			return fmt.Sprintf("Site area of %.0f m² gives flexibility in layout", p.SiteAreaSqm), true
		},
	},
	{
		kind: opportunity,
		check: func(_ models.QuickAnalysisEntry, p models.PropertyContext, _ Thresholds) (string, bool) {
			z := strings.ToLower(p.Zoning)
			if !strings.Contains(z, "mixed") && !strings.Contains(z, "commercial") {
				return "", false
			}
			return fmt.Sprintf("Zoning %q permits commercial or mixed uses", p.Zoning), true
		},
	},
	{
		kind: opportunity,
		check: func(_ models.QuickAnalysisEntry, p models.PropertyContext, t Thresholds) (string, bool) {
			if t.MinAmenities <= 0 || len(p.Amenities) < t.MinAmenities {
				return "", false
			}
			return fmt.Sprintf("Well served by %d nearby amenities", len(p.Amenities)), true
		},
	},
	{
		kind: risk,
		check: func(_ models.QuickAnalysisEntry, p models.PropertyContext, _ Thresholds) (string, bool) {
			if !p.HeritageListed {
				return "", false
			}
			return "Heritage-listed property: alterations need heritage approval", true
		},
	},
}

// Extractor applies the rule table with a fixed set of thresholds.
type Extractor struct {
	Thresholds Thresholds
}

// NewExtractor creates an extractor using t.
func NewExtractor(t Thresholds) *Extractor {
	return &Extractor{Thresholds: t}
}

// Extract runs every rule against entry and property. Missing metrics never fire.
func (x *Extractor) Extract(entry models.QuickAnalysisEntry, property models.PropertyContext) Signals {
	out := Signals{Opportunities: []string{}, Risks: []string{}}
	for _, r := range rules {
		text, ok := r.check(entry, property, x.Thresholds)
		if !ok {
			continue
		}
		if r.kind == risk {
			out.Risks = append(out.Risks, text)
		} else {
			out.Opportunities = append(out.Opportunities, text)
		}
	}
	return out
}

// Extract runs the rule table with DefaultThresholds.
func Extract(entry models.QuickAnalysisEntry, property models.PropertyContext) Signals {
	return NewExtractor(DefaultThresholds()).Extract(entry, property)
}
