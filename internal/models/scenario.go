package models

import "strings"

// Scenario identifies a development approach applied to a captured property.
type Scenario string

const (
	// ScenarioAll is the sentinel for assessments that apply to every scenario
	ScenarioAll                   Scenario = "all"
	ScenarioRawLand               Scenario = "raw_land"
	ScenarioExistingBuilding      Scenario = "existing_building"
	ScenarioHeritageProperty      Scenario = "heritage_property"
	ScenarioUnderusedAsset        Scenario = "underused_asset"
	ScenarioMixedUseRedevelopment Scenario = "mixed_use_redevelopment"
	ScenarioNewConstruction       Scenario = "new_construction"
	ScenarioRenovation            Scenario = "renovation"
)

// Scenarios lists every concrete scenario in display order (the sentinel is excluded).
var Scenarios = []Scenario{
	ScenarioRawLand,
	ScenarioExistingBuilding,
	ScenarioHeritageProperty,
	ScenarioUnderusedAsset,
	ScenarioMixedUseRedevelopment,
	ScenarioNewConstruction,
	ScenarioRenovation,
}

// IsAll reports whether the scenario is the "applies to all" sentinel.
// The empty scenario is treated as the sentinel as well.
func (s Scenario) IsAll() bool {
	return s == ScenarioAll || s == ""
}

// IsKnown returns true for the sentinel and every concrete scenario.
func (s Scenario) IsKnown() bool {
	if s == ScenarioAll {
		return true
	}
	for _, known := range Scenarios {
		if s == known {
			return true
		}
	}
	return false
}

// ParseScenario normalizes a raw scenario string.
// Unknown or empty values map to ScenarioAll and ok=false.
func ParseScenario(raw string) (Scenario, bool) {
	s := Scenario(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return ScenarioAll, false
	}
	if !s.IsKnown() {
		return ScenarioAll, false
	}
	return s, true
}

// Label returns a human readable scenario name.
func (s Scenario) Label() string {
	if s.IsAll() {
		return "All scenarios"
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
