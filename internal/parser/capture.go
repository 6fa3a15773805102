package parser

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/sitecheck/internal/models"
)

// ParseCapture reads a YAML property capture. Quick-analysis scenarios are
// normalized and entries for unknown scenarios are dropped.
func ParseCapture(r io.Reader) (*models.PropertyCapture, error) {
	var capture models.PropertyCapture
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&capture); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("capture is empty")
		}
		return nil, fmt.Errorf("failed to parse capture: %w", err)
	}

	if capture.Property.ID == "" {
		return nil, fmt.Errorf("capture is missing property.id")
	}
	if capture.Property.Amenities == nil {
		capture.Property.Amenities = []string{}
	}

	entries := make([]models.QuickAnalysisEntry, 0, len(capture.QuickAnalysis))
	for _, entry := range capture.QuickAnalysis {
		scenario, ok := models.ParseScenario(string(entry.Scenario))
		if !ok {
			continue
		}
		entry.Scenario = scenario
		if entry.Metrics == nil {
			entry.Metrics = map[string]float64{}
		}
		entries = append(entries, entry)
	}
	capture.QuickAnalysis = entries
	return &capture, nil
}

// ParseCaptureFile opens path and parses it as a capture.
func ParseCaptureFile(path string) (*models.PropertyCapture, error) {
	if DetectFormat(path) != FormatYAML {
		return nil, fmt.Errorf("capture must be a YAML file: %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ParseCapture(file)
}
