package parser

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/payload"
)

// YAMLParser reads inspection reports written as a YAML document using the
// same keys as the JSON API (snake_case or camelCase).
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Parse(r io.Reader) (*models.ConditionAssessment, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("report is empty")
	}

	draft := payload.DecodeAssessment(raw)
	draft.ID = ""
	draft.RecordedAt = nil
	return &draft, nil
}
