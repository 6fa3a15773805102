// Package parser imports draft condition assessments and property captures
// from inspection report files.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/sitecheck/internal/models"
)

// Format identifies a report file format by extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatMarkdown
	FormatYAML
)

var formatNames = map[Format]string{
	FormatMarkdown: "markdown",
	FormatYAML:     "yaml",
}

var formatsByExt = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".yaml":     FormatYAML,
	".yml":      FormatYAML,
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Parser turns one report into an unsaved draft assessment.
type Parser interface {
	Parse(r io.Reader) (*models.ConditionAssessment, error)
}

// DetectFormat picks a format from the (case-insensitive) file extension.
func DetectFormat(filename string) Format {
	return formatsByExt[strings.ToLower(filepath.Ext(filename))]
}

// NewParser returns the parser for format.
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	}
	return nil, fmt.Errorf("unsupported format: %v", format)
}

// ParseFile detects the format of path, parses it and returns the draft.
// The result is always a draft: any recorded time in the file is dropped.
func ParseFile(path string) (*models.ConditionAssessment, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: .md, .markdown, .yaml, .yml)", path)
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	draft, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return draft, nil
}
