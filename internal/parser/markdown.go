package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/payload"
)

// MarkdownParser reads inspection reports written as Markdown.
//
// Overall fields come from YAML frontmatter. Paragraphs before the first
// "##" heading form the summary, "## Context" holds the scenario context,
// each "## System: <name>" section lists "Key: value" bullets (rating, score,
// notes, action) and "## Recommended Actions" lists overall actions.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

var (
	systemHeadingRegex = regexp.MustCompile(`(?i)^system:\s*(.+)$`)
	keyValueRegex      = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?)\s*:\s*(.*)$`)
)

type section int

const (
	sectionSummary section = iota
	sectionContext
	sectionSystem
	sectionActions
	sectionOther
)

func (p *MarkdownParser) Parse(r io.Reader) (*models.ConditionAssessment, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	raw := map[string]any{}
	content, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		if err := yaml.Unmarshal(frontmatter, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	var (
		summary    []string
		contextTxt []string
		actions    []any
		systems    []any
		current    map[string]any
		sec        = sectionSummary
	)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 {
				continue
			}
			heading := strings.TrimSpace(nodeText(node, content))
			if m := systemHeadingRegex.FindStringSubmatch(heading); m != nil {
				current = map[string]any{"name": strings.TrimSpace(m[1]), "recommendedActions": []any{}}
				systems = append(systems, current)
				sec = sectionSystem
				continue
			}
			current = nil
			switch strings.ToLower(heading) {
			case "context", "scenario context":
				sec = sectionContext
			case "recommended actions", "actions":
				sec = sectionActions
			default:
				sec = sectionOther
			}

		case *ast.Paragraph:
			para := strings.TrimSpace(nodeText(node, content))
			switch sec {
			case sectionSummary:
				summary = append(summary, para)
			case sectionContext:
				contextTxt = append(contextTxt, para)
			case sectionSystem:
				appendNote(current, para)
			}

		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				line := strings.TrimSpace(nodeText(item, content))
				if line == "" {
					continue
				}
				switch sec {
				case sectionActions:
					actions = append(actions, line)
				case sectionSystem:
					applySystemField(current, line)
				}
			}
		}
	}

	if len(summary) > 0 {
		if _, set := raw["summary"]; !set {
			raw["summary"] = strings.Join(summary, "\n\n")
		}
	}
	if len(contextTxt) > 0 {
		raw["scenario_context"] = strings.Join(contextTxt, "\n\n")
	}
	if len(actions) > 0 {
		raw["recommended_actions"] = actions
	}
	if len(systems) > 0 {
		raw["systems"] = systems
	}

	draft := payload.DecodeAssessment(raw)
	draft.ID = ""
	draft.RecordedAt = nil
	return &draft, nil
}

// applySystemField sets one "Key: value" bullet on a system. Bullets without
// a recognised key become notes.
func applySystemField(system map[string]any, line string) {
	m := keyValueRegex.FindStringSubmatch(line)
	if m == nil {
		appendNote(system, line)
		return
	}
	value := strings.TrimSpace(m[2])
	switch strings.ToLower(strings.TrimSpace(m[1])) {
	case "rating":
		system["rating"] = value
	case "score":
		system["score"] = value
	case "notes", "note":
		appendNote(system, value)
	case "action", "recommended action":
		system["recommendedActions"] = append(system["recommendedActions"].([]any), value)
	default:
		appendNote(system, line)
	}
}

func appendNote(system map[string]any, note string) {
	if system == nil || note == "" {
		return
	}
	if existing, ok := system["notes"].(string); ok && existing != "" {
		system["notes"] = existing + " " + note
		return
	}
	system["notes"] = note
}

// nodeText concatenates the text segments below n.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// extractFrontmatter splits a leading "---" delimited YAML block from the body.
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	return content, nil
}
