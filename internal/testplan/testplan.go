// Package testplan extracts test cases from approved test plan documents and
// generates the structured JSON consumed by the test execution step.
//
// Like package plan, the markdown parsing is line-oriented and brittle by
// design: the documents come from our own planning step in a fixed layout.
package testplan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/iterflow/iterflow/internal/domain"
)

var (
	caseHeadingRegex = regexp.MustCompile(`^##\s+(TC-\d{3}):\s+(.+)$`)
	stepRegex        = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	expectedRegex    = regexp.MustCompile(`^Expected:\s*(.+)$`)
)

// Parse extracts the test cases from test plan content, in document order.
//
// Each case is a `## TC-NNN: Name` heading followed by a numbered step list
// and an `Expected:` line.
func Parse(content string) ([]domain.TestCase, error) {
	var cases []domain.TestCase
	seen := make(map[string]bool)
	var cur *domain.TestCase

	for _, line := range strings.Split(content, "\n") {
		if m := caseHeadingRegex.FindStringSubmatch(line); m != nil {
			if seen[m[1]] {
				return nil, fmt.Errorf("duplicate test case id %s", m[1])
			}
			seen[m[1]] = true
			cases = append(cases, domain.TestCase{ID: m[1], Name: strings.TrimSpace(m[2])})
			cur = &cases[len(cases)-1]
			continue
		}
		if cur == nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if m := stepRegex.FindStringSubmatch(trimmed); m != nil {
			cur.Steps = append(cur.Steps, strings.TrimSpace(m[1]))
			continue
		}
		if m := expectedRegex.FindStringSubmatch(trimmed); m != nil {
			cur.Expected = strings.TrimSpace(m[1])
		}
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found (expected `## TC-NNN: Name` headings)")
	}
	return cases, nil
}

// ParseFile reads and parses a test plan document from disk.
func ParseFile(path string) ([]domain.TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test plan: %w", err)
	}
	cases, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse test plan %s: %w", path, err)
	}
	return cases, nil
}

// document is the generated JSON shape.
type document struct {
	Cases []domain.TestCase `json:"cases"`
}

// WriteJSON persists the extracted cases with the shared JSON conventions
// (two-space pretty print, trailing newline).
func WriteJSON(path string, cases []domain.TestCase) error {
	data, err := json.Marshal(document{Cases: cases})
	if err != nil {
		return fmt.Errorf("encode test plan: %w", err)
	}
	out := pretty.PrettyOptions(data, &pretty.Options{Indent: "  "})
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create test plan dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write test plan JSON: %w", err)
	}
	return nil
}

// LoadJSON reads previously generated test cases.
func LoadJSON(path string) ([]domain.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test plan JSON: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed test plan JSON %s: %w", path, err)
	}
	if len(doc.Cases) == 0 {
		return nil, fmt.Errorf("test plan JSON %s contains no cases", path)
	}
	return doc.Cases, nil
}
