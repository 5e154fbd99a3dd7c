// Package plan extracts work items from refactor plan markdown documents.
//
// Parsing is deliberately line-oriented and brittle: plans are produced by
// our own PRD-driven planning step in a fixed layout, and a plan that drifts
// from that layout should fail loudly rather than be half-understood.
package plan

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/iterflow/iterflow/internal/domain"
)

var (
	itemHeadingRegex = regexp.MustCompile(`^##\s+(RI-\d{3}):\s+(.+)$`)
	labelRegex       = regexp.MustCompile(`^(Description|Rationale):\s*(.*)$`)
)

// ParseFile reads and parses a refactor plan from disk.
func ParseFile(path string) ([]domain.WorkItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read refactor plan: %w", err)
	}
	items, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse refactor plan %s: %w", path, err)
	}
	return items, nil
}

// Parse extracts the work items from plan content, in document order.
//
// Each item is a `## RI-NNN: Title` heading followed by `Description:` and
// `Rationale:` paragraphs. A label's text continues until a blank line or
// the next label/heading.
func Parse(content string) ([]domain.WorkItem, error) {
	var items []domain.WorkItem
	seen := make(map[string]bool)

	var cur *domain.WorkItem
	var label string
	var text strings.Builder

	flushLabel := func() {
		if cur == nil || label == "" {
			return
		}
		value := strings.TrimSpace(text.String())
		switch label {
		case "Description":
			cur.Description = value
		case "Rationale":
			cur.Rationale = value
		}
		label = ""
		text.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if m := itemHeadingRegex.FindStringSubmatch(line); m != nil {
			flushLabel()
			if seen[m[1]] {
				return nil, fmt.Errorf("duplicate work item id %s", m[1])
			}
			seen[m[1]] = true
			items = append(items, domain.WorkItem{ID: m[1], Title: strings.TrimSpace(m[2])})
			cur = &items[len(items)-1]
			continue
		}
		if m := labelRegex.FindStringSubmatch(line); m != nil && cur != nil {
			flushLabel()
			label = m[1]
			text.WriteString(m[2])
			continue
		}
		if strings.TrimSpace(line) == "" {
			flushLabel()
			continue
		}
		if label != "" {
			text.WriteString(" ")
			text.WriteString(strings.TrimSpace(line))
		}
	}
	flushLabel()

	if len(items) == 0 {
		return nil, fmt.Errorf("no work items found (expected `## RI-NNN: Title` headings)")
	}
	return items, nil
}
