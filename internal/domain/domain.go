// Package domain defines the shared model types used across iterflow:
// WorkItem, TestCase, and their identifier conventions.
package domain

import "regexp"

var (
	// WorkItemIDPattern matches refactor work item identifiers (RI-001, RI-002, ...).
	WorkItemIDPattern = regexp.MustCompile(`^RI-\d{3}$`)

	// TestCaseIDPattern matches test case identifiers (TC-001, TC-002, ...).
	TestCaseIDPattern = regexp.MustCompile(`^TC-\d{3}$`)

	// IterationIDPattern matches zero-padded iteration identifiers (0001, 0002, ...).
	IterationIDPattern = regexp.MustCompile(`^\d{4}$`)
)

// WorkItem represents a single unit of an agent-executable batch, produced by
// an upstream planning step. It is immutable input to a batch run.
type WorkItem struct {
	// ID is a stable identifier matching WorkItemIDPattern.
	ID string
	// Title is the human-readable title of the item.
	Title string
	// Description explains what the item changes.
	Description string
	// Rationale explains why the change is needed.
	Rationale string
}

// TestCase represents a single executable case from an approved test plan.
type TestCase struct {
	// ID is a stable identifier matching TestCaseIDPattern.
	ID string `json:"id"`
	// Name is the human-readable case name.
	Name string `json:"name"`
	// Steps describe how to exercise the prototype.
	Steps []string `json:"steps"`
	// Expected is the expected observable outcome.
	Expected string `json:"expected"`
}

// IDs returns the identifiers of the given work items in definition order.
func IDs(items []WorkItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// TestCaseIDs returns the identifiers of the given test cases in definition order.
func TestCaseIDs(cases []TestCase) []string {
	ids := make([]string, len(cases))
	for i, tc := range cases {
		ids[i] = tc.ID
	}
	return ids
}
