// Package prompt builds the instruction text handed to agent invocations,
// one template per workflow step.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/iterflow/iterflow/internal/domain"
)

// Data carries the file paths a step template may reference. Paths are
// relative to the project root.
type Data struct {
	Iteration       string
	RequirementFile string
	PRDFile         string
	ContextFile     string
	TestPlanFile    string
	TestPlanJSON    string
	EvaluationFile  string
	RefactorPlan    string
	ChangelogFile   string
	ChangedFiles    []string
	Notes           string
}

var stepTemplates = map[string]string{
	"requirement": `You are starting iteration {{.Iteration}}. Work with the user to define the
requirement for this iteration, then write the agreed requirement to
{{.RequirementFile}}. Keep it short and testable.`,

	"prd": `Read the requirement in {{.RequirementFile}} and write a PRD to {{.PRDFile}}.
Cover goals, non-goals, user-facing behavior, and acceptance criteria.`,

	"project_context": `Read {{.RequirementFile}} and {{.PRDFile}}, survey the repository, and write a
project context document to {{.ContextFile}}: relevant modules, constraints,
and integration points for this iteration.`,

	"test_plan": `Read {{.PRDFile}} and write a test plan to {{.TestPlanFile}}. Use one
"## TC-NNN: Name" section per case with a numbered step list and an
"Expected:" line. Ids start at TC-001 and are sequential.`,

	"test_plan_refine": `The test plan in {{.TestPlanFile}} has requested changes.
{{if .Notes}}Reviewer notes: {{.Notes}}
{{end}}Revise the document in place, keeping the "## TC-NNN: Name" layout and
existing case ids stable where the cases survive.`,

	"build": `Implement the prototype described by {{.PRDFile}} and {{.ContextFile}}.
Build until the acceptance criteria in the PRD are plausibly met.`,

	"evaluation": `Write an evaluation report to {{.EvaluationFile}} for iteration
{{.Iteration}}: compare the prototype against {{.PRDFile}}, summarize test
results, and list shortcomings worth refactoring.
{{if .ChangedFiles}}Files changed this iteration:
{{range .ChangedFiles}}- {{.}}
{{end}}{{end}}`,

	"refactor_plan": `Read {{.EvaluationFile}} and write a refactor plan to {{.RefactorPlan}}.
Use one "## RI-NNN: Title" section per item with "Description:" and
"Rationale:" paragraphs. Ids start at RI-001 and are sequential.`,

	"refactor_plan_refine": `The refactor plan in {{.RefactorPlan}} has requested changes.
{{if .Notes}}Reviewer notes: {{.Notes}}
{{end}}Revise the document in place, keeping the "## RI-NNN: Title" layout and
existing item ids stable where the items survive.`,

	"changelog": `Write a changelog entry for iteration {{.Iteration}} to {{.ChangelogFile}}:
what was built, what was refactored, and notable decisions.
{{if .ChangedFiles}}Files changed this iteration:
{{range .ChangedFiles}}- {{.}}
{{end}}{{end}}`,
}

// ForStep renders the prompt template for a named step.
func ForStep(step string, d Data) (string, error) {
	text, ok := stepTemplates[step]
	if !ok {
		return "", fmt.Errorf("no prompt template for step %q", step)
	}
	tmpl, err := template.New(step).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template %q: %w", step, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, d); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", step, err)
	}
	return b.String(), nil
}

// ForWorkItem builds the prompt for one refactor work item.
func ForWorkItem(item domain.WorkItem, planFile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execute refactor item %s from %s.\n\n", item.ID, planFile)
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	if item.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", item.Description)
	}
	if item.Rationale != "" {
		fmt.Fprintf(&b, "Rationale: %s\n", item.Rationale)
	}
	b.WriteString("\nApply exactly this item, keep the build green, and exit non-zero if you cannot complete it.\n")
	return b.String()
}

// ForTestCase builds the prompt for executing one test case against the
// prototype.
func ForTestCase(tc domain.TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execute test case %s: %s\n\nSteps:\n", tc.ID, tc.Name)
	for i, s := range tc.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	if tc.Expected != "" {
		fmt.Fprintf(&b, "\nExpected: %s\n", tc.Expected)
	}
	b.WriteString("\nRun the steps against the prototype. Exit 0 only if the expected outcome is observed.\n")
	return b.String()
}
