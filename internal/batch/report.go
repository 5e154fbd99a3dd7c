package batch

import (
	"fmt"
	"strings"

	"github.com/iterflow/iterflow/internal/ledger"
)

// BuildReport renders the full-run report as markdown: run totals followed by
// a per-item table. It is generated regardless of outcome.
func BuildReport(spec RunSpec, entries []ledger.Entry) string {
	titles := make(map[string]string, len(spec.Tasks))
	for _, t := range spec.Tasks {
		titles[t.ID] = t.Title
	}

	var completed, failed int
	for _, e := range entries {
		switch e.Status {
		case ledger.StatusCompleted:
			completed++
		case ledger.StatusFailed:
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Batch report: iteration %s, %s\n\n", spec.Iteration, spec.Kind)
	fmt.Fprintf(&b, "Total: %d\n", len(entries))
	fmt.Fprintf(&b, "Completed: %d\n", completed)
	fmt.Fprintf(&b, "Failed: %d\n\n", failed)

	b.WriteString("| ID | Title | Status | Exit |\n")
	b.WriteString("|----|-------|--------|------|\n")
	for _, e := range entries {
		exit := "-"
		if e.LastAgentExitCode != nil {
			exit = fmt.Sprintf("%d", *e.LastAgentExitCode)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", e.ID, titles[e.ID], e.Status, exit)
	}
	return b.String()
}
