package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/flow"
	"github.com/iterflow/iterflow/internal/state"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleWaiting = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	stylePending = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current iteration's progress",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	_, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	fmt.Println(styleTitle.Render(fmt.Sprintf("Iteration %s", it.CurrentIteration)))
	fmt.Printf("%s %s\n", styleLabel.Render("Guardrail:"), it.FlowGuardrail)
	fmt.Printf("%s %v\n", styleLabel.Render("Prototype approved:"), it.PrototypeApproved)
	if !it.LastUpdated.IsZero() {
		fmt.Printf("%s %s by %s\n", styleLabel.Render("Last updated:"), it.LastUpdated.Format("2006-01-02 15:04:05"), it.UpdatedBy)
	}
	fmt.Println()

	for _, path := range state.StepPaths {
		st := it.StepStatus(path)
		fmt.Printf("  %-40s %s\n", path, styleForStatus(st).Render(string(st)))
	}
	fmt.Println()

	d := flow.Resolve(it)
	switch d.Kind {
	case flow.DecisionStep:
		fmt.Printf("%s %s\n", styleLabel.Render("Next:"), styleActive.Render(string(d.Step)))
	case flow.DecisionApprovalGate:
		fmt.Printf("%s %s\n", styleLabel.Render("Waiting:"), styleWaiting.Render(d.GateMessage))
	case flow.DecisionBlocked:
		fmt.Printf("%s %s\n", styleLabel.Render("Blocked:"), d.Reason)
	case flow.DecisionComplete:
		fmt.Println(styleDone.Render("Iteration complete. Run `iterflow next` to start the next one."))
	}
	return nil
}

func styleForStatus(st state.Status) lipgloss.Style {
	switch st {
	case state.StatusCompleted, state.StatusApproved:
		return styleDone
	case state.StatusInProgress, state.StatusChangesRequested:
		return styleActive
	case state.StatusPendingApproval:
		return styleWaiting
	default:
		return stylePending
	}
}
