package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/guardrail"
	"github.com/iterflow/iterflow/internal/state"
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Request changes to a gated artifact",
	Long: `Refine marks a gated artifact as needing changes. The next flow run invokes
the agent with the refine prompt and any notes given here, then returns the
artifact to the approval gate.

Examples:
  iterflow refine test-plan "cover the timeout path in TC-004"
  iterflow refine refactor-plan`,
}

var refineTestPlanCmd = &cobra.Command{
	Use:   "test-plan [notes]",
	Short: "Request changes to the test plan",
	Args:  cobra.ArbitraryArgs,
	RunE: func(_ *cobra.Command, args []string) error {
		return refinePlan("phases.prototype.test_plan", "test plan", "test_plan_notes.md", args)
	},
}

var refineRefactorPlanCmd = &cobra.Command{
	Use:   "refactor-plan [notes]",
	Short: "Request changes to the refactor plan",
	Args:  cobra.ArbitraryArgs,
	RunE: func(_ *cobra.Command, args []string) error {
		return refinePlan("phases.refactor.plan", "refactor plan", "refactor_plan_notes.md", args)
	},
}

func init() {
	refineCmd.AddCommand(refineTestPlanCmd)
	refineCmd.AddCommand(refineRefactorPlanCmd)
}

// refinePlan moves a plan step to changes_requested and records the
// operator's notes for the refine prompt.
func refinePlan(stepPath, label, notesFile string, args []string) error {
	cfg, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	st := it.StepStatus(stepPath)
	violated := st != state.StatusPendingApproval && st != state.StatusApproved
	msg := fmt.Sprintf("%s has nothing to refine (status: %s)", label, st)
	if err := guardrail.New().Check(it.FlowGuardrail, violated, msg, flagForce); err != nil {
		return err
	}

	if notes := strings.TrimSpace(strings.Join(args, " ")); notes != "" {
		docsDir := cfg.IterationDocsDir(it.CurrentIteration)
		if err := os.MkdirAll(docsDir, 0o755); err != nil {
			return fmt.Errorf("create docs dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(docsDir, notesFile), []byte(notes+"\n"), 0o644); err != nil {
			return fmt.Errorf("write refine notes: %w", err)
		}
	}

	if err := store.SetStatus(stepPath, state.StatusChangesRequested); err != nil {
		return err
	}
	fmt.Printf("Requested changes to the %s. Run `iterflow flow` to refine it.\n", label)
	return nil
}
