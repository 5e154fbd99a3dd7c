package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/guardrail"
	"github.com/iterflow/iterflow/internal/state"
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a gated artifact",
	Long: `Approve marks a gated artifact as accepted so the flow can continue past it.

Approving something that is not awaiting approval is a guardrail violation:
blocked under strict mode, confirmed interactively under relaxed mode,
bypassed with --force.`,
}

var approveTestPlanCmd = &cobra.Command{
	Use:   "test-plan",
	Short: "Approve the test plan",
	Args:  cobra.NoArgs,
	RunE:  runApproveTestPlan,
}

var approvePrototypeCmd = &cobra.Command{
	Use:   "prototype",
	Short: "Approve the prototype after test execution",
	Args:  cobra.NoArgs,
	RunE:  runApprovePrototype,
}

var approveRefactorPlanCmd = &cobra.Command{
	Use:   "refactor-plan",
	Short: "Approve the refactor plan",
	Args:  cobra.NoArgs,
	RunE:  runApproveRefactorPlan,
}

func init() {
	approveCmd.AddCommand(approveTestPlanCmd)
	approveCmd.AddCommand(approvePrototypeCmd)
	approveCmd.AddCommand(approveRefactorPlanCmd)
}

func runApproveTestPlan(_ *cobra.Command, _ []string) error {
	return approvePlan("phases.prototype.test_plan", "test plan")
}

func runApproveRefactorPlan(_ *cobra.Command, _ []string) error {
	return approvePlan("phases.refactor.plan", "refactor plan")
}

// approvePlan moves a plan step from pending_approval to approved.
func approvePlan(stepPath, label string) error {
	_, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	st := it.StepStatus(stepPath)
	violated := st != state.StatusPendingApproval
	msg := fmt.Sprintf("%s is not awaiting approval (status: %s)", label, st)
	if err := guardrail.New().Check(it.FlowGuardrail, violated, msg, flagForce); err != nil {
		return err
	}

	if err := store.SetStatus(stepPath, state.StatusApproved); err != nil {
		return err
	}
	fmt.Printf("Approved %s for iteration %s.\n", label, it.CurrentIteration)
	return nil
}

func runApprovePrototype(_ *cobra.Command, _ []string) error {
	_, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	st := it.StepStatus("phases.prototype.test_execution")
	violated := st != state.StatusCompleted
	msg := fmt.Sprintf("prototype cannot be approved: test execution status is %q", st)
	if err := guardrail.New().Check(it.FlowGuardrail, violated, msg, flagForce); err != nil {
		return err
	}

	if err := store.Update(state.Field{Path: "prototype_approved", Value: true}); err != nil {
		return err
	}
	fmt.Printf("Approved prototype for iteration %s.\n", it.CurrentIteration)
	return nil
}
