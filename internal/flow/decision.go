// Package flow derives the single next actionable step from persisted
// iteration state and drives step execution until the engine reaches an
// approval gate, a blocked diagnostic, or completion.
package flow

// StepName identifies a runnable workflow step.
type StepName string

const (
	StepRequirement        StepName = "requirement"
	StepPRD                StepName = "prd"
	StepProjectContext     StepName = "project_context"
	StepTestPlan           StepName = "test_plan"
	StepTestPlanRefine     StepName = "test_plan_refine"
	StepTPGeneration       StepName = "tp_generation"
	StepBuild              StepName = "build"
	StepTestExecution      StepName = "test_execution"
	StepEvaluation         StepName = "evaluation"
	StepRefactorPlan       StepName = "refactor_plan"
	StepRefactorPlanRefine StepName = "refactor_plan_refine"
	StepRefactorExecution  StepName = "refactor_execution"
	StepChangelog          StepName = "changelog"
)

// DecisionKind identifies the kind of decision the resolver reached.
type DecisionKind int

const (
	// DecisionStep tells the runner to execute Step.
	DecisionStep DecisionKind = iota
	// DecisionApprovalGate means a human sign-off is required before the
	// engine can advance.
	DecisionApprovalGate
	// DecisionBlocked means the state is internally inconsistent and needs
	// operator intervention. Reason names the offending field path.
	DecisionBlocked
	// DecisionComplete means every step has reached its terminal status.
	DecisionComplete
)

// Decision is the resolver's verdict: exactly one of the payload groups is
// meaningful, selected by Kind.
type Decision struct {
	Kind DecisionKind

	// Step to run (DecisionStep).
	Step StepName

	// Approval gate details (DecisionApprovalGate).
	GateMessage string
	GateTarget  string

	// Diagnostic (DecisionBlocked).
	Reason string

	// Iteration id (always set).
	Iteration string
}
