package flow

import (
	"fmt"

	"github.com/iterflow/iterflow/internal/state"
)

// stepSpec describes one position in the canonical step ordering: which
// state field it reads, which steps run for its non-terminal statuses, and
// which statuses let the walk advance past it.
type stepSpec struct {
	path        string
	run         StepName
	refine      StepName // step for changes_requested; empty means not refinable
	gateMessage string   // approval gate text; empty means pending_approval is unexpected
	gateTarget  string
	terminal    map[state.Status]bool
}

func completedOnly() map[state.Status]bool {
	return map[state.Status]bool{state.StatusCompleted: true}
}

// canonicalSteps is the fixed ordering the resolver walks. It is independent
// of the advisory current_phase label on the state document.
var canonicalSteps = []stepSpec{
	{path: "phases.define.requirement", run: StepRequirement, terminal: completedOnly()},
	{path: "phases.define.prd", run: StepPRD, terminal: completedOnly()},
	{path: "phases.define.project_context", run: StepProjectContext, terminal: completedOnly()},
	{
		path:        "phases.prototype.test_plan",
		run:         StepTestPlan,
		refine:      StepTestPlanRefine,
		gateMessage: "Test plan awaiting approval. Run `iterflow approve test-plan` to approve, or `iterflow refine test-plan` to request changes.",
		gateTarget:  "test-plan",
		terminal:    map[state.Status]bool{state.StatusApproved: true},
	},
	{path: "phases.prototype.tp_generation", run: StepTPGeneration, terminal: completedOnly()},
	{path: "phases.prototype.build", run: StepBuild, terminal: completedOnly()},
	{path: "phases.prototype.test_execution", run: StepTestExecution, terminal: completedOnly()},
	{path: "phases.prototype.evaluation", run: StepEvaluation, terminal: completedOnly()},
	{
		path:        "phases.refactor.plan",
		run:         StepRefactorPlan,
		refine:      StepRefactorPlanRefine,
		gateMessage: "Refactor plan awaiting approval. Run `iterflow approve refactor-plan` to approve, or `iterflow refine refactor-plan` to request changes.",
		gateTarget:  "refactor-plan",
		terminal:    map[state.Status]bool{state.StatusApproved: true},
	},
	{path: "phases.refactor.execution", run: StepRefactorExecution, terminal: completedOnly()},
	{path: "phases.refactor.changelog", run: StepChangelog, terminal: completedOnly()},
}

// Resolve walks the canonical step ordering and returns the single next
// action. It never trusts current_phase: the true position is derived from
// the per-step statuses alone, so a stale phase label cannot misroute the
// engine.
func Resolve(it *state.Iteration) Decision {
	for _, spec := range canonicalSteps {
		// The prototype approval gate sits between test execution and the
		// evaluation report.
		if spec.path == "phases.prototype.evaluation" && !it.PrototypeApproved {
			return Decision{
				Kind:        DecisionApprovalGate,
				GateMessage: "Prototype awaiting approval. Run `iterflow approve prototype` once the test results are acceptable.",
				GateTarget:  "prototype",
				Iteration:   it.CurrentIteration,
			}
		}

		st := it.StepStatus(spec.path)
		switch {
		case spec.terminal[st]:
			continue
		case st == state.StatusPending || st == state.StatusInProgress:
			return Decision{Kind: DecisionStep, Step: spec.run, Iteration: it.CurrentIteration}
		case st == state.StatusPendingApproval && spec.gateMessage != "":
			return Decision{
				Kind:        DecisionApprovalGate,
				GateMessage: spec.gateMessage,
				GateTarget:  spec.gateTarget,
				Iteration:   it.CurrentIteration,
			}
		case st == state.StatusChangesRequested && spec.refine != "":
			return Decision{Kind: DecisionStep, Step: spec.refine, Iteration: it.CurrentIteration}
		default:
			return Decision{
				Kind:      DecisionBlocked,
				Reason:    fmt.Sprintf("unexpected status %q at %s", st, spec.path),
				Iteration: it.CurrentIteration,
			}
		}
	}

	return Decision{Kind: DecisionComplete, Iteration: it.CurrentIteration}
}
