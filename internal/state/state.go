// Package state persists the iteration state document: the single source of
// truth for where an iteration stands in the define/prototype/refactor
// lifecycle.
package state

import (
	"fmt"
	"time"
)

// DefaultPath is the state file location relative to the project root.
const DefaultPath = ".iterflow/state.json"

// Status is the lifecycle status of a single workflow step.
type Status string

const (
	StatusPending          Status = "pending"
	StatusInProgress       Status = "in_progress"
	StatusPendingApproval  Status = "pending_approval"
	StatusChangesRequested Status = "changes_requested"
	StatusCompleted        Status = "completed"
	StatusApproved         Status = "approved"
)

// knownStatuses is the set of values accepted during schema validation.
var knownStatuses = map[Status]bool{
	StatusPending:          true,
	StatusInProgress:       true,
	StatusPendingApproval:  true,
	StatusChangesRequested: true,
	StatusCompleted:        true,
	StatusApproved:         true,
}

// Known reports whether s is a recognized step status.
func Known(s Status) bool {
	return knownStatuses[s]
}

// Guardrail modes stored in the flow_guardrail field.
const (
	GuardrailStrict  = "strict"
	GuardrailRelaxed = "relaxed"
)

// Step is a single per-step status record.
type Step struct {
	Status Status `json:"status"`
	File   string `json:"file,omitempty"`
}

// DefinePhase holds the requirement definition steps.
type DefinePhase struct {
	Requirement    Step `json:"requirement"`
	PRD            Step `json:"prd"`
	ProjectContext Step `json:"project_context"`
}

// PrototypePhase holds the prototype build and test steps.
type PrototypePhase struct {
	TestPlan      Step `json:"test_plan"`
	TPGeneration  Step `json:"tp_generation"`
	Build         Step `json:"build"`
	TestExecution Step `json:"test_execution"`
	Evaluation    Step `json:"evaluation"`
}

// RefactorPhase holds the refactor planning and execution steps.
type RefactorPhase struct {
	Plan      Step `json:"plan"`
	Execution Step `json:"execution"`
	Changelog Step `json:"changelog"`
}

// Phases nests all per-step status records.
type Phases struct {
	Define    DefinePhase    `json:"define"`
	Prototype PrototypePhase `json:"prototype"`
	Refactor  RefactorPhase  `json:"refactor"`
}

// ArchivedIteration records a completed iteration in the history list.
type ArchivedIteration struct {
	Iteration  string    `json:"iteration"`
	ArchivedAt time.Time `json:"archived_at"`
	Dir        string    `json:"dir"`
}

// Iteration is the persisted state document for the current iteration.
//
// CurrentPhase is advisory and may lag behind reality: a step handler can
// mutate several per-step statuses without touching it. Consumers must derive
// the true position from the per-step statuses, never from CurrentPhase alone.
type Iteration struct {
	CurrentIteration  string              `json:"current_iteration"`
	CurrentPhase      string              `json:"current_phase"`
	FlowGuardrail     string              `json:"flow_guardrail"`
	PrototypeApproved bool                `json:"prototype_approved"`
	LastUpdated       time.Time           `json:"last_updated"`
	UpdatedBy         string              `json:"updated_by"`
	Phases            Phases              `json:"phases"`
	History           []ArchivedIteration `json:"history"`
}

// New returns a fresh iteration document with every step pending.
func New(id string) *Iteration {
	p := Step{Status: StatusPending}
	return &Iteration{
		CurrentIteration: id,
		CurrentPhase:     "define",
		FlowGuardrail:    GuardrailStrict,
		Phases: Phases{
			Define:    DefinePhase{Requirement: p, PRD: p, ProjectContext: p},
			Prototype: PrototypePhase{TestPlan: p, TPGeneration: p, Build: p, TestExecution: p, Evaluation: p},
			Refactor:  RefactorPhase{Plan: p, Execution: p, Changelog: p},
		},
		History: []ArchivedIteration{},
	}
}

// NextIterationID returns the zero-padded id following cur.
func NextIterationID(cur string) (string, error) {
	var n int
	if _, err := fmt.Sscanf(cur, "%04d", &n); err != nil {
		return "", fmt.Errorf("parse iteration id %q: %w", cur, err)
	}
	return fmt.Sprintf("%04d", n+1), nil
}

// StepStatus returns the status at a dotted field path such as
// "phases.prototype.tp_generation". Unknown paths return an empty status.
func (it *Iteration) StepStatus(path string) Status {
	if s := it.step(path); s != nil {
		return s.Status
	}
	return ""
}

// StepFile returns the file recorded at a dotted field path.
func (it *Iteration) StepFile(path string) string {
	if s := it.step(path); s != nil {
		return s.File
	}
	return ""
}

func (it *Iteration) step(path string) *Step {
	switch path {
	case "phases.define.requirement":
		return &it.Phases.Define.Requirement
	case "phases.define.prd":
		return &it.Phases.Define.PRD
	case "phases.define.project_context":
		return &it.Phases.Define.ProjectContext
	case "phases.prototype.test_plan":
		return &it.Phases.Prototype.TestPlan
	case "phases.prototype.tp_generation":
		return &it.Phases.Prototype.TPGeneration
	case "phases.prototype.build":
		return &it.Phases.Prototype.Build
	case "phases.prototype.test_execution":
		return &it.Phases.Prototype.TestExecution
	case "phases.prototype.evaluation":
		return &it.Phases.Prototype.Evaluation
	case "phases.refactor.plan":
		return &it.Phases.Refactor.Plan
	case "phases.refactor.execution":
		return &it.Phases.Refactor.Execution
	case "phases.refactor.changelog":
		return &it.Phases.Refactor.Changelog
	}
	return nil
}

// StepPaths lists every per-step field path in canonical lifecycle order.
var StepPaths = []string{
	"phases.define.requirement",
	"phases.define.prd",
	"phases.define.project_context",
	"phases.prototype.test_plan",
	"phases.prototype.tp_generation",
	"phases.prototype.build",
	"phases.prototype.test_execution",
	"phases.prototype.evaluation",
	"phases.refactor.plan",
	"phases.refactor.execution",
	"phases.refactor.changelog",
}
