package flow

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iterflow/iterflow/internal/agent"
	"github.com/iterflow/iterflow/internal/config"
	"github.com/iterflow/iterflow/internal/domain"
	"github.com/iterflow/iterflow/internal/ledger"
	"github.com/iterflow/iterflow/internal/state"
	"github.com/iterflow/iterflow/internal/testplan"
)

// scriptInvoker replies with a fixed exit code and runs an optional side
// effect (like writing the document the step expects).
type scriptInvoker struct {
	exitCode int
	err      error
	onInvoke func(req agent.Request)
	requests []agent.Request
}

func (s *scriptInvoker) Invoke(_ context.Context, req agent.Request) (*agent.Result, error) {
	s.requests = append(s.requests, req)
	if s.onInvoke != nil {
		s.onInvoke(req)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &agent.Result{ExitCode: s.exitCode}, nil
}

type stepsEnv struct {
	cfg   *config.Config
	store *state.Store
	steps *Steps
	inv   *scriptInvoker
	out   *bytes.Buffer
}

func newStepsEnv(t *testing.T) *stepsEnv {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load(root)
	require.NoError(t, err)

	store := state.NewStoreWithClock(cfg.StatePath(), func() time.Time {
		return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	})
	require.NoError(t, store.Save(state.New("0001")))

	inv := &scriptInvoker{}
	out := &bytes.Buffer{}
	return &stepsEnv{
		cfg:   cfg,
		store: store,
		inv:   inv,
		out:   out,
		steps: &Steps{
			Store:      store,
			Cfg:        cfg,
			NewInvoker: func(string) (agent.Invoker, error) { return inv, nil },
			Out:        out,
			Clock:      time.Now,
		},
	}
}

func (e *stepsEnv) load(t *testing.T) *state.Iteration {
	t.Helper()
	it, err := e.store.Load()
	require.NoError(t, err)
	return it
}

func (e *stepsEnv) docsDir() string {
	return e.cfg.IterationDocsDir("0001")
}

func TestSteps_DocStepHappyPath(t *testing.T) {
	env := newStepsEnv(t)
	outPath := filepath.Join(env.docsDir(), "prd.md")

	var statusDuringInvoke state.Status
	env.inv.onInvoke = func(agent.Request) {
		// The in_progress mark must already be on disk when the agent runs.
		it, err := env.store.Load()
		require.NoError(t, err)
		statusDuringInvoke = it.StepStatus("phases.define.prd")
		require.NoError(t, os.WriteFile(outPath, []byte("# PRD\n"), 0o644))
	}

	handler := env.steps.Handlers()[StepPRD]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	assert.Equal(t, state.StatusInProgress, statusDuringInvoke)

	it := env.load(t)
	assert.Equal(t, state.StatusCompleted, it.StepStatus("phases.define.prd"))
	assert.Equal(t, outPath, it.StepFile("phases.define.prd"))

	require.Len(t, env.inv.requests, 1)
	req := env.inv.requests[0]
	assert.Contains(t, req.Prompt, "requirement.md")
	assert.Contains(t, req.Prompt, "prd.md")
	assert.Equal(t, env.cfg.Root(), req.WorkingDir)
	assert.False(t, req.Interactive)
}

func TestSteps_RequirementStepIsInteractive(t *testing.T) {
	env := newStepsEnv(t)
	env.inv.onInvoke = func(agent.Request) {
		require.NoError(t, os.WriteFile(filepath.Join(env.docsDir(), "requirement.md"), []byte("req\n"), 0o644))
	}

	handler := env.steps.Handlers()[StepRequirement]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	require.Len(t, env.inv.requests, 1)
	assert.True(t, env.inv.requests[0].Interactive)
}

func TestSteps_DocStepAgentExitNonZero(t *testing.T) {
	env := newStepsEnv(t)
	env.inv.exitCode = 2

	handler := env.steps.Handlers()[StepPRD]
	err := handler(context.Background(), env.load(t), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent exited with code 2")

	// The step stays in_progress so a rerun retries it.
	assert.Equal(t, state.StatusInProgress, env.load(t).StepStatus("phases.define.prd"))
}

func TestSteps_DocStepMissingDocument(t *testing.T) {
	env := newStepsEnv(t)
	// Agent exits 0 but never writes the file.

	handler := env.steps.Handlers()[StepPRD]
	err := handler(context.Background(), env.load(t), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not write")
}

func TestSteps_PlanStepsEndPendingApproval(t *testing.T) {
	env := newStepsEnv(t)
	env.inv.onInvoke = func(agent.Request) {
		require.NoError(t, os.WriteFile(filepath.Join(env.docsDir(), "test_plan.md"), []byte("## TC-001: smoke\n1. run it\nExpected: works\n"), 0o644))
	}

	handler := env.steps.Handlers()[StepTestPlan]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	assert.Equal(t, state.StatusPendingApproval, env.load(t).StepStatus("phases.prototype.test_plan"))
}

func TestSteps_RefineShowsDiffAndNotes(t *testing.T) {
	env := newStepsEnv(t)
	docsDir := env.docsDir()
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	planPath := filepath.Join(docsDir, "test_plan.md")
	require.NoError(t, os.WriteFile(planPath, []byte("## TC-001: smoke\n1. run it\nExpected: works\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "test_plan_notes.md"), []byte("cover the timeout path\n"), 0o644))

	env.inv.onInvoke = func(agent.Request) {
		require.NoError(t, os.WriteFile(planPath, []byte("## TC-001: smoke\n1. run it with a timeout\nExpected: works\n"), 0o644))
	}

	handler := env.steps.Handlers()[StepTestPlanRefine]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	require.Len(t, env.inv.requests, 1)
	assert.Contains(t, env.inv.requests[0].Prompt, "cover the timeout path",
		"reviewer notes feed the refine prompt")

	assert.Contains(t, env.out.String(), "a/test_plan.md")
	assert.Contains(t, env.out.String(), "+1. run it with a timeout")
	assert.Equal(t, state.StatusPendingApproval, env.load(t).StepStatus("phases.prototype.test_plan"))
}

func TestSteps_TPGeneration(t *testing.T) {
	env := newStepsEnv(t)
	docsDir := env.docsDir()
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	mdPath := filepath.Join(docsDir, "test_plan.md")
	require.NoError(t, os.WriteFile(mdPath, []byte(
		"## TC-001: smoke\n1. start the service\nExpected: it starts\n\n## TC-002: shutdown\n1. stop it\nExpected: clean exit\n"), 0o644))
	require.NoError(t, env.store.Update(
		state.Field{Path: "phases.prototype.test_plan.status", Value: string(state.StatusApproved)},
		state.Field{Path: "phases.prototype.test_plan.file", Value: mdPath},
	))

	handler := env.steps.Handlers()[StepTPGeneration]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	it := env.load(t)
	assert.Equal(t, state.StatusCompleted, it.StepStatus("phases.prototype.tp_generation"))
	jsonPath := it.StepFile("phases.prototype.tp_generation")
	require.NotEmpty(t, jsonPath)

	cases, err := testplan.LoadJSON(jsonPath)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "TC-001", cases[0].ID)
	assert.Equal(t, []string{"stop it"}, cases[1].Steps)

	assert.Empty(t, env.inv.requests, "test plan generation runs no agent")
}

func TestSteps_TestExecutionCompletes(t *testing.T) {
	env := newStepsEnv(t)
	jsonPath := filepath.Join(env.docsDir(), "test_plan.json")
	require.NoError(t, testplan.WriteJSON(jsonPath, []domain.TestCase{
		{ID: "TC-001", Name: "smoke", Steps: []string{"run"}, Expected: "ok"},
	}))
	require.NoError(t, env.store.Update(
		state.Field{Path: "phases.prototype.tp_generation.status", Value: string(state.StatusCompleted)},
		state.Field{Path: "phases.prototype.tp_generation.file", Value: jsonPath},
	))

	handler := env.steps.Handlers()[StepTestExecution]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	assert.Equal(t, state.StatusCompleted, env.load(t).StepStatus("phases.prototype.test_execution"))
	assert.Contains(t, env.out.String(), "# Batch report: iteration 0001, tests")
	assert.Contains(t, env.out.String(), "| TC-001 | smoke | completed | 0 |")
	assert.FileExists(t, ledger.FilePath(env.cfg.ProgressDir(), "0001", "tests"))
}

func TestSteps_TestExecutionFailureKeepsStepOpen(t *testing.T) {
	env := newStepsEnv(t)
	jsonPath := filepath.Join(env.docsDir(), "test_plan.json")
	require.NoError(t, testplan.WriteJSON(jsonPath, []domain.TestCase{
		{ID: "TC-001", Name: "smoke", Steps: []string{"run"}, Expected: "ok"},
	}))
	require.NoError(t, env.store.Update(
		state.Field{Path: "phases.prototype.tp_generation.file", Value: jsonPath},
	))
	env.inv.exitCode = 1

	handler := env.steps.Handlers()[StepTestExecution]
	err := handler(context.Background(), env.load(t), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 items did not complete")

	assert.Contains(t, env.out.String(), "Failed: 1", "the report is printed even on failure")
	assert.Equal(t, state.StatusInProgress, env.load(t).StepStatus("phases.prototype.test_execution"),
		"the step stays open so the flow retries the batch")
}

func TestSteps_RefactorExecutionBuildsTasksFromPlan(t *testing.T) {
	env := newStepsEnv(t)
	docsDir := env.docsDir()
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	planPath := filepath.Join(docsDir, "refactor_plan.md")
	require.NoError(t, os.WriteFile(planPath, []byte(
		"## RI-001: Extract the parser\nDescription: Move parsing out of main.\nRationale: Testability.\n"), 0o644))
	require.NoError(t, env.store.Update(
		state.Field{Path: "phases.refactor.plan.status", Value: string(state.StatusApproved)},
		state.Field{Path: "phases.refactor.plan.file", Value: planPath},
	))

	handler := env.steps.Handlers()[StepRefactorExecution]
	require.NoError(t, handler(context.Background(), env.load(t), Options{}))

	require.Len(t, env.inv.requests, 1)
	assert.Contains(t, env.inv.requests[0].Prompt, "RI-001")
	assert.Contains(t, env.inv.requests[0].Prompt, "Extract the parser")
	assert.Equal(t, state.StatusCompleted, env.load(t).StepStatus("phases.refactor.execution"))
}
