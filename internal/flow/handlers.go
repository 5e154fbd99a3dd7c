package flow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iterflow/iterflow/internal/agent"
	"github.com/iterflow/iterflow/internal/batch"
	"github.com/iterflow/iterflow/internal/config"
	"github.com/iterflow/iterflow/internal/debug"
	"github.com/iterflow/iterflow/internal/gitx"
	"github.com/iterflow/iterflow/internal/ledger"
	"github.com/iterflow/iterflow/internal/plan"
	"github.com/iterflow/iterflow/internal/prompt"
	"github.com/iterflow/iterflow/internal/runlog"
	"github.com/iterflow/iterflow/internal/state"
	"github.com/iterflow/iterflow/internal/testplan"
)

// Document file names inside an iteration's docs directory.
const (
	fileRequirement  = "requirement.md"
	filePRD          = "prd.md"
	fileContext      = "project_context.md"
	fileTestPlan     = "test_plan.md"
	fileTestPlanJSON = "test_plan.json"
	fileEvaluation   = "evaluation.md"
	fileRefactorPlan = "refactor_plan.md"
	fileChangelog    = "changelog.md"
)

// Steps owns the step handlers and their dependencies. NewInvoker is
// injected so tests can substitute a fake agent.
type Steps struct {
	Store      *state.Store
	Cfg        *config.Config
	NewInvoker func(provider string) (agent.Invoker, error)
	Out        io.Writer
	Log        *runlog.Logger // optional
	Clock      func() time.Time
}

// Handlers returns the full step dispatch table.
func (s *Steps) Handlers() map[StepName]Handler {
	return map[StepName]Handler{
		StepRequirement: s.docStep(docSpec{
			prompt: "requirement", field: "phases.define.requirement",
			file: fileRequirement, interactive: true, done: state.StatusCompleted,
		}),
		StepPRD: s.docStep(docSpec{
			prompt: "prd", field: "phases.define.prd",
			file: filePRD, done: state.StatusCompleted,
		}),
		StepProjectContext: s.docStep(docSpec{
			prompt: "project_context", field: "phases.define.project_context",
			file: fileContext, done: state.StatusCompleted,
		}),
		StepTestPlan: s.docStep(docSpec{
			prompt: "test_plan", field: "phases.prototype.test_plan",
			file: fileTestPlan, done: state.StatusPendingApproval,
		}),
		StepTestPlanRefine: s.docStep(docSpec{
			prompt: "test_plan_refine", field: "phases.prototype.test_plan",
			file: fileTestPlan, done: state.StatusPendingApproval, diffAfter: true,
			notes: "test_plan_notes.md",
		}),
		StepTPGeneration:  s.tpGeneration,
		StepBuild:         s.docStep(docSpec{prompt: "build", field: "phases.prototype.build", done: state.StatusCompleted}),
		StepTestExecution: s.testExecution,
		StepEvaluation: s.docStep(docSpec{
			prompt: "evaluation", field: "phases.prototype.evaluation",
			file: fileEvaluation, done: state.StatusCompleted, withGitFiles: true,
		}),
		StepRefactorPlan: s.docStep(docSpec{
			prompt: "refactor_plan", field: "phases.refactor.plan",
			file: fileRefactorPlan, done: state.StatusPendingApproval,
		}),
		StepRefactorPlanRefine: s.docStep(docSpec{
			prompt: "refactor_plan_refine", field: "phases.refactor.plan",
			file: fileRefactorPlan, done: state.StatusPendingApproval, diffAfter: true,
			notes: "refactor_plan_notes.md",
		}),
		StepRefactorExecution: s.refactorExecution,
		StepChangelog: s.docStep(docSpec{
			prompt: "changelog", field: "phases.refactor.changelog",
			file: fileChangelog, done: state.StatusCompleted, withGitFiles: true,
		}),
	}
}

// docSpec describes an agent-driven document step.
type docSpec struct {
	prompt       string
	field        string
	file         string // empty means the step produces no tracked document
	interactive  bool
	done         state.Status
	withGitFiles bool
	diffAfter    bool
	notes        string // notes file read into the prompt when present
}

// docStep builds a handler that marks the step in_progress, invokes the
// agent, verifies the output document, and advances the status.
func (s *Steps) docStep(spec docSpec) Handler {
	return func(ctx context.Context, it *state.Iteration, opts Options) error {
		data := s.promptData(it)
		if spec.notes != "" {
			notesPath := filepath.Join(s.Cfg.IterationDocsDir(it.CurrentIteration), spec.notes)
			if b, err := os.ReadFile(notesPath); err == nil {
				data.Notes = string(b)
			}
		}
		if spec.withGitFiles {
			files, err := gitx.ChangedFiles(s.Cfg.Root(), s.Cfg.BaseBranch)
			if err != nil {
				debug.Logf("changed-file detection failed: %v", err)
			}
			data.ChangedFiles = files
		}

		text, err := prompt.ForStep(spec.prompt, data)
		if err != nil {
			return err
		}

		if err := s.Store.SetStatus(spec.field, state.StatusInProgress); err != nil {
			return err
		}

		docsDir := s.Cfg.IterationDocsDir(it.CurrentIteration)
		if err := os.MkdirAll(docsDir, 0o755); err != nil {
			return fmt.Errorf("create docs dir: %w", err)
		}

		var outPath, before string
		if spec.file != "" {
			outPath = filepath.Join(docsDir, spec.file)
			if b, err := os.ReadFile(outPath); err == nil {
				before = string(b)
			}
		}

		inv, err := s.NewInvoker(opts.Provider)
		if err != nil {
			return err
		}
		res, err := inv.Invoke(ctx, agent.Request{
			Prompt:      text,
			WorkingDir:  s.Cfg.Root(),
			Interactive: spec.interactive,
		})
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("agent exited with code %d", res.ExitCode)
		}

		fields := []state.Field{{Path: spec.field + ".status", Value: string(spec.done)}}
		if spec.file != "" {
			if _, err := os.Stat(outPath); err != nil {
				return fmt.Errorf("agent finished but did not write %s", outPath)
			}
			fields = append(fields, state.Field{Path: spec.field + ".file", Value: outPath})

			if spec.diffAfter {
				after, err := os.ReadFile(outPath)
				if err != nil {
					return fmt.Errorf("read refined document: %w", err)
				}
				if diff := plan.DiffDocuments(outPath, before, string(after)); diff != "" {
					fmt.Fprintln(s.Out, diff)
					s.logf("refine diff:\n%s", diff)
				}
			}
		}
		return s.Store.Update(fields...)
	}
}

// tpGeneration converts the approved test plan document into the structured
// JSON consumed by test execution. No agent is involved.
func (s *Steps) tpGeneration(ctx context.Context, it *state.Iteration, opts Options) error {
	mdPath := it.StepFile("phases.prototype.test_plan")
	if mdPath == "" {
		mdPath = filepath.Join(s.Cfg.IterationDocsDir(it.CurrentIteration), fileTestPlan)
	}

	if err := s.Store.SetStatus("phases.prototype.tp_generation", state.StatusInProgress); err != nil {
		return err
	}

	cases, err := testplan.ParseFile(mdPath)
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(s.Cfg.IterationDocsDir(it.CurrentIteration), fileTestPlanJSON)
	if err := testplan.WriteJSON(jsonPath, cases); err != nil {
		return err
	}
	s.logf("generated %s with %d cases", jsonPath, len(cases))

	return s.Store.Update(
		state.Field{Path: "phases.prototype.tp_generation.status", Value: string(state.StatusCompleted)},
		state.Field{Path: "phases.prototype.tp_generation.file", Value: jsonPath},
	)
}

// testExecution runs every test case as a resumable batch.
func (s *Steps) testExecution(ctx context.Context, it *state.Iteration, opts Options) error {
	jsonPath := it.StepFile("phases.prototype.tp_generation")
	if jsonPath == "" {
		jsonPath = filepath.Join(s.Cfg.IterationDocsDir(it.CurrentIteration), fileTestPlanJSON)
	}
	cases, err := testplan.LoadJSON(jsonPath)
	if err != nil {
		return err
	}

	tasks := make([]batch.Task, len(cases))
	for i, tc := range cases {
		tasks[i] = batch.Task{ID: tc.ID, Title: tc.Name, Prompt: prompt.ForTestCase(tc)}
	}
	return s.runBatch(ctx, it, opts, "tests", "phases.prototype.test_execution", tasks)
}

// refactorExecution runs every approved refactor item as a resumable batch.
func (s *Steps) refactorExecution(ctx context.Context, it *state.Iteration, opts Options) error {
	planPath := it.StepFile("phases.refactor.plan")
	if planPath == "" {
		planPath = filepath.Join(s.Cfg.IterationDocsDir(it.CurrentIteration), fileRefactorPlan)
	}
	items, err := plan.ParseFile(planPath)
	if err != nil {
		return err
	}

	tasks := make([]batch.Task, len(items))
	for i, item := range items {
		tasks[i] = batch.Task{ID: item.ID, Title: item.Title, Prompt: prompt.ForWorkItem(item, planPath)}
	}
	return s.runBatch(ctx, it, opts, "refactor", "phases.refactor.execution", tasks)
}

// runBatch drives a batch against the ledger and advances the owning phase's
// status to completed only when every entry completed. The report is printed
// regardless of outcome.
func (s *Steps) runBatch(ctx context.Context, it *state.Iteration, opts Options, kind, field string, tasks []batch.Task) error {
	if err := s.Store.SetStatus(field, state.StatusInProgress); err != nil {
		return err
	}

	inv, err := s.NewInvoker(opts.Provider)
	if err != nil {
		return err
	}
	ex := &batch.Executor{Invoker: inv, Clock: s.Clock, Log: s.Log}

	res, err := ex.Run(ctx, batch.RunSpec{
		LedgerPath: ledger.FilePath(s.Cfg.ProgressDir(), it.CurrentIteration, kind),
		Iteration:  it.CurrentIteration,
		Kind:       kind,
		WorkingDir: s.Cfg.Root(),
		Tasks:      tasks,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(s.Out, res.Report)

	if !res.AllCompleted {
		return fmt.Errorf("%d of %d items did not complete; re-run `iterflow flow` to retry them", res.Total-res.Completed, res.Total)
	}
	return s.Store.SetStatus(field, state.StatusCompleted)
}

// promptData assembles the document paths for this iteration's prompts.
func (s *Steps) promptData(it *state.Iteration) prompt.Data {
	docsDir := s.Cfg.IterationDocsDir(it.CurrentIteration)
	return prompt.Data{
		Iteration:       it.CurrentIteration,
		RequirementFile: filepath.Join(docsDir, fileRequirement),
		PRDFile:         filepath.Join(docsDir, filePRD),
		ContextFile:     filepath.Join(docsDir, fileContext),
		TestPlanFile:    filepath.Join(docsDir, fileTestPlan),
		TestPlanJSON:    filepath.Join(docsDir, fileTestPlanJSON),
		EvaluationFile:  filepath.Join(docsDir, fileEvaluation),
		RefactorPlan:    filepath.Join(docsDir, fileRefactorPlan),
		ChangelogFile:   filepath.Join(docsDir, fileChangelog),
	}
}

func (s *Steps) logf(format string, args ...any) {
	if s.Log != nil {
		s.Log.Printf(format, args...)
	}
}
