// Package batch drives sequential execution of work items against the
// progress ledger and an agent invoker, with resume and retry semantics.
//
// Items are always attempted in definition order, one at a time. The ledger
// write recording item N's outcome happens before item N+1's invocation
// begins, so a crash at any point leaves an accurate last-known state.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/iterflow/iterflow/internal/agent"
	"github.com/iterflow/iterflow/internal/ledger"
	"github.com/iterflow/iterflow/internal/runlog"
)

// Task is one unit of agent-executable work with its prompt prebuilt by the
// caller.
type Task struct {
	ID     string
	Title  string
	Prompt string
}

// RunSpec describes a single batch run.
type RunSpec struct {
	// LedgerPath is the deterministic ledger file for this run.
	LedgerPath string
	// Iteration and Kind identify the run in the ledger and report.
	Iteration string
	Kind      string
	// WorkingDir is passed to every agent invocation.
	WorkingDir string
	// Tasks are attempted in order.
	Tasks []Task
}

// Result is the outcome of a batch run. Per-item failures live in the ledger
// entries; only infrastructure problems surface as errors from Run.
type Result struct {
	Ledger       *ledger.Ledger
	Total        int
	Completed    int
	Failed       int
	AllCompleted bool
	Report       string
}

// Executor runs batches. The invoker and clock are injected for tests.
type Executor struct {
	Invoker agent.Invoker
	Clock   func() time.Time
	Log     *runlog.Logger // optional
}

// NewExecutor creates an Executor with the real clock.
func NewExecutor(invoker agent.Invoker) *Executor {
	return &Executor{Invoker: invoker, Clock: time.Now}
}

// Run executes every non-completed task in order.
//
// The ledger is loaded if present (and strictly reconciled against the task
// ids before any invocation) or initialized and persisted immediately.
// Entries found completed are skipped; pending, failed, and in_progress
// entries are all retry-eligible. A failing item never stops the batch.
// The report is generated unconditionally.
func (e *Executor) Run(ctx context.Context, spec RunSpec) (*Result, error) {
	if len(spec.Tasks) == 0 {
		return nil, fmt.Errorf("batch %s-%s: no tasks to execute", spec.Iteration, spec.Kind)
	}

	ids := make([]string, len(spec.Tasks))
	for i, t := range spec.Tasks {
		ids[i] = t.ID
	}

	led, err := ledger.Load(spec.LedgerPath)
	switch {
	case err == nil:
		if err := led.Reconcile(ids); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		led = ledger.New(spec.LedgerPath, spec.Iteration, spec.Kind, ids, e.now())
		if err := led.Save(); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	for _, task := range spec.Tasks {
		entry := led.Find(task.ID)
		if entry.Status == ledger.StatusCompleted {
			e.logf("skip %s: already completed", task.ID)
			continue
		}

		entry.Status = ledger.StatusInProgress
		entry.UpdatedAt = e.now()
		if err := led.Save(); err != nil {
			return nil, err
		}

		e.logf("invoke agent for %s: %s", task.ID, task.Title)
		res, invokeErr := e.Invoker.Invoke(ctx, agent.Request{
			Prompt:     task.Prompt,
			WorkingDir: spec.WorkingDir,
		})

		entry.AttemptCount++
		entry.UpdatedAt = e.now()
		if invokeErr != nil {
			// The process never produced an exit code. The attempt is still
			// accounted for; the batch moves on to the next item.
			entry.Status = ledger.StatusFailed
			entry.LastAgentExitCode = nil
			e.logf("item %s: invocation error: %v", task.ID, invokeErr)
		} else {
			code := res.ExitCode
			entry.LastAgentExitCode = &code
			if code == 0 {
				entry.Status = ledger.StatusCompleted
			} else {
				entry.Status = ledger.StatusFailed
			}
			e.logf("item %s: exit code %d", task.ID, code)
		}
		if err := led.Save(); err != nil {
			return nil, err
		}
	}

	result := &Result{Ledger: led, Total: len(led.Entries), AllCompleted: led.AllCompleted()}
	for _, en := range led.Entries {
		switch en.Status {
		case ledger.StatusCompleted:
			result.Completed++
		case ledger.StatusFailed:
			result.Failed++
		}
	}
	result.Report = BuildReport(spec, led.Entries)
	return result, nil
}

func (e *Executor) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Executor) logf(format string, args ...any) {
	if e.Log != nil {
		e.Log.Printf(format, args...)
	}
}
