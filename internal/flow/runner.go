package flow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/iterflow/iterflow/internal/guardrail"
	"github.com/iterflow/iterflow/internal/runlog"
	"github.com/iterflow/iterflow/internal/state"
)

// Options carries the per-invocation flags every handler receives.
type Options struct {
	Provider string
	Force    bool
}

// Handler executes one workflow step against the given state snapshot.
type Handler func(ctx context.Context, it *state.Iteration, opts Options) error

// ErrStepFailed signals a handler error that has already been written to the
// diagnostic channel; callers map it to a failed exit without re-reporting.
var ErrStepFailed = errors.New("step failed")

// Runner repeatedly resolves the next decision and dispatches step handlers,
// re-reading state from storage between runs.
type Runner struct {
	Store    *state.Store
	Handlers map[StepName]Handler
	Out      io.Writer
	ErrOut   io.Writer
	Log      *runlog.Logger // optional
}

// Run loops until the resolver reaches an approval gate, a blocked
// diagnostic, completion, or a handler fails.
//
// Gate, blocked, and complete outcomes are successes: the engine stopped
// where it should and the operator decides what happens next. A handler
// error other than guardrail.ErrAborted is written to ErrOut once and
// surfaces as ErrStepFailed; ErrAborted propagates unchanged because the
// guardrail already reported it.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	for {
		// Never reuse the in-memory document: a handler may have mutated
		// several fields.
		it, err := r.Store.Load()
		if err != nil {
			return err
		}

		d := Resolve(it)
		switch d.Kind {
		case DecisionStep:
			h, ok := r.Handlers[d.Step]
			if !ok {
				return fmt.Errorf("no handler registered for step %q", d.Step)
			}
			r.logf("step %s", d.Step)
			if err := h(ctx, it, opts); err != nil {
				if errors.Is(err, guardrail.ErrAborted) {
					return err
				}
				fmt.Fprintf(r.ErrOut, "Error: step %s: %v\n", d.Step, err)
				r.logf("step %s failed: %v", d.Step, err)
				return ErrStepFailed
			}

		case DecisionApprovalGate:
			fmt.Fprintln(r.Out, d.GateMessage)
			r.logf("approval gate: %s", d.GateTarget)
			return nil

		case DecisionBlocked:
			fmt.Fprintf(r.Out, "Blocked: %s\n", d.Reason)
			r.logf("blocked: %s", d.Reason)
			return nil

		case DecisionComplete:
			fmt.Fprintf(r.Out, "Iteration %s is complete. Run `iterflow next` to archive it and start the next one.\n", d.Iteration)
			r.logf("iteration %s complete", d.Iteration)
			return nil
		}
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Printf(format, args...)
	}
}
