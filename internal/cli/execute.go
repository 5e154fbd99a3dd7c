package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/flow"
	"github.com/iterflow/iterflow/internal/guardrail"
	"github.com/iterflow/iterflow/internal/runlog"
	"github.com/iterflow/iterflow/internal/state"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run a batch step directly",
	Long: `Execute runs a single batch step outside the flow loop. Progress is tracked
in the same ledger the flow uses, so partial runs resume instead of redoing
completed items.`,
}

var executeRefactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Execute the approved refactor plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeBatch(cmd, flow.StepRefactorExecution,
			"phases.refactor.plan", state.StatusApproved,
			"refactor plan is not approved (status: %s)")
	},
}

var executeTestsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Execute the generated test plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeBatch(cmd, flow.StepTestExecution,
			"phases.prototype.tp_generation", state.StatusCompleted,
			"test plan has not been generated (status: %s)")
	},
}

func init() {
	executeCmd.AddCommand(executeRefactorCmd)
	executeCmd.AddCommand(executeTestsCmd)
}

// executeBatch guards on the prerequisite step's status, then dispatches the
// named step handler directly.
func executeBatch(cmd *cobra.Command, step flow.StepName, guardPath string, want state.Status, msgFormat string) error {
	cfg, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	st := it.StepStatus(guardPath)
	if err := guardrail.New().Check(it.FlowGuardrail, st != want, fmt.Sprintf(msgFormat, st), flagForce); err != nil {
		return err
	}

	log, err := runlog.New(runlog.Config{
		LogsDir:   cfg.LogsPath(),
		Iteration: it.CurrentIteration,
		Command:   "execute",
	})
	if err != nil {
		return err
	}
	defer log.Close()

	steps := &flow.Steps{
		Store:      store,
		Cfg:        cfg,
		NewInvoker: invokerFactory(cfg),
		Out:        newMarkdownWriter(os.Stdout),
		Log:        log,
		Clock:      time.Now,
	}
	handler := steps.Handlers()[step]
	if err := handler(cmd.Context(), it, flow.Options{Provider: flagAgent, Force: flagForce}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return &ExitError{Code: 1}
	}
	return nil
}
