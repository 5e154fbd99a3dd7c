package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/flow"
	"github.com/iterflow/iterflow/internal/guardrail"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Archive the current iteration and start the next one",
	Long: `Next snapshots the finished iteration's state and ledgers under
.iterflow/history/ and starts a fresh iteration.

Archiving an incomplete iteration is a guardrail violation: blocked under
strict mode, confirmed interactively under relaxed mode, bypassed with
--force.`,
	Args: cobra.NoArgs,
	RunE: runNext,
}

func runNext(_ *cobra.Command, _ []string) error {
	cfg, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	violated := flow.Resolve(it).Kind != flow.DecisionComplete
	msg := fmt.Sprintf("iteration %s is not complete", it.CurrentIteration)
	if err := guardrail.New().Check(it.FlowGuardrail, violated, msg, flagForce); err != nil {
		return err
	}

	next, err := store.Archive(cfg.HistoryDir(), cfg.ProgressDir())
	if err != nil {
		return err
	}
	fmt.Printf("Archived iteration %s. Now on iteration %s.\n", it.CurrentIteration, next.CurrentIteration)
	return nil
}
