package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/flow"
	"github.com/iterflow/iterflow/internal/runlog"
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Run workflow steps until the next gate or completion",
	Long: `Flow resolves the next pending step from the state file, runs it, and keeps
going until it reaches an approval gate, the iteration completes, or a step
fails. Interrupted runs pick up where they left off: completed work is never
redone.

Examples:
  iterflow flow
  iterflow flow --agent codex
  iterflow flow --force`,
	Args: cobra.NoArgs,
	RunE: runFlow,
}

func runFlow(cmd *cobra.Command, _ []string) error {
	cfg, store, err := loadEnv()
	if err != nil {
		return err
	}
	it, err := store.Load()
	if err != nil {
		return err
	}

	log, err := runlog.New(runlog.Config{
		LogsDir:   cfg.LogsPath(),
		Iteration: it.CurrentIteration,
		Command:   "flow",
	})
	if err != nil {
		return err
	}
	defer log.Close()
	fmt.Fprintf(os.Stderr, "Log: %s\n", log.Path())

	steps := &flow.Steps{
		Store:      store,
		Cfg:        cfg,
		NewInvoker: invokerFactory(cfg),
		Out:        newMarkdownWriter(os.Stdout),
		Log:        log,
		Clock:      time.Now,
	}
	runner := &flow.Runner{
		Store:    store,
		Handlers: steps.Handlers(),
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		Log:      log,
	}
	return runner.Run(cmd.Context(), flow.Options{Provider: flagAgent, Force: flagForce})
}
