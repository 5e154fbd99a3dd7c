// Package cli implements the iterflow commands.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iterflow/iterflow/internal/flow"
	"github.com/iterflow/iterflow/internal/guardrail"
)

var (
	flagAgent string
	flagForce bool
)

var rootCmd = &cobra.Command{
	Use:   "iterflow",
	Short: "Agent-assisted iteration workflow engine",
	Long: `Iterflow drives a development iteration through its phases: it resolves the
next step from the on-disk state file, invokes the configured coding agent
with a structured prompt, records progress, and stops at approval gates.

State lives in .iterflow/state.json; documents under docs/iterations/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersionInfo wires build-time version metadata into --version.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

// Execute runs the root command and returns the process exit code.
//
// Approval gates, blocked diagnostics, and completion are successes (0): the
// engine stopped where it should. Operator aborts and handler failures exit 1.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	// Both of these were already reported where they happened.
	if errors.Is(err, guardrail.ErrAborted) || errors.Is(err, flow.ErrStepFailed) {
		return 1
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAgent, "agent", "", "Agent provider: claude, codex, or opencode (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "Bypass guardrail checks (logs a warning)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(nextCmd)
}
