// Package guardrail implements the policy layer deciding whether a
// status-changing operation may proceed: hard-fail in strict mode,
// warn-and-confirm in relaxed mode, warn-and-proceed when forced.
package guardrail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Guardrail modes. An empty mode on the state document means strict.
const (
	ModeStrict  = "strict"
	ModeRelaxed = "relaxed"
)

// ErrAborted indicates the operator declined the confirmation prompt.
// Callers must propagate it unchanged and skip duplicate diagnostics: the
// gate has already reported the abort.
var ErrAborted = errors.New("aborted by user")

// ViolationError is a policy-blocked transition in strict mode.
type ViolationError struct {
	Message string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("guardrail violation: %s", e.Message)
}

// Gate evaluates guardrail checks. Input and diagnostic streams are
// injectable for tests.
type Gate struct {
	in  io.Reader
	err io.Writer
}

// New creates a Gate reading confirmations from stdin and writing
// diagnostics to stderr.
func New() *Gate {
	return &Gate{in: os.Stdin, err: os.Stderr}
}

// NewWithIO creates a Gate with custom streams (for tests).
func NewWithIO(in io.Reader, errw io.Writer) *Gate {
	return &Gate{in: in, err: errw}
}

// Check enforces the guardrail policy for a detected rule violation.
//
// violated=false is a no-op. Otherwise the outcome depends on mode and force:
// strict without force fails immediately with a *ViolationError and never
// prompts; relaxed or forced checks emit the message as a warning, then
// force proceeds while relaxed asks for a single-line confirmation. Only a
// trimmed "y" or "Y" proceeds; any other answer, a closed input stream, or a
// read error aborts with ErrAborted.
func (g *Gate) Check(mode string, violated bool, message string, force bool) error {
	if !violated {
		return nil
	}
	if mode == "" {
		mode = ModeStrict
	}

	if mode != ModeRelaxed && !force {
		return &ViolationError{Message: message}
	}

	fmt.Fprintf(g.err, "Warning: %s\n", message)
	if force {
		return nil
	}

	fmt.Fprintf(g.err, "Proceed anyway? [y/N]: ")
	line, err := bufio.NewReader(g.in).ReadString('\n')
	answer := strings.TrimSpace(line)
	if err != nil && !errors.Is(err, io.EOF) {
		answer = ""
	}
	if answer == "y" || answer == "Y" {
		return nil
	}

	fmt.Fprintln(g.err, "Aborted.")
	return ErrAborted
}
