// Package agent defines the external coding-agent boundary: a single
// Invoke call that runs one unit of work via an external process and
// returns its exit code and captured output.
package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/iterflow/iterflow/internal/debug"
)

// Request describes a single agent invocation.
type Request struct {
	// Prompt is the full instruction text for the agent.
	Prompt string
	// WorkingDir is the directory the agent process runs in.
	WorkingDir string
	// Interactive invocations inherit the parent terminal and return empty
	// captured output. Non-interactive invocations capture stdout/stderr
	// while mirroring both live to the parent's streams.
	Interactive bool
}

// Result holds the outcome of a completed invocation. A non-zero exit code
// is data, not an error: the process ran and reported failure.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Invoker executes one unit of work via an external coding agent.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// Command describes the process a provider wants to run. Providers build a
// Command and hand it to Run, which owns stream wiring and exit-code
// extraction.
type Command struct {
	Bin  string
	Args []string
	Env  []string // nil inherits the parent environment

	// PromptViaStdin pipes the prompt to the process instead of passing it
	// as an argument (the providers append it to Args themselves otherwise).
	PromptViaStdin bool

	// Timeout in seconds; zero respects only the caller's context.
	Timeout int

	// Out and ErrOut receive mirrored output in non-interactive mode.
	// Defaults to os.Stdout / os.Stderr.
	Out    io.Writer
	ErrOut io.Writer
}

// Run executes the command for the given request.
func Run(ctx context.Context, c Command, req Request) (*Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.Timeout)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Dir = req.WorkingDir
	if c.Env != nil {
		cmd.Env = c.Env
	}

	debug.Logf("invoking %s %s (interactive=%v)", c.Bin, strings.Join(c.Args, " "), req.Interactive)

	if req.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return wait(cmd.Run())
	}

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := c.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(out, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(errOut, &stderrBuf)
	if c.PromptViaStdin {
		cmd.Stdin = strings.NewReader(req.Prompt)
	}

	res, err := wait(cmd.Run())
	if res != nil {
		res.Stdout = stdoutBuf.String()
		res.Stderr = stderrBuf.String()
	}
	return res, err
}

// wait converts a process exit into a Result, treating non-zero exit codes
// as data. Anything else (binary missing, context cancelled) is an error.
func wait(err error) (*Result, error) {
	if err == nil {
		return &Result{ExitCode: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Result{ExitCode: exitErr.ExitCode()}, nil
	}
	return nil, err
}
