// Package codex invokes the OpenAI Codex CLI.
package codex

import (
	"context"

	"github.com/iterflow/iterflow/internal/agent"
)

// Config holds configuration for Codex subprocesses.
type Config struct {
	// Bin overrides the binary name (default "codex").
	Bin string
	// Model selects the model via -m when non-empty.
	Model string
	// ExtraFlags are appended to every invocation.
	ExtraFlags []string
	// Timeout in seconds for non-interactive invocations.
	Timeout int
}

// Invoker shells out to the "codex" binary.
type Invoker struct {
	cfg Config
}

// New returns an Invoker for the Codex CLI.
func New(cfg Config) *Invoker {
	if cfg.Bin == "" {
		cfg.Bin = "codex"
	}
	return &Invoker{cfg: cfg}
}

// BuildArgs constructs the argument list for a request. Non-interactive
// requests use `codex exec` with the prompt on stdin ("-"); interactive
// ones start a regular session seeded with the prompt.
func (c *Invoker) BuildArgs(req agent.Request) []string {
	var args []string
	if !req.Interactive {
		args = append(args, "exec", "--full-auto")
	}
	if c.cfg.Model != "" {
		args = append(args, "-m", c.cfg.Model)
	}
	args = append(args, c.cfg.ExtraFlags...)
	if req.Interactive {
		args = append(args, req.Prompt)
	} else {
		args = append(args, "-")
	}
	return args
}

// Invoke runs the Codex CLI for one request.
func (c *Invoker) Invoke(ctx context.Context, req agent.Request) (*agent.Result, error) {
	timeout := c.cfg.Timeout
	if req.Interactive {
		timeout = 0
	}
	return agent.Run(ctx, agent.Command{
		Bin:            c.cfg.Bin,
		Args:           c.BuildArgs(req),
		PromptViaStdin: !req.Interactive,
		Timeout:        timeout,
	}, req)
}
