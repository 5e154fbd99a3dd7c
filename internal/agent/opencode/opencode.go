// Package opencode invokes the OpenCode CLI.
package opencode

import (
	"context"

	"github.com/iterflow/iterflow/internal/agent"
)

// Config holds configuration for OpenCode subprocesses.
type Config struct {
	// Bin overrides the binary name (default "opencode").
	Bin string
	// Model selects the model via --model when non-empty.
	Model string
	// ExtraFlags are appended to every invocation.
	ExtraFlags []string
	// Timeout in seconds for non-interactive invocations.
	Timeout int
}

// Invoker shells out to the "opencode" binary.
type Invoker struct {
	cfg Config
}

// New returns an Invoker for the OpenCode CLI.
func New(cfg Config) *Invoker {
	if cfg.Bin == "" {
		cfg.Bin = "opencode"
	}
	return &Invoker{cfg: cfg}
}

// BuildArgs constructs the argument list for a request.
func (o *Invoker) BuildArgs(req agent.Request) []string {
	var args []string
	if !req.Interactive {
		args = append(args, "run")
	}
	if o.cfg.Model != "" {
		args = append(args, "--model", o.cfg.Model)
	}
	args = append(args, o.cfg.ExtraFlags...)
	args = append(args, req.Prompt)
	return args
}

// Invoke runs the OpenCode CLI for one request.
func (o *Invoker) Invoke(ctx context.Context, req agent.Request) (*agent.Result, error) {
	timeout := o.cfg.Timeout
	if req.Interactive {
		timeout = 0
	}
	return agent.Run(ctx, agent.Command{
		Bin:     o.cfg.Bin,
		Args:    o.BuildArgs(req),
		Timeout: timeout,
	}, req)
}
