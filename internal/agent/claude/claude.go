// Package claude invokes the Claude Code CLI.
package claude

import (
	"context"
	"os"
	"strings"

	"github.com/iterflow/iterflow/internal/agent"
)

// Config holds environment configuration for Claude subprocesses.
type Config struct {
	// Bin overrides the binary name (default "claude").
	Bin string
	// ConfigDir sets CLAUDE_CONFIG_DIR for the subprocess when non-empty.
	ConfigDir string
	// ExtraFlags are appended to every invocation.
	ExtraFlags []string
	// Timeout in seconds for non-interactive invocations.
	Timeout int
}

// Invoker shells out to the "claude" binary.
type Invoker struct {
	cfg Config
}

// New returns an Invoker for the Claude CLI.
func New(cfg Config) *Invoker {
	if cfg.Bin == "" {
		cfg.Bin = "claude"
	}
	return &Invoker{cfg: cfg}
}

// BuildArgs constructs the argument list for a request.
func (c *Invoker) BuildArgs(req agent.Request) []string {
	var args []string
	if !req.Interactive {
		args = append(args, "--print", "--dangerously-skip-permissions")
	}
	args = append(args, c.cfg.ExtraFlags...)
	if req.Interactive {
		args = append(args, req.Prompt)
	}
	return args
}

// buildEnv only overrides CLAUDE_CONFIG_DIR when explicitly configured.
func (c *Invoker) buildEnv() []string {
	if c.cfg.ConfigDir == "" {
		return nil
	}
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "CLAUDE_CONFIG_DIR=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "CLAUDE_CONFIG_DIR="+c.cfg.ConfigDir)
}

// Invoke runs the Claude CLI for one request. Non-interactive invocations
// receive the prompt on stdin; interactive ones get it as an argument and
// inherit the terminal.
func (c *Invoker) Invoke(ctx context.Context, req agent.Request) (*agent.Result, error) {
	timeout := c.cfg.Timeout
	if req.Interactive {
		timeout = 0
	}
	return agent.Run(ctx, agent.Command{
		Bin:            c.cfg.Bin,
		Args:           c.BuildArgs(req),
		Env:            c.buildEnv(),
		PromptViaStdin: !req.Interactive,
		Timeout:        timeout,
	}, req)
}
