// Package factory constructs agent invokers by provider name. It imports the
// concrete provider subpackages (claude, codex, opencode) and selects the
// appropriate one based on Config.Provider.
package factory

import (
	"fmt"

	"github.com/iterflow/iterflow/internal/agent"
	"github.com/iterflow/iterflow/internal/agent/claude"
	"github.com/iterflow/iterflow/internal/agent/codex"
	"github.com/iterflow/iterflow/internal/agent/opencode"
)

// Config selects and configures the agent provider.
type Config struct {
	Provider string // "claude", "codex", "opencode", or "" (defaults to "claude")
	Claude   claude.Config
	Codex    codex.Config
	OpenCode opencode.Config
}

// New creates an Invoker for the provider named in cfg. An empty provider
// defaults to "claude". Unknown names return an error.
func New(cfg Config) (agent.Invoker, error) {
	switch cfg.Provider {
	case "claude", "":
		return claude.New(cfg.Claude), nil
	case "codex":
		return codex.New(cfg.Codex), nil
	case "opencode":
		return opencode.New(cfg.OpenCode), nil
	default:
		return nil, fmt.Errorf("unknown agent provider: %q (supported: claude, codex, opencode)", cfg.Provider)
	}
}
