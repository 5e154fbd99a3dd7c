package cli

import (
	"os"

	"github.com/iterflow/iterflow/internal/agent"
	"github.com/iterflow/iterflow/internal/agent/claude"
	"github.com/iterflow/iterflow/internal/agent/codex"
	"github.com/iterflow/iterflow/internal/agent/factory"
	"github.com/iterflow/iterflow/internal/agent/opencode"
	"github.com/iterflow/iterflow/internal/config"
	"github.com/iterflow/iterflow/internal/state"
)

// loadEnv resolves the project root and builds the config and state store
// every command starts from.
func loadEnv() (*config.Config, *state.Store, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	return cfg, state.NewStore(cfg.StatePath()), nil
}

// invokerFactory returns the constructor injected into flow.Steps. The
// provider argument (from --agent) overrides the configured default.
func invokerFactory(cfg *config.Config) func(provider string) (agent.Invoker, error) {
	return func(provider string) (agent.Invoker, error) {
		if provider == "" {
			provider = cfg.Agent
		}
		return factory.New(factory.Config{
			Provider: provider,
			Claude:   claude.Config{Timeout: cfg.Timeout, ExtraFlags: cfg.AgentFlags["claude"]},
			Codex:    codex.Config{Timeout: cfg.Timeout, ExtraFlags: cfg.AgentFlags["codex"]},
			OpenCode: opencode.Config{Timeout: cfg.Timeout, ExtraFlags: cfg.AgentFlags["opencode"]},
		})
	}
}
