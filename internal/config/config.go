// Package config provides configuration for iterflow. Values are loaded from
// defaults, then .iterflow/config.yaml, then environment variables, in that
// precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dir is the iterflow working directory relative to the project root.
const Dir = ".iterflow"

// Config holds all iterflow settings.
type Config struct {
	// Agent is the default provider when --agent is not given.
	Agent string `yaml:"agent"`
	// Timeout in seconds for non-interactive agent invocations.
	Timeout int `yaml:"timeout"`
	// BaseBranch is the branch changed-file detection diffs against.
	BaseBranch string `yaml:"base_branch"`
	// DocsDir is where iteration documents are written.
	DocsDir string `yaml:"docs_dir"`
	// LogsDir is where run logs are written.
	LogsDir string `yaml:"logs_dir"`
	// AgentFlags are extra CLI flags per provider name.
	AgentFlags map[string][]string `yaml:"agent_flags"`

	root string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent:      "claude",
		Timeout:    1800,
		BaseBranch: "main",
		DocsDir:    filepath.Join("docs", "iterations"),
		LogsDir:    filepath.Join(Dir, "logs"),
		root:       ".",
	}
}

// Load reads configuration for the project rooted at root. A missing config
// file is fine; a malformed one is an error.
func Load(root string) (*Config, error) {
	cfg := Default()
	cfg.root = root

	path := filepath.Join(root, Dir, "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ITERFLOW_AGENT"); v != "" {
		c.Agent = v
	}
	if v := os.Getenv("ITERFLOW_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Timeout = n
		}
	}
	if v := os.Getenv("ITERFLOW_BASE_BRANCH"); v != "" {
		c.BaseBranch = v
	}
}

// Root returns the project root directory.
func (c *Config) Root() string {
	if c.root == "" {
		return "."
	}
	return c.root
}

// StatePath returns the state file location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Root(), Dir, "state.json")
}

// ProgressDir returns the ledger directory.
func (c *Config) ProgressDir() string {
	return filepath.Join(c.Root(), Dir, "progress")
}

// HistoryDir returns the archived-iteration directory.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.Root(), Dir, "history")
}

// LogsPath returns the run-log directory.
func (c *Config) LogsPath() string {
	return filepath.Join(c.Root(), c.LogsDir)
}

// IterationDocsDir returns the document directory for one iteration.
func (c *Config) IterationDocsDir(iteration string) string {
	return filepath.Join(c.Root(), c.DocsDir, iteration)
}
