package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.Agent)
	assert.Equal(t, 1800, cfg.Timeout)
	assert.Equal(t, "main", cfg.BaseBranch)
	assert.Equal(t, root, cfg.Root())
	assert.Equal(t, filepath.Join(root, ".iterflow", "state.json"), cfg.StatePath())
	assert.Equal(t, filepath.Join(root, ".iterflow", "progress"), cfg.ProgressDir())
	assert.Equal(t, filepath.Join(root, ".iterflow", "history"), cfg.HistoryDir())
	assert.Equal(t, filepath.Join(root, ".iterflow", "logs"), cfg.LogsPath())
	assert.Equal(t, filepath.Join(root, "docs", "iterations", "0001"), cfg.IterationDocsDir("0001"))
}

func TestLoad_ConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))
	yaml := `agent: codex
timeout: 600
base_branch: develop
agent_flags:
  codex:
    - "--full-auto"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "codex", cfg.Agent)
	assert.Equal(t, 600, cfg.Timeout)
	assert.Equal(t, "develop", cfg.BaseBranch)
	assert.Equal(t, []string{"--full-auto"}, cfg.AgentFlags["codex"])
	assert.Equal(t, filepath.Join("docs", "iterations"), cfg.DocsDir, "unset keys keep their defaults")
}

func TestLoad_MalformedConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte("agent: [oops"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ITERFLOW_AGENT", "opencode")
	t.Setenv("ITERFLOW_TIMEOUT", "90")
	t.Setenv("ITERFLOW_BASE_BRANCH", "trunk")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "opencode", cfg.Agent)
	assert.Equal(t, 90, cfg.Timeout)
	assert.Equal(t, "trunk", cfg.BaseBranch)
}

func TestLoad_InvalidTimeoutEnvIgnored(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ITERFLOW_TIMEOUT", "soon")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 1800, cfg.Timeout)
}
