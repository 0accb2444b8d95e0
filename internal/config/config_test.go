package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Engine.RetryLimit)
	assert.Equal(t, 6, cfg.Engine.VerifierWindow)
	assert.Equal(t, 5, cfg.Engine.TopK)
	assert.Equal(t, 30*time.Second, cfg.Engine.ToolTimeout)
	assert.Equal(t, ".", cfg.Tools.WorkspaceDir)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
llm:
  provider: openai
  model: gpt-4o
engine:
  retry_limit: 3
  top_k: 7
tools:
  workspace_dir: /tmp/ws
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Engine.RetryLimit)
	assert.Equal(t, 7, cfg.Engine.TopK)
	assert.Equal(t, "/tmp/ws", cfg.Tools.WorkspaceDir)
	// untouched keys keep their defaults
	assert.Equal(t, 6, cfg.Engine.VerifierWindow)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9090\"\n"), 0o644))

	t.Setenv("ASSISTANT_ADDR", ":7070")
	t.Setenv("ASSISTANT_ENGINE_RETRY_LIMIT", "4")
	t.Setenv("ASSISTANT_LLM_PROVIDER", "anthropic")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, 4, cfg.Engine.RetryLimit)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("ASSISTANT_ENGINE_TOP_K", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestEnvToKey(t *testing.T) {
	assert.Equal(t, "engine.retry_limit", envToKey("ASSISTANT_ENGINE_RETRY_LIMIT"))
	assert.Equal(t, "llm.provider", envToKey("ASSISTANT_LLM_PROVIDER"))
	assert.Equal(t, "tools.workspace_dir", envToKey("ASSISTANT_TOOLS_WORKSPACE_DIR"))
	assert.Equal(t, "addr", envToKey("ASSISTANT_ADDR"))
}
