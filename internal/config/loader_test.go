package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory_qa.md", cfg.Memory.File)
	assert.Equal(t, 0.85, cfg.Memory.SimilarityThreshold)
	assert.Equal(t, "feedback_sessions", cfg.Feedback.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "anthropic/claude-sonnet-4.5", cfg.Pipeline.Model)
	assert.Equal(t, 0.90, cfg.Pipeline.ConfidenceThreshold)
	assert.False(t, cfg.Pipeline.AutoApply)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory_qa.md", cfg.Memory.File)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
memory:
  file: /data/memory_qa.md
  similarity_threshold: 0.7
feedback:
  path: /data/feedback_sessions
logging:
  level: debug
  format: console
pipeline:
  model: x-ai/grok-4.1-fast:free
  auto_apply: true
  cost_limit: 2.5
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/memory_qa.md", cfg.Memory.File)
	assert.Equal(t, 0.7, cfg.Memory.SimilarityThreshold)
	assert.Equal(t, "/data/feedback_sessions", cfg.Feedback.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "x-ai/grok-4.1-fast:free", cfg.Pipeline.Model)
	assert.True(t, cfg.Pipeline.AutoApply)
	assert.Equal(t, 2.5, cfg.Pipeline.CostLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory:\n  file: from_file.md\n"), 0o600))

	t.Setenv("DAKTUSQA_MEMORY_FILE", "from_env.md")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env.md", cfg.Memory.File)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory:\n  similarity_threshold: 1.5\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("empty memory file", func(t *testing.T) {
		cfg := valid()
		cfg.Memory.File = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative cost limit", func(t *testing.T) {
		cfg := valid()
		cfg.Pipeline.CostLimit = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad logging level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "shout"
		assert.Error(t, cfg.Validate())
	})
}
