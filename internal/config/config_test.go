package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFile_LoadsExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.yaml")
	contents := []byte(`
llm:
  provider: gemini
scoring:
  rule_weight: 0.4
  ai_weight: 0.6
`)
	require.NoError(t, os.WriteFile(path, contents, 0644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.GetViper().ConfigFileUsed())
	assert.Equal(t, "gemini", cfg.GetString("llm.provider"))
	assert.InDelta(t, 0.4, cfg.GetFloat64("scoring.rule_weight"), 1e-12)
	assert.InDelta(t, 0.6, cfg.GetFloat64("scoring.ai_weight"), 1e-12)

	// Keys the file does not set keep their defaults
	assert.Equal(t, "gpt-4", cfg.GetString("openai.model_name"))
	assert.InDelta(t, 0.7, cfg.GetFloat64("scoring.threshold"), 1e-12)
}

func TestNewFromFile_MissingFileFails(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}
