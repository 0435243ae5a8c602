package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configllm/internal/config"
	"configllm/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "paths:\n  output_dir: /tmp/out\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.API.Type)
	assert.Equal(t, 0.7, cfg.API.Temperature)
	assert.True(t, cfg.API.ReasoningEnabled)
	assert.Equal(t, "medium", cfg.API.ReasoningLevel)
	assert.Equal(t, 180, cfg.API.TimeoutSecs)
	assert.Equal(t, 1, cfg.Processing.NumIterations)
	assert.Equal(t, "/tmp/out", cfg.Paths.OutputDir)
	assert.Equal(t, filepath.Join("/tmp/out", "files"), cfg.Paths.FilesDir)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiry)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "noop", cfg.Email.Provider)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
api:
  type: gemini
  api_key: file-key
  model: gemini-2.0-flash
  temperature: 0.2
  reasoning_enabled: false
  reasoning_level: HIGH
prompts:
  system_prompt: Be precise.
message:
  user_message: "Analyze {filename} ({md5}) #{iteration}"
processing:
  num_iterations: 3
  delay_seconds: 1.5
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	snap := cfg.Snapshot()
	assert.Equal(t, domain.ProviderGemini, snap.Settings.Provider)
	assert.Equal(t, "file-key", snap.Settings.APIKey)
	assert.Equal(t, "gemini-2.0-flash", snap.Settings.ModelID())
	assert.Equal(t, 0.2, snap.Settings.Temperature)
	assert.False(t, snap.Settings.ReasoningEnabled)
	assert.Equal(t, domain.ReasoningHigh, snap.Settings.ReasoningLevel)
	assert.Equal(t, "Be precise.", snap.SystemPrompt)
	assert.Equal(t, "Analyze {filename} ({md5}) #{iteration}", snap.MessageTemplate)
	assert.Equal(t, 3, cfg.Processing.NumIterations)
	assert.Equal(t, 1500*time.Millisecond, cfg.Processing.Delay())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  type: openai\n  api_key: file-key\n")
	t.Setenv("CONFIGLLM_API_API_KEY", "env-key")
	t.Setenv("CONFIGLLM_API_TYPE", "openai_compatible")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.APIKey)
	assert.Equal(t, "openai_compatible", cfg.API.Type)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_PortEnv(t *testing.T) {
	path := writeConfig(t, "server:\n  environment: test\n")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestAPIConfig_Settings_ClampsTemperature(t *testing.T) {
	api := config.APIConfig{Type: "claude", Temperature: 1.7}
	assert.Equal(t, 1.0, api.Settings().Temperature)

	api.Temperature = -0.5
	assert.Equal(t, 0.0, api.Settings().Temperature)
}

func TestFileSource_ReloadsEachCall(t *testing.T) {
	path := writeConfig(t, "api:\n  type: claude\n  model: first\n")
	src := config.NewFileSource(path)

	snap, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, "first", snap.Settings.Model)

	require.NoError(t, os.WriteFile(path, []byte("api:\n  type: gemini\n  model: second\n"), 0o600))

	snap, err = src.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGemini, snap.Settings.Provider)
	assert.Equal(t, "second", snap.Settings.Model)
}
