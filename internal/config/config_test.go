package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Extract.Timeout())
	assert.Equal(t, 9*time.Second, cfg.Extract.Settle())
	assert.Equal(t, 10*time.Second, cfg.Extract.ChatWindow())
	assert.True(t, cfg.Extract.Headless)

	assert.Equal(t, 2, cfg.Batch.Retries)
	assert.Equal(t, time.Second, cfg.Batch.Backoff())
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.Equal(t, time.Duration(0), cfg.Batch.PageInterval())

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "digimonitor.db", cfg.Store.Path)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DIGIMONITOR_BATCH_RETRIES", "5")
	t.Setenv("DIGIMONITOR_EXTRACT_HEADLESS", "false")
	t.Setenv("DIGIMONITOR_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Batch.Retries)
	assert.False(t, cfg.Extract.Headless)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
extract:
  timeout_secs: 30
batch:
  concurrency: 4
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Extract.Timeout())
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2, cfg.Batch.Retries)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("::: not yaml"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "console"}))
}
