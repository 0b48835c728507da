package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExplicitPathMissing(t *testing.T) {
	t.Setenv("ID8_CONFIG_PATH", filepath.Join(t.TempDir(), "nonexistent.yaml"))

	_, err := NewLoader().Load()
	require.Error(t, err, "an explicitly configured but missing file is an error")
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	// Keep the loader away from any real config on the test machine.
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 30, cfg.Poll.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Reconcile.Interval)
	assert.True(t, cfg.Notifications.Enabled)
}

func TestLoadFromConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://ideas.example.com
poll:
  interval: 500ms
  max_attempts: 10
notifications:
  enabled: false
`), 0644))
	t.Setenv("ID8_CONFIG_PATH", path)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ideas.example.com", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 10, cfg.Poll.MaxAttempts)
	assert.False(t, cfg.Notifications.Enabled)
	// Unset values keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Reconcile.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("ID8_API_BASE_URL", "https://staging.example.com")
	t.Setenv("ID8_POLL_MAX_ATTEMPTS", "5")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.Poll.MaxAttempts)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0644))
	t.Setenv("ID8_CONFIG_PATH", path)

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 30, cfg.Poll.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Reconcile.Interval)
	assert.True(t, cfg.Notifications.Enabled)
}
