package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.ContextKey)
	assert.Equal(t, 5, cfg.ReconnectAttempts)
	assert.Equal(t, 100, cfg.QueueCapacity)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.ServerURL = "ws://backend:8765/ws"
	cfg.ContextKey = "workspace-a"
	cfg.ReconnectAttempts = 9
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://backend:8765/ws", loaded.ServerURL)
	assert.Equal(t, "workspace-a", loaded.ContextKey)
	assert.Equal(t, 9, loaded.ReconnectAttempts)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTWIRE_SERVER_URL", "ws://override:9000/ws")
	t.Setenv("AGENTWIRE_LOG_LEVEL", "debug")
	t.Setenv("AGENTWIRE_QUEUE_CAPACITY", "250")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "ws://override:9000/ws", cfg.ServerURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.QueueCapacity)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Second, cfg.ReconnectBaseDelay())
	assert.Equal(t, 30*time.Second, cfg.ReconnectMaxDelay())
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval())
}
