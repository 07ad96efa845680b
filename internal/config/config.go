// Package config loads and persists the application configuration from a
// JSON file in the platform config directory, with environment overrides
// for the settings that change per deployment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// ServerURL is the WebSocket endpoint of the agent backend
	ServerURL string `json:"server_url"`
	// ContextKey is the default workspace context
	ContextKey string `json:"context_key,omitempty"`
	// ClientType identifies this client to the backend
	ClientType string `json:"client_type,omitempty"`
	// Capabilities announced at connection bootstrap
	Capabilities []string `json:"capabilities,omitempty"`

	// ReconnectAttempts caps reconnection attempts before giving up
	ReconnectAttempts int `json:"reconnect_attempts,omitempty"`
	// ReconnectBaseDelaySeconds is the first backoff delay
	ReconnectBaseDelaySeconds int `json:"reconnect_base_delay_seconds,omitempty"`
	// ReconnectMaxDelaySeconds caps the backoff
	ReconnectMaxDelaySeconds int `json:"reconnect_max_delay_seconds,omitempty"`
	// HeartbeatSeconds is the keep-alive interval
	HeartbeatSeconds int `json:"heartbeat_seconds,omitempty"`
	// QueueCapacity bounds the offline send queue
	QueueCapacity int `json:"queue_capacity,omitempty"`

	// LogLevel is one of debug, info, warn, error, none
	LogLevel string `json:"log_level,omitempty"`
	// LogPath overrides the default log file location
	LogPath string `json:"-"`
	// SessionDBPath is the SQLite file holding session identities
	SessionDBPath string `json:"session_db_path,omitempty"`
	// MetricsAddr, when set, serves Prometheus metrics on this address
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "agentwire")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "agentwire")
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, "agentwire")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "agentwire")
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "agentwire")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "agentwire")
	default:
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "agentwire")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "agentwire")
	}
}

// DefaultConfigPath returns the path of the config file.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}

// Default returns a configuration with sensible defaults; the server URL
// must still be provided by file, environment or flag.
func Default() *Config {
	return &Config{
		ContextKey:                "default",
		ClientType:                "cli",
		ReconnectAttempts:         5,
		ReconnectBaseDelaySeconds: 1,
		ReconnectMaxDelaySeconds:  30,
		HeartbeatSeconds:          30,
		QueueCapacity:             100,
		LogLevel:                  "info",
		LogPath:                   filepath.Join(defaultStateDir(), "agentwire.log"),
		SessionDBPath:             filepath.Join(defaultStateDir(), "sessions.db"),
	}
}

// Load reads the configuration from path, falling back to defaults when the
// file does not exist, then applies environment overrides. An empty path
// uses DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_SERVER_URL")); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_CONTEXT_KEY")); v != "" {
		c.ContextKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_METRICS_ADDR")); v != "" {
		c.MetricsAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_QUEUE_CAPACITY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.QueueCapacity = n
		}
	}
}

// Save writes the configuration to path, creating the directory if needed.
// An empty path uses DefaultConfigPath.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReconnectBaseDelay returns the first backoff delay as a duration.
func (c *Config) ReconnectBaseDelay() time.Duration {
	return time.Duration(c.ReconnectBaseDelaySeconds) * time.Second
}

// ReconnectMaxDelay returns the backoff cap as a duration.
func (c *Config) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.ReconnectMaxDelaySeconds) * time.Second
}

// HeartbeatInterval returns the keep-alive interval as a duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}
