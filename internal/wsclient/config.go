package wsclient

import (
	"time"

	"github.com/codefionn/agentwire/internal/logger"
	"github.com/codefionn/agentwire/internal/metric"
	"github.com/codefionn/agentwire/internal/router"
	"github.com/codefionn/agentwire/internal/sessionstore"
)

// Notifier surfaces conditions that must reach the user (reconnection budget
// exhausted, handler failures for critical message kinds). severity is one
// of "warning" or "error".
type Notifier func(severity, message string)

// Config holds client configuration
type Config struct {
	// URL is the WebSocket endpoint of the agent backend (required)
	URL string
	// ClientType identifies the kind of client (e.g. "tui", "cli", "web")
	ClientType string
	// ClientVersion is the version of the client
	ClientVersion string
	// Capabilities is a list of client capabilities announced at bootstrap
	Capabilities []string

	// ReconnectAttempts is the maximum number of reconnection attempts
	// before the connection surfaces a fatal condition
	ReconnectAttempts int
	// ReconnectBaseDelay is the delay before the first reconnection attempt;
	// subsequent attempts double it
	ReconnectBaseDelay time.Duration
	// ReconnectMaxDelay caps the exponential backoff
	ReconnectMaxDelay time.Duration
	// HeartbeatInterval is the interval between keep-alive messages
	HeartbeatInterval time.Duration
	// ConnectTimeout bounds connection establishment
	ConnectTimeout time.Duration
	// SendTimeout bounds a single transport write
	SendTimeout time.Duration
	// QueueCapacity bounds the offline send queue
	QueueCapacity int

	// Logger overrides the global logger
	Logger *logger.Logger
	// Metrics enables Prometheus instrumentation when set
	Metrics *metric.Metrics
	// Store persists the session id; defaults to an in-memory store
	Store sessionstore.Store
	// SharedRouter overrides the process-wide router used for
	// cross-cutting dispatch; defaults to router.Shared()
	SharedRouter *router.Router
	// Notify surfaces fatal conditions to the user; defaults to logging
	Notify Notifier
}

// DefaultConfig returns a configuration with documented defaults. The URL
// must still be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		ClientType:         "client",
		ClientVersion:      "1.0.0",
		ReconnectAttempts:  5,
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  30 * time.Second,
		HeartbeatInterval:  30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		SendTimeout:        10 * time.Second,
		QueueCapacity:      100,
	}
}

// withDefaults returns a copy of c with every unset field filled from
// DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	out := *c
	if out.ClientType == "" {
		out.ClientType = def.ClientType
	}
	if out.ClientVersion == "" {
		out.ClientVersion = def.ClientVersion
	}
	if out.ReconnectAttempts <= 0 {
		out.ReconnectAttempts = def.ReconnectAttempts
	}
	if out.ReconnectBaseDelay <= 0 {
		out.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if out.ReconnectMaxDelay <= 0 {
		out.ReconnectMaxDelay = def.ReconnectMaxDelay
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = def.HeartbeatInterval
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = def.ConnectTimeout
	}
	if out.SendTimeout <= 0 {
		out.SendTimeout = def.SendTimeout
	}
	if out.QueueCapacity <= 0 {
		out.QueueCapacity = def.QueueCapacity
	}
	return &out
}
