// Package wsmanager tracks one WebSocket client per workspace context. All
// lookups go through the context key, so two callers asking for the same
// workspace always share the same connection, and teardown can address one
// workspace or all of them.
package wsmanager

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/codefionn/agentwire/internal/logger"
	"github.com/codefionn/agentwire/internal/wsclient"
)

// Manager owns the context-key -> client registry.
type Manager struct {
	mu      sync.Mutex
	clients map[string]*wsclient.Client
	log     *logger.Logger
}

// New creates an empty manager.
func New(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Global()
	}
	return &Manager{
		clients: make(map[string]*wsclient.Client),
		log:     log.WithPrefix("wsmanager"),
	}
}

// GetInstance returns the client bound to contextKey, creating it from cfg
// on first use. Subsequent calls for the same key return the same instance
// regardless of cfg, so configuration is fixed at first acquisition.
func (m *Manager) GetInstance(contextKey string, cfg *wsclient.Config) (*wsclient.Client, error) {
	if contextKey == "" {
		return nil, wsclient.ErrMissingContextKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[contextKey]; ok {
		return c, nil
	}

	c, err := wsclient.New(contextKey, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for context %q: %w", contextKey, err)
	}
	m.clients[contextKey] = c
	m.log.Debug("created client for context %s", contextKey)
	return c, nil
}

// Disconnect tears down the client for one context and removes it from the
// registry. Unknown contexts are a no-op.
func (m *Manager) Disconnect(contextKey string) error {
	m.mu.Lock()
	c, ok := m.clients[contextKey]
	delete(m.clients, contextKey)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	m.log.Info("disconnecting context %s", contextKey)
	return c.Close()
}

// DisconnectAll tears down every tracked client. A failure on one context
// never prevents the teardown of the others; all errors are joined.
func (m *Manager) DisconnectAll() error {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*wsclient.Client)
	m.mu.Unlock()

	var errs []error
	for key, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("context %q: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ActiveContexts returns the keys of all tracked clients, sorted.
func (m *Manager) ActiveContexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.clients))
	for key := range m.clients {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsConnected reports whether a tracked client for contextKey is connected.
// Unknown contexts report false.
func (m *Manager) IsConnected(contextKey string) bool {
	return m.State(contextKey) == wsclient.StateConnected
}

// State returns the connection state for contextKey; unknown contexts report
// the disconnected state.
func (m *Manager) State(contextKey string) wsclient.State {
	m.mu.Lock()
	c, ok := m.clients[contextKey]
	m.mu.Unlock()

	if !ok {
		return wsclient.StateDisconnected
	}
	return c.State()
}

// Count returns the number of tracked clients.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
