package wsmanager

import (
	"sync"

	"github.com/codefionn/agentwire/internal/wsclient"
)

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = New(nil)
	})
	return defaultManager
}

// GetInstance resolves a client on the process-wide manager.
func GetInstance(contextKey string, cfg *wsclient.Config) (*wsclient.Client, error) {
	return Default().GetInstance(contextKey, cfg)
}

// Disconnect tears down one context on the process-wide manager.
func Disconnect(contextKey string) error {
	return Default().Disconnect(contextKey)
}

// DisconnectAll tears down every context on the process-wide manager.
func DisconnectAll() error {
	return Default().DisconnectAll()
}
