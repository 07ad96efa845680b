// Package sessionstore persists session identity per workspace context.
//
// Exactly one string (the session id) is stored per context key, so multiple
// workspaces never collide. Backends: in-memory (also the degraded fallback
// when persistence is unavailable), a JSON file, and SQLite.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists one session id per context key.
type Store interface {
	// Load returns the session id stored for the key; the bool reports
	// whether a value was present.
	Load(contextKey string) (string, bool, error)
	// Save overwrites the session id stored for the key.
	Save(contextKey, sessionID string) error
	// Delete forgets the key.
	Delete(contextKey string) error
	// Close releases backend resources.
	Close() error
}

// MemoryStore is a process-local Store. It backs tests and serves as the
// degraded fallback when a persistent backend is unavailable.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]string)}
}

// Load returns the session id for the key.
func (s *MemoryStore) Load(contextKey string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[contextKey]
	return id, ok, nil
}

// Save overwrites the session id for the key.
func (s *MemoryStore) Save(contextKey, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[contextKey] = sessionID
	return nil
}

// Delete forgets the key.
func (s *MemoryStore) Delete(contextKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, contextKey)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// FileStore persists session ids in a single JSON file, rewritten atomically
// on every change (write to temp file, then rename).
type FileStore struct {
	mu       sync.Mutex
	path     string
	sessions map[string]string
}

// NewFileStore opens (or creates) the store file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		sessions: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First use; the file appears on the first Save.
	case err != nil:
		return nil, fmt.Errorf("failed to read session store %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &s.sessions); err != nil {
			return nil, fmt.Errorf("failed to parse session store %s: %w", path, err)
		}
	}

	return s, nil
}

// Load returns the session id for the key.
func (s *FileStore) Load(contextKey string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[contextKey]
	return id, ok, nil
}

// Save overwrites the session id for the key and flushes the file.
func (s *FileStore) Save(contextKey, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[contextKey] = sessionID
	return s.flush()
}

// Delete forgets the key and flushes the file.
func (s *FileStore) Delete(contextKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[contextKey]; !ok {
		return nil
	}
	delete(s.sessions, contextKey)
	return s.flush()
}

// Close is a no-op; every mutation is flushed immediately.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create session store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session store: %w", err)
	}
	return nil
}
