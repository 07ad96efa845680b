package sessionstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	context_key TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore persists session ids in a SQLite database, one row per
// context key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// sessions table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns the session id for the key.
func (s *SQLiteStore) Load(contextKey string) (string, bool, error) {
	var id string
	err := s.db.QueryRow(
		"SELECT session_id FROM sessions WHERE context_key = ?", contextKey,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load session for %s: %w", contextKey, err)
	}
	return id, true, nil
}

// Save overwrites the session id for the key.
func (s *SQLiteStore) Save(contextKey, sessionID string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (context_key, session_id, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(context_key) DO UPDATE SET
		   session_id = excluded.session_id,
		   updated_at = CURRENT_TIMESTAMP`,
		contextKey, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session for %s: %w", contextKey, err)
	}
	return nil
}

// Delete forgets the key.
func (s *SQLiteStore) Delete(contextKey string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE context_key = ?", contextKey); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", contextKey, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
