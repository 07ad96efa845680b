package sessionstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Load("ws-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save("ws-a", "sess-1"))
	require.NoError(t, s.Save("ws-b", "sess-2"))

	id, ok, err := s.Load("ws-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-1", id)

	// Contexts never collide.
	id, ok, err = s.Load("ws-b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-2", id)

	// Overwrite is in place.
	require.NoError(t, s.Save("ws-a", "sess-3"))
	id, _, err = s.Load("ws-a")
	require.NoError(t, err)
	assert.Equal(t, "sess-3", id)

	require.NoError(t, s.Delete("ws-a"))
	_, ok, err = s.Load("ws-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("ws-a", "sess-persist"))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	id, ok, err := reopened.Load("ws-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-persist", id)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("ws-a", "sess-persist"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	id, ok, err := reopened.Load("ws-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-persist", id)
}
