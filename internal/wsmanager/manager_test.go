package wsmanager

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/agentwire/internal/router"
	"github.com/codefionn/agentwire/internal/wsclient"
)

func testClientConfig() *wsclient.Config {
	cfg := wsclient.DefaultConfig()
	cfg.URL = "ws://127.0.0.1:1"
	cfg.ReconnectAttempts = 1
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.SharedRouter = router.New()
	return cfg
}

func TestManagerGetInstanceSharesPerContext(t *testing.T) {
	m := New(nil)

	a1, err := m.GetInstance("workspace-a", testClientConfig())
	require.NoError(t, err)
	a2, err := m.GetInstance("workspace-a", testClientConfig())
	require.NoError(t, err)
	b, err := m.GetInstance("workspace-b", testClientConfig())
	require.NoError(t, err)

	assert.Same(t, a1, a2, "one context must map to one client")
	assert.NotSame(t, a1, b, "different contexts get independent clients")
	assert.Equal(t, 2, m.Count())
}

func TestManagerGetInstanceValidates(t *testing.T) {
	m := New(nil)

	_, err := m.GetInstance("", testClientConfig())
	assert.ErrorIs(t, err, wsclient.ErrMissingContextKey)

	_, err = m.GetInstance("workspace-a", &wsclient.Config{})
	assert.ErrorIs(t, err, wsclient.ErrMissingURL)
	assert.Equal(t, 0, m.Count(), "failed creation must not be tracked")
}

func TestManagerGetInstanceConcurrent(t *testing.T) {
	m := New(nil)

	var wg sync.WaitGroup
	clients := make([]*wsclient.Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.GetInstance("workspace-a", testClientConfig())
			require.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
	assert.Equal(t, 1, m.Count())
}

func TestManagerDisconnect(t *testing.T) {
	m := New(nil)

	_, err := m.GetInstance("workspace-a", testClientConfig())
	require.NoError(t, err)

	require.NoError(t, m.Disconnect("workspace-a"))
	assert.Equal(t, 0, m.Count())

	// Unknown contexts are a no-op.
	require.NoError(t, m.Disconnect("workspace-a"))
	require.NoError(t, m.Disconnect("never-seen"))
}

func TestManagerDisconnectAll(t *testing.T) {
	m := New(nil)

	for _, key := range []string{"a", "b", "c"} {
		_, err := m.GetInstance(key, testClientConfig())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, m.Count())

	require.NoError(t, m.DisconnectAll())
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.ActiveContexts())
}

func TestManagerActiveContextsSorted(t *testing.T) {
	m := New(nil)

	for _, key := range []string{"zeta", "alpha", "mid"} {
		_, err := m.GetInstance(key, testClientConfig())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, m.ActiveContexts())
}

func TestManagerIntrospectionDefaults(t *testing.T) {
	m := New(nil)

	assert.False(t, m.IsConnected("unknown"))
	assert.Equal(t, wsclient.StateDisconnected, m.State("unknown"))

	_, err := m.GetInstance("workspace-a", testClientConfig())
	require.NoError(t, err)
	assert.False(t, m.IsConnected("workspace-a"), "a fresh client starts disconnected")
	assert.Equal(t, wsclient.StateDisconnected, m.State("workspace-a"))
}

func TestDefaultManagerSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
