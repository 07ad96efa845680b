package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.SetState("ws-a", 2)
	m.IncSent("ws-a", "user_message")
	m.IncSent("ws-a", "user_message")
	m.IncReceived("ws-a", "assistant_message")
	m.IncQueued("ws-a")
	m.IncDropped("ws-a")
	m.SetQueueDepth("ws-a", 3)
	m.IncReconnect("ws-a")
	m.IncDispatchFailure("ws-a", "error")
	m.IncParseFailure("ws-a")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("ws-a", "user_message")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("ws-a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("ws-a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconnectAttempts.WithLabelValues("ws-a")))
}

func TestDoubleRegisterFails(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	require.Error(t, New().Register(reg))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.SetState("ws-a", 1)
	m.IncSent("ws-a", "heartbeat")
	m.IncReceived("ws-a", "heartbeat")
	m.IncQueued("ws-a")
	m.IncDropped("ws-a")
	m.SetQueueDepth("ws-a", 0)
	m.IncReconnect("ws-a")
	m.IncDispatchFailure("ws-a", "error")
	m.IncParseFailure("ws-a")
}
