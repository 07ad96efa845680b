package wsclient

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/agentwire/internal/protocol"
)

func makeEnvelope(t *testing.T, content string) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Build(protocol.TypeUserMessage,
		&protocol.UserMessagePayload{Content: content}, "sess-1")
	require.NoError(t, err)
	return env
}

func envelopeContent(t *testing.T, env *protocol.Envelope) string {
	t.Helper()
	var p protocol.UserMessagePayload
	require.NoError(t, env.Decode(&p))
	return p.Content
}

func TestSendQueueFIFO(t *testing.T) {
	q := newSendQueue(10)

	for i := 0; i < 3; i++ {
		evicted := q.push(makeEnvelope(t, fmt.Sprintf("msg-%d", i)))
		assert.Nil(t, evicted)
	}
	assert.Equal(t, 3, q.len())

	drained := q.drain()
	require.Len(t, drained, 3)
	for i, env := range drained {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), envelopeContent(t, env))
	}
	assert.Equal(t, 0, q.len())
}

func TestSendQueueEvictsOldest(t *testing.T) {
	q := newSendQueue(3)

	for i := 0; i < 3; i++ {
		q.push(makeEnvelope(t, fmt.Sprintf("msg-%d", i)))
	}

	evicted := q.push(makeEnvelope(t, "msg-3"))
	require.NotNil(t, evicted)
	assert.Equal(t, "msg-0", envelopeContent(t, evicted), "overflow must drop the oldest entry")

	drained := q.drain()
	require.Len(t, drained, 3)
	assert.Equal(t, "msg-1", envelopeContent(t, drained[0]))
	assert.Equal(t, "msg-3", envelopeContent(t, drained[2]))
}

func TestSendQueueMinimumCapacity(t *testing.T) {
	q := newSendQueue(0)

	assert.Nil(t, q.push(makeEnvelope(t, "a")))
	evicted := q.push(makeEnvelope(t, "b"))
	require.NotNil(t, evicted)
	assert.Equal(t, 1, q.len())
}

func TestSendQueueDrainEmpty(t *testing.T) {
	q := newSendQueue(5)
	assert.Empty(t, q.drain())
}
