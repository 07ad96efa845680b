package router

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/agentwire/internal/protocol"
)

func mustBuild(t *testing.T, msgType protocol.MessageType) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Build(msgType, nil, "sess-test")
	require.NoError(t, err)
	return env
}

func TestOnAndDispatch(t *testing.T) {
	r := New()
	var got []protocol.MessageType

	r.On(protocol.TypeUserMessage, func(env *protocol.Envelope) error {
		got = append(got, env.Type)
		return nil
	})

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeUserMessage)))
	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeHeartbeat)))

	assert.Equal(t, []protocol.MessageType{protocol.TypeUserMessage}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	r := New()
	var calls int

	off := r.On(protocol.TypeError, func(*protocol.Envelope) error {
		calls++
		return nil
	})

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeError)))
	off()
	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeError)))

	assert.Equal(t, 1, calls)
}

func TestDuplicateRegistrationIsIdempotent(t *testing.T) {
	r := New()
	var calls int
	handler := func(*protocol.Envelope) error {
		calls++
		return nil
	}

	r.On(protocol.TypeWarning, handler)
	r.On(protocol.TypeWarning, handler)
	assert.Equal(t, 1, r.HandlerCount(protocol.TypeWarning))

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeWarning)))
	assert.Equal(t, 1, calls)
}

func TestLastUnsubscribePrunesType(t *testing.T) {
	r := New()
	off1 := r.On(protocol.TypeTaskStart, func(*protocol.Envelope) error { return nil })
	off2 := r.On(protocol.TypeTaskStart, func(*protocol.Envelope) error { return nil })
	assert.Equal(t, 1, r.TypeCount())

	off1()
	assert.Equal(t, 1, r.TypeCount())
	off2()
	assert.Equal(t, 0, r.TypeCount())
}

func TestOnAnyReceivesEverything(t *testing.T) {
	r := New()
	var all, typed int

	r.OnAny(func(*protocol.Envelope) error {
		all++
		return nil
	})
	r.On(protocol.TypeHeartbeat, func(*protocol.Envelope) error {
		typed++
		return nil
	})

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeHeartbeat)))
	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeUserMessage)))

	assert.Equal(t, 2, all)
	assert.Equal(t, 1, typed)
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	r := New()
	var calls int

	r.Once(protocol.TypeStreamComplete, func(*protocol.Envelope) error {
		calls++
		return nil
	})

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeStreamComplete)))
	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeStreamComplete)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, r.HandlerCount(protocol.TypeStreamComplete))
}

func TestOnceUnderConcurrentDispatch(t *testing.T) {
	r := New()
	var calls atomic.Int32

	r.Once(protocol.TypeTaskComplete, func(*protocol.Envelope) error {
		calls.Add(1)
		return nil
	})

	env := mustBuild(t, protocol.TypeTaskComplete)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Dispatch(env)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatchIsolatesFailures(t *testing.T) {
	r := New()
	var after, wild int

	r.On(protocol.TypeError, func(*protocol.Envelope) error {
		panic("boom")
	})
	r.On(protocol.TypeError, func(*protocol.Envelope) error {
		after++
		return errors.New("handler failed")
	})
	r.OnAny(func(*protocol.Envelope) error {
		wild++
		return nil
	})

	err := r.Dispatch(mustBuild(t, protocol.TypeError))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Contains(t, err.Error(), "handler failed")

	// Both siblings ran despite the panic and error.
	assert.Equal(t, 1, after)
	assert.Equal(t, 1, wild)
}

func TestDispatchRegistrationOrder(t *testing.T) {
	r := New()
	var order []int

	r.On(protocol.TypeSystemMessage, func(*protocol.Envelope) error {
		order = append(order, 1)
		return nil
	})
	r.On(protocol.TypeSystemMessage, func(*protocol.Envelope) error {
		order = append(order, 2)
		return nil
	})
	r.OnAny(func(*protocol.Envelope) error {
		order = append(order, 3)
		return nil
	})

	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeSystemMessage)))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestOffAndClear(t *testing.T) {
	r := New()
	r.On(protocol.TypeWarning, func(*protocol.Envelope) error { return nil })
	r.On(protocol.TypeError, func(*protocol.Envelope) error { return nil })
	r.OnAny(func(*protocol.Envelope) error { return nil })

	r.Off(protocol.TypeWarning)
	assert.Equal(t, 0, r.HandlerCount(protocol.TypeWarning))
	assert.Equal(t, 1, r.HandlerCount(protocol.TypeError))

	r.Clear()
	assert.Equal(t, 0, r.TypeCount())
	require.NoError(t, r.Dispatch(mustBuild(t, protocol.TypeError)))
}

func TestSharedRouterIsSingleton(t *testing.T) {
	assert.Same(t, Shared(), Shared())
}
