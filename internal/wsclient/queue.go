package wsclient

import (
	"sync"

	"github.com/codefionn/agentwire/internal/protocol"
)

// sendQueue buffers outbound envelopes while the connection is down. It is
// bounded: at capacity the oldest entry is evicted to admit the newest, so
// overflow loses the oldest pending message, never the newest. Entries are
// drained strictly in enqueue order when the connection comes back.
type sendQueue struct {
	mu       sync.Mutex
	items    []*protocol.Envelope
	capacity int
}

func newSendQueue(capacity int) *sendQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &sendQueue{capacity: capacity}
}

// push appends env, returning the evicted oldest entry if the queue was at
// capacity.
func (q *sendQueue) push(env *protocol.Envelope) *protocol.Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()

	var evicted *protocol.Envelope
	if len(q.items) == q.capacity {
		evicted = q.items[0]
		q.items = append(q.items[:0], q.items[1:]...)
	}
	q.items = append(q.items, env)
	return evicted
}

// drain removes and returns all buffered entries in FIFO order.
func (q *sendQueue) drain() []*protocol.Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
