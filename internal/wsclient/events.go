package wsclient

import (
	"reflect"
	"sync"

	"github.com/codefionn/agentwire/internal/logger"
	"github.com/codefionn/agentwire/internal/protocol"
)

// Event identifies a connection lifecycle event. Lifecycle events describe
// the channel itself and are distinct from payload-type subscriptions, which
// go through the client's message router.
type Event string

const (
	// EventConnect fires when the connection is established.
	EventConnect Event = "connect"
	// EventDisconnect fires on any close, clean or not.
	EventDisconnect Event = "disconnect"
	// EventMessage fires for every validated inbound envelope.
	EventMessage Event = "message"
	// EventError fires on transport, protocol and fatal errors.
	EventError Event = "error"
	// EventStateChange fires on every state transition.
	EventStateChange Event = "stateChange"
)

// EventData carries the context of one lifecycle event. Fields are populated
// depending on the event: State is always set; PrevState only on
// stateChange; Err on error and unclean disconnect; Envelope on message;
// Fatal marks the single error event emitted when the reconnection budget is
// exhausted.
type EventData struct {
	Event     Event
	State     State
	PrevState State
	Err       error
	Fatal     bool
	Envelope  *protocol.Envelope
}

// EventHandler observes lifecycle events.
type EventHandler func(EventData)

type eventSub struct {
	id    uint64
	fnKey uintptr
	fn    EventHandler
}

// eventEmitter maps each event to a de-duplicated, ordered collection of
// handler registrations; every subscribe returns a capability removing
// exactly that registration.
type eventEmitter struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Event][]*eventSub
	log    *logger.Logger
}

func newEventEmitter(log *logger.Logger) *eventEmitter {
	return &eventEmitter{
		subs: make(map[Event][]*eventSub),
		log:  log,
	}
}

func (em *eventEmitter) on(event Event, fn EventHandler) func() {
	if fn == nil {
		return func() {}
	}
	key := reflect.ValueOf(fn).Pointer()

	em.mu.Lock()
	defer em.mu.Unlock()

	for _, sub := range em.subs[event] {
		if sub.fnKey == key {
			id := sub.id
			return func() { em.remove(event, id) }
		}
	}

	em.nextID++
	sub := &eventSub{id: em.nextID, fnKey: key, fn: fn}
	em.subs[event] = append(em.subs[event], sub)
	id := sub.id
	return func() { em.remove(event, id) }
}

func (em *eventEmitter) remove(event Event, id uint64) {
	em.mu.Lock()
	defer em.mu.Unlock()

	subs := em.subs[event]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(em.subs, event)
	} else {
		em.subs[event] = subs
	}
}

// emit invokes every handler registered for the event in registration
// order. Handlers are isolated: a panic is recovered and logged so a broken
// observer cannot take down the channel.
func (em *eventEmitter) emit(data EventData) {
	em.mu.RLock()
	subs := make([]*eventSub, len(em.subs[data.Event]))
	copy(subs, em.subs[data.Event])
	em.mu.RUnlock()

	for _, sub := range subs {
		em.invoke(sub.fn, data)
	}
}

func (em *eventEmitter) invoke(fn EventHandler, data EventData) {
	defer func() {
		if rec := recover(); rec != nil {
			em.log.Error("event handler panic on %s: %v", data.Event, rec)
		}
	}()
	fn(data)
}

func (em *eventEmitter) clear() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.subs = make(map[Event][]*eventSub)
}
