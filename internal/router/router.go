package router

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/codefionn/agentwire/internal/protocol"
)

// Handler processes one dispatched envelope. A handler returning an error
// (or panicking) never prevents sibling handlers from running.
type Handler func(env *protocol.Envelope) error

// subscription is one live handler registration. fnKey identifies the
// underlying function so that registering the same handler twice for the
// same type stays idempotent.
type subscription struct {
	id    uint64
	fnKey uintptr
	fn    Handler
	once  bool
	fired sync.Once
}

// Router is a type-keyed publish/subscribe dispatcher. Handlers register
// interest in one message type (or every type, via OnAny) and dispatch fans
// each envelope out to them with per-handler failure isolation. The Router
// has no connection-state concept.
type Router struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[protocol.MessageType][]*subscription
	wildcard []*subscription
}

// New creates an empty router.
func New() *Router {
	return &Router{
		handlers: make(map[protocol.MessageType][]*subscription),
	}
}

// On registers a handler for one message type and returns the capability to
// remove exactly that registration. Registering the same function twice for
// the same type is idempotent: the handler fires once per dispatch.
func (r *Router) On(msgType protocol.MessageType, fn Handler) func() {
	return r.register(msgType, fn, false)
}

// Once registers a handler that self-unregisters after its first invocation,
// guaranteeing at-most-one delivery to that registration even when dispatches
// run concurrently.
func (r *Router) Once(msgType protocol.MessageType, fn Handler) func() {
	return r.register(msgType, fn, true)
}

func (r *Router) register(msgType protocol.MessageType, fn Handler, once bool) func() {
	if fn == nil {
		return func() {}
	}
	key := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.handlers[msgType] {
		if sub.fnKey == key {
			id := sub.id
			return func() { r.remove(msgType, id) }
		}
	}

	r.nextID++
	sub := &subscription{id: r.nextID, fnKey: key, fn: fn, once: once}
	r.handlers[msgType] = append(r.handlers[msgType], sub)
	id := sub.id
	return func() { r.remove(msgType, id) }
}

// OnAny registers a handler invoked for every dispatched message regardless
// of type.
func (r *Router) OnAny(fn Handler) func() {
	if fn == nil {
		return func() {}
	}
	key := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.wildcard {
		if sub.fnKey == key {
			id := sub.id
			return func() { r.removeWildcard(id) }
		}
	}

	r.nextID++
	sub := &subscription{id: r.nextID, fnKey: key, fn: fn}
	r.wildcard = append(r.wildcard, sub)
	id := sub.id
	return func() { r.removeWildcard(id) }
}

// remove deletes one typed registration; dropping the last handler for a
// type prunes the type entry so the registry does not grow with churn.
func (r *Router) remove(msgType protocol.MessageType, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.handlers[msgType]
	for i, sub := range subs {
		if sub.id == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(r.handlers, msgType)
	} else {
		r.handlers[msgType] = subs
	}
}

func (r *Router) removeWildcard(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.wildcard {
		if sub.id == id {
			r.wildcard = append(r.wildcard[:i], r.wildcard[i+1:]...)
			return
		}
	}
}

// Dispatch invokes every handler registered for the envelope's exact type in
// registration order, then every wildcard handler. Each handler runs
// isolated: a panic or error in one never prevents its siblings from
// running and never prevents Dispatch from returning. Collected failures
// are reported through the returned error.
func (r *Router) Dispatch(env *protocol.Envelope) error {
	if env == nil {
		return errors.New("router: dispatch of nil envelope")
	}

	r.mu.RLock()
	typed := make([]*subscription, len(r.handlers[env.Type]))
	copy(typed, r.handlers[env.Type])
	wild := make([]*subscription, len(r.wildcard))
	copy(wild, r.wildcard)
	r.mu.RUnlock()

	var errs []error
	for _, sub := range typed {
		if sub.once {
			delivered := false
			sub.fired.Do(func() {
				delivered = true
				r.remove(env.Type, sub.id)
				if err := invoke(sub.fn, env); err != nil {
					errs = append(errs, fmt.Errorf("handler for %q: %w", env.Type, err))
				}
			})
			if !delivered {
				continue
			}
		} else if err := invoke(sub.fn, env); err != nil {
			errs = append(errs, fmt.Errorf("handler for %q: %w", env.Type, err))
		}
	}
	for _, sub := range wild {
		if err := invoke(sub.fn, env); err != nil {
			errs = append(errs, fmt.Errorf("wildcard handler on %q: %w", env.Type, err))
		}
	}

	return errors.Join(errs...)
}

// invoke runs one handler with panic isolation.
func invoke(fn Handler, env *protocol.Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return fn(env)
}

// Off removes every handler registered for one type.
func (r *Router) Off(msgType protocol.MessageType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, msgType)
}

// Clear removes every registration, typed and wildcard. Used for teardown.
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[protocol.MessageType][]*subscription)
	r.wildcard = nil
}

// HandlerCount returns the number of live registrations for one type.
func (r *Router) HandlerCount(msgType protocol.MessageType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[msgType])
}

// TypeCount returns the number of types with at least one live registration.
func (r *Router) TypeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
