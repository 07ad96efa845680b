// Package router implements type-keyed publish/subscribe dispatch for
// protocol envelopes.
//
// Subscribers register interest in a single message type (On, Once) or in
// every message (OnAny); each registration returns an unsubscribe capability
// that removes exactly that registration. Dispatch is fan-out with isolated
// failure handling: one handler erroring or panicking never affects its
// siblings, and collected failures are reported to the dispatching caller
// rather than swallowed or rethrown.
package router
