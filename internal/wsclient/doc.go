// Package wsclient implements the resilient WebSocket client for the agent
// backend: a connection state machine with exponential-backoff reconnection,
// heartbeat keep-alives, a bounded offline send queue flushed on reconnect,
// and session identity that survives restarts through a pluggable store.
//
// Inbound messages are validated by the protocol package and dispatched
// through the client's own router and once through the process-wide shared
// router. Connection lifecycle events (connect, disconnect, error,
// stateChange) use a separate subscription surface from payload-type
// handlers.
package wsclient
