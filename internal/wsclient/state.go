package wsclient

// State represents the current state of the connection
type State int

const (
	// StateDisconnected indicates the client is not connected
	StateDisconnected State = iota
	// StateConnecting indicates the client is attempting to connect
	StateConnecting
	// StateConnected indicates the client is connected
	StateConnected
	// StateReconnecting indicates the client is waiting to reconnect
	StateReconnecting
	// StateError indicates the client gave up after exhausting its
	// reconnection budget
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
