package wsclient

import (
	"errors"
	"fmt"
)

// WireError represents an error on the transport or protocol level
type WireError struct {
	Code    string
	Message string
	Details string
}

func (e *WireError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// NewWireError creates a new WireError
func NewWireError(code, message, details string) *WireError {
	return &WireError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	// ErrMissingURL is returned when a client is constructed without a
	// transport URL.
	ErrMissingURL = errors.New("wsclient: transport URL is required")
	// ErrMissingContextKey is returned when a client is constructed with
	// an empty workspace context key.
	ErrMissingContextKey = errors.New("wsclient: context key is required")
	// ErrClientClosed is returned when an operation races a manual
	// disconnect.
	ErrClientClosed = errors.New("wsclient: client is closed")
)
