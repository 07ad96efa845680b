package protocol

import (
	"encoding/json"
	"fmt"
)

// Reserved base field keys. Payload fields may never use these names.
const (
	fieldID        = "id"
	fieldType      = "type"
	fieldTimestamp = "timestamp"
	fieldSessionID = "session_id"
)

// Envelope is the wire shape shared by every message in both directions.
// Type-specific fields are flattened into the same JSON object as the base
// fields rather than nested under a payload key; they are kept as raw JSON
// and mapped onto the tag's payload struct via Decode.
type Envelope struct {
	ID        string
	Type      MessageType
	Timestamp string
	SessionID string

	fields map[string]json.RawMessage
}

// ParseError describes a structural validation failure. A ParseError means
// the message is unroutable and must be dropped before dispatch; it is never
// a reason to tear down the channel.
type ParseError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid message: field %q: %s", e.Field, e.Reason)
	}
	return "invalid message: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// Marshal serializes the envelope to its wire form. The type tag is coerced
// to its primitive string representation so an enumerated MessageType value
// never reaches the encoder as anything but a plain string.
func (e *Envelope) Marshal() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(e.fields)+4)
	for k, v := range e.fields {
		obj[k] = v
	}

	var err error
	if obj[fieldID], err = json.Marshal(e.ID); err != nil {
		return nil, err
	}
	if obj[fieldType], err = json.Marshal(e.Type.String()); err != nil {
		return nil, err
	}
	if obj[fieldTimestamp], err = json.Marshal(e.Timestamp); err != nil {
		return nil, err
	}
	if obj[fieldSessionID], err = json.Marshal(e.SessionID); err != nil {
		return nil, err
	}

	return json.Marshal(obj)
}

// Parse validates a raw wire frame and produces a well-typed envelope.
// Validation checks: the frame is a JSON object, the base fields are present
// with the expected primitive types, and the type tag is registered. Any
// failure yields a *ParseError; Parse never panics on malformed input.
func Parse(data []byte) (*Envelope, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", cause: err}
	}
	if obj == nil {
		return nil, &ParseError{Reason: "not a JSON object"}
	}

	env := &Envelope{}
	var err error
	if env.ID, err = stringField(obj, fieldID); err != nil {
		return nil, err.(*ParseError)
	}
	var typeStr string
	if typeStr, err = stringField(obj, fieldType); err != nil {
		return nil, err.(*ParseError)
	}
	if env.Timestamp, err = stringField(obj, fieldTimestamp); err != nil {
		return nil, err.(*ParseError)
	}
	if env.SessionID, err = stringField(obj, fieldSessionID); err != nil {
		return nil, err.(*ParseError)
	}

	env.Type = MessageType(typeStr)
	if !KnownType(env.Type) {
		return nil, &ParseError{Field: fieldType, Reason: fmt.Sprintf("unknown message type %q", typeStr)}
	}

	delete(obj, fieldID)
	delete(obj, fieldType)
	delete(obj, fieldTimestamp)
	delete(obj, fieldSessionID)
	if len(obj) > 0 {
		env.fields = obj
	}

	return env, nil
}

// Decode unmarshals the flattened type-specific fields into v, which should
// be a pointer to the payload struct registered for the envelope's type.
func (e *Envelope) Decode(v any) error {
	if len(e.fields) == 0 {
		return nil
	}
	data, err := json.Marshal(e.fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Payload returns a freshly decoded payload struct for the envelope's type.
func (e *Envelope) Payload() (any, error) {
	p, ok := NewPayload(e.Type)
	if !ok {
		return nil, &ParseError{Field: fieldType, Reason: fmt.Sprintf("unknown message type %q", e.Type)}
	}
	if err := e.Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Field returns the raw JSON of one flattened payload field.
func (e *Envelope) Field(name string) (json.RawMessage, bool) {
	raw, ok := e.fields[name]
	return raw, ok
}

func stringField(obj map[string]json.RawMessage, name string) (string, error) {
	raw, ok := obj[name]
	if !ok {
		return "", &ParseError{Field: name, Reason: "missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ParseError{Field: name, Reason: "not a string", cause: err}
	}
	return s, nil
}
