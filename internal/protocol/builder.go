package protocol

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Build constructs a complete envelope for the given tag: a fresh id and
// timestamp are generated, the payload fields are flattened into the
// envelope and the given session id is stamped. payload may be nil for tags
// without required fields, otherwise it must be the payload struct
// registered for the tag (or a pointer to it).
func Build(t MessageType, payload any, sessionID string) (*Envelope, error) {
	if !KnownType(t) {
		return nil, fmt.Errorf("build: unknown message type %q", t)
	}
	if err := checkPayloadShape(t, payload); err != nil {
		return nil, err
	}

	env := &Envelope{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sessionID,
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("build: marshal payload for %q: %w", t, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("build: payload for %q is not an object: %w", t, err)
		}
		for _, reserved := range []string{fieldID, fieldType, fieldTimestamp, fieldSessionID} {
			if _, clash := fields[reserved]; clash {
				return nil, fmt.Errorf("build: payload for %q uses reserved field %q", t, reserved)
			}
		}
		if len(fields) > 0 {
			env.fields = fields
		}
	}

	return env, nil
}

// checkPayloadShape enforces the closed discriminated union: a non-nil
// payload must be the struct registered for the tag.
func checkPayloadShape(t MessageType, payload any) error {
	if payload == nil {
		return nil
	}
	proto, _ := NewPayload(t)
	want := reflect.TypeOf(proto) // pointer to payload struct
	got := reflect.TypeOf(payload)
	if got == want || got == want.Elem() {
		return nil
	}
	return fmt.Errorf("build: payload type %s does not match %s declared for %q", got, want.Elem(), t)
}
