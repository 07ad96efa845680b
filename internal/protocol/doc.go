// Package protocol defines the JSON message envelope exchanged with the
// agent backend and the closed registry of message types.
//
// Every frame on the wire is a single JSON object carrying four base fields
// (id, type, timestamp, session_id) with the type-specific fields flattened
// alongside them, so each message's shape is the intersection of the base
// envelope and its tag's payload struct:
//
//	{"id":"...","type":"user_message","timestamp":"...","session_id":"...","content":"hi"}
//
// Construction and parsing are pure: Build produces a complete envelope from
// a tag and its typed payload, Parse validates a raw frame and either yields
// a well-typed envelope or a *ParseError. Messages with an unknown or
// missing type are unroutable and rejected here, before any dispatch.
package protocol
