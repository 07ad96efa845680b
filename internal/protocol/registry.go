package protocol

import "sort"

// MessageType identifies a message on the wire. The set of valid types is
// closed: every tag must be registered below together with its payload shape.
type MessageType string

const (
	// Connection lifecycle
	TypeConnect    MessageType = "connect"
	TypeConnected  MessageType = "connected"
	TypeDisconnect MessageType = "disconnect"
	TypeHeartbeat  MessageType = "heartbeat"

	// Conversational
	TypeUserMessage      MessageType = "user_message"
	TypeAssistantMessage MessageType = "assistant_message"
	TypeSystemMessage    MessageType = "system_message"

	// Streaming (LLM output stream)
	TypeStreamContent   MessageType = "stream_content"
	TypeStreamReasoning MessageType = "stream_reasoning"
	TypeStreamComplete  MessageType = "stream_complete"

	// Task lifecycle
	TypeTaskStart    MessageType = "task_start"
	TypeTaskProgress MessageType = "task_progress"
	TypeTaskComplete MessageType = "task_complete"
	TypeTaskError    MessageType = "task_error"

	// Agent lifecycle
	TypeAgentStart    MessageType = "agent_start"
	TypeAgentComplete MessageType = "agent_complete"

	// Tool invocation
	TypeToolCallStart    MessageType = "tool_call_start"
	TypeToolCallProgress MessageType = "tool_call_progress"
	TypeToolCallResult   MessageType = "tool_call_result"

	// Error / warning
	TypeError   MessageType = "error"
	TypeWarning MessageType = "warning"
)

// String returns the primitive string form of the tag.
func (t MessageType) String() string {
	return string(t)
}

// payloadRegistry maps each registered tag to a factory producing a zero
// value of its payload struct. Adding a new message type means adding a
// payload struct and an entry here; unregistered tags are rejected by Parse
// and Build.
var payloadRegistry = map[MessageType]func() any{
	TypeConnect:    func() any { return &ConnectPayload{} },
	TypeConnected:  func() any { return &ConnectedPayload{} },
	TypeDisconnect: func() any { return &DisconnectPayload{} },
	TypeHeartbeat:  func() any { return &HeartbeatPayload{} },

	TypeUserMessage:      func() any { return &UserMessagePayload{} },
	TypeAssistantMessage: func() any { return &AssistantMessagePayload{} },
	TypeSystemMessage:    func() any { return &SystemMessagePayload{} },

	TypeStreamContent:   func() any { return &StreamContentPayload{} },
	TypeStreamReasoning: func() any { return &StreamReasoningPayload{} },
	TypeStreamComplete:  func() any { return &StreamCompletePayload{} },

	TypeTaskStart:    func() any { return &TaskStartPayload{} },
	TypeTaskProgress: func() any { return &TaskProgressPayload{} },
	TypeTaskComplete: func() any { return &TaskCompletePayload{} },
	TypeTaskError:    func() any { return &TaskErrorPayload{} },

	TypeAgentStart:    func() any { return &AgentStartPayload{} },
	TypeAgentComplete: func() any { return &AgentCompletePayload{} },

	TypeToolCallStart:    func() any { return &ToolCallStartPayload{} },
	TypeToolCallProgress: func() any { return &ToolCallProgressPayload{} },
	TypeToolCallResult:   func() any { return &ToolCallResultPayload{} },

	TypeError:   func() any { return &ErrorPayload{} },
	TypeWarning: func() any { return &WarningPayload{} },
}

// KnownType reports whether t is a member of the closed type registry.
func KnownType(t MessageType) bool {
	_, ok := payloadRegistry[t]
	return ok
}

// NewPayload returns a fresh zero payload for the given tag, or false if the
// tag is not registered.
func NewPayload(t MessageType) (any, bool) {
	factory, ok := payloadRegistry[t]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// RegisteredTypes returns all registered tags in lexical order.
func RegisteredTypes() []MessageType {
	types := make([]MessageType, 0, len(payloadRegistry))
	for t := range payloadRegistry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
