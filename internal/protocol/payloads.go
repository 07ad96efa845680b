package protocol

// Payload structs declare the type-specific fields of each registered
// message tag. On the wire these fields are flattened into the envelope
// object next to the base fields, so field names must never collide with
// the reserved base keys (id, type, timestamp, session_id); Build enforces
// this.

// ConnectPayload is sent by the client right after the transport opens to
// bootstrap the session.
type ConnectPayload struct {
	ClientType   string   `json:"client_type,omitempty"`
	Version      string   `json:"version,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ConnectedPayload is the server's acknowledgment of a connect message. The
// authoritative session id travels in the envelope's session_id base field.
type ConnectedPayload struct {
	ServerVersion string `json:"server_version,omitempty"`
}

// DisconnectPayload announces an intentional close.
type DisconnectPayload struct {
	Reason string `json:"reason,omitempty"`
}

// HeartbeatPayload is the keep-alive sent while connected.
type HeartbeatPayload struct {
	Seq int64 `json:"seq"`
}

// UserMessagePayload carries user input to the agent.
type UserMessagePayload struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AssistantMessagePayload carries a complete assistant reply.
type AssistantMessagePayload struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// SystemMessagePayload carries out-of-band system notices.
type SystemMessagePayload struct {
	Content string `json:"content"`
	Level   string `json:"level,omitempty"`
}

// StreamContentPayload is one chunk of streamed assistant output.
type StreamContentPayload struct {
	StreamID   string `json:"stream_id"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	IsFinal    bool   `json:"is_final,omitempty"`
}

// StreamReasoningPayload is one chunk of streamed reasoning output.
type StreamReasoningPayload struct {
	StreamID   string `json:"stream_id"`
	ChunkIndex int    `json:"chunk_index"`
	Reasoning  string `json:"reasoning"`
}

// StreamCompletePayload terminates a stream.
type StreamCompletePayload struct {
	StreamID    string `json:"stream_id"`
	TotalChunks int    `json:"total_chunks,omitempty"`
}

// TaskStartPayload announces that a task began executing.
type TaskStartPayload struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title,omitempty"`
}

// TaskProgressPayload reports incremental task progress.
type TaskProgressPayload struct {
	TaskID   string  `json:"task_id"`
	Status   string  `json:"status,omitempty"`
	Progress float64 `json:"progress,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// TaskCompletePayload announces successful task completion.
type TaskCompletePayload struct {
	TaskID string `json:"task_id"`
	Result string `json:"result,omitempty"`
}

// TaskErrorPayload announces task failure.
type TaskErrorPayload struct {
	TaskID string `json:"task_id"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

// AgentStartPayload announces that the agent started a run.
type AgentStartPayload struct {
	AgentID string `json:"agent_id"`
	Mode    string `json:"mode,omitempty"`
}

// AgentCompletePayload announces that the agent finished a run.
type AgentCompletePayload struct {
	AgentID string `json:"agent_id"`
	Summary string `json:"summary,omitempty"`
}

// ToolCallStartPayload announces the start of a tool invocation.
type ToolCallStartPayload struct {
	ToolID     string            `json:"tool_id"`
	ToolName   string            `json:"tool_name"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// ToolCallProgressPayload reports tool invocation progress.
type ToolCallProgressPayload struct {
	ToolID string `json:"tool_id"`
	Detail string `json:"detail,omitempty"`
}

// ToolCallResultPayload carries the outcome of a tool invocation. Result and
// ErrorText are mutually exclusive.
type ToolCallResultPayload struct {
	ToolID    string  `json:"tool_id"`
	Status    string  `json:"status,omitempty"`
	Result    *string `json:"result,omitempty"`
	ErrorText *string `json:"error_text,omitempty"`
}

// ErrorPayload is a generic error signal from either side.
type ErrorPayload struct {
	Code    string `json:"code"`
	Detail  string `json:"detail"`
	Context string `json:"context,omitempty"`
}

// WarningPayload is a non-fatal warning signal.
type WarningPayload struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}
