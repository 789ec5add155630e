// ABOUTME: Turn event stream types emitted during generation
// ABOUTME: Consumed by the HTTP layer and relayed to clients as SSE

package chat

import "encoding/json"

// EventType identifies a turn event
type EventType string

const (
	// EventText carries one streamed text fragment
	EventText EventType = "text"
	// EventToolCall announces a tool invocation requested by the model
	EventToolCall EventType = "tool_call"
	// EventToolResult carries a completed tool result payload
	EventToolResult EventType = "tool_result"
	// EventConfirmationRequired suspends the turn pending user approval
	EventConfirmationRequired EventType = "confirmation_required"
	// EventDone closes a successful turn
	EventDone EventType = "done"
	// EventError closes a failed turn
	EventError EventType = "error"
)

// Event is one entry in a turn's event stream.
type Event struct {
	Type EventType `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`

	ThreadID  string `json:"threadId,omitempty"`
	MessageID string `json:"messageId,omitempty"`

	Error string `json:"error,omitempty"`
}
