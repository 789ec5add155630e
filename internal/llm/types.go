// ABOUTME: Model-facing types and the Client interface for chat generation
// ABOUTME: Wire-format details live in the concrete client implementations

package llm

import (
	"context"
	"encoding/json"
)

// Role constants for chat messages sent to the model
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool describes a callable tool offered to the model.
// Parameters is a JSON Schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a single tool invocation requested by the model.
// Args is the raw JSON argument payload as produced by the model.
type ToolCall struct {
	ID   string
	Name string
	Args string
}

// ChatMessage is one entry of model-facing conversation history.
// ToolCallID links a tool-role message back to the call it answers.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ChatRequest is a single generation request.
type ChatRequest struct {
	Messages []ChatMessage
	Tools    []Tool
}

// ChatResponse is the fully accumulated result of one generation.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Client generates chat completions. StreamChat forwards text deltas through
// onDelta as they arrive and returns the accumulated response once the model
// finishes. onDelta may be nil.
type Client interface {
	StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) (*ChatResponse, error)
}
