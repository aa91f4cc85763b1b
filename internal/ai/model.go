package ai

import (
	"context"
	"encoding/json"
)

// Roles used in a conversation. They follow the Gemini convention; the OpenAI adapter
// maps RoleModel to "assistant".
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Turn is one entry of a conversation. A model turn may carry tool calls; the tool
// turn that follows carries their results.
type Turn struct {
	Role    string
	Text    string
	Calls   []ToolCall
	Results []ToolResult

	// Raw is the provider's native message for model turns. Adapters that recognise it
	// send it back verbatim so provider-specific state survives the round trip.
	Raw any
}

// ToolCall is a model's request to run one tool.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID string
	Name   string
	Output string
}

// ModelReply is one model response. Calls is empty when the model answered in text.
type ModelReply struct {
	Text  string
	Calls []ToolCall
	Raw   any
}

// Model is a conversational model that can request tool calls.
type Model interface {
	Generate(ctx context.Context, system string, turns []Turn, tools *ToolRegistry) (*ModelReply, error)
}
