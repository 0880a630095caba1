package types

import (
	"context"
)

// LLMClient defines the interface for the model capability.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// CompleteWithTools sends a prompt with tool definitions and returns the
	// response with any tool calls the model decided to make.
	CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDefinition) (*LLMToolResponse, error)
}

// ToolDefinition describes an operation the model can invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// UsageMetadata captures token usage metrics from the model.
type UsageMetadata struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// LLMToolResponse contains both text response and tool calls from the model.
type LLMToolResponse struct {
	Text       string        `json:"text"`        // May be empty if only tool calls
	ToolCalls  []ToolCall    `json:"tool_calls"`  // Tool invocations requested by the model
	StopReason string        `json:"stop_reason"` // "end_turn", "tool_use", etc.
	Usage      UsageMetadata `json:"usage"`
}

// NotificationSink receives "sequence changed" events for push delivery.
// Implementations are fire-and-forget: delivery failure must never fail
// the turn that produced the event.
type NotificationSink interface {
	SequenceUpdated(sessionID string, steps []SequenceStep)
}

// NopSink discards all notifications. Useful in tests and the CLI client,
// which reads the snapshot from the turn result instead.
type NopSink struct{}

func (NopSink) SequenceUpdated(string, []SequenceStep) {}
