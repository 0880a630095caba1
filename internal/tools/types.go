// Package tools holds the operation catalog exposed to the model and the
// dispatcher that routes decoded tool calls to their handlers.
package tools

import (
	"context"

	"helix/internal/types"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// Family groups operations for follow-up phrasing. The orchestrator picks
// its acknowledgement instruction per family, not per operation.
type Family string

const (
	FamilySequence Family = "sequence" // full sequence creation
	FamilyAsset    Family = "asset"    // single-asset creation
	FamilySearch   Family = "search"   // professional search and outreach
	FamilyEdit     Family = "edit"     // step-level edits
)

// ExecuteFunc is the signature for tool execution. Returns the result
// text and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one operation the model may invoke.
type Tool struct {
	// Name is the unique operation identifier surfaced to the model.
	Name string

	// Description explains what the operation does, for the model's
	// benefit.
	Description string

	// Family selects which follow-up phrasing applies after execution.
	Family Family

	// Execute runs the operation with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Definition renders the tool in the shape the model capability expects.
func (t *Tool) Definition() types.ToolDefinition {
	properties := make(map[string]interface{}, len(t.Schema.Properties))
	for name, p := range t.Schema.Properties {
		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop
	}
	required := t.Schema.Required
	if required == nil {
		required = []string{}
	}
	return types.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

// ToolResult wraps the result of one tool execution.
type ToolResult struct {
	// ToolName identifies which operation was executed.
	ToolName string

	// Result is the text output from the operation.
	Result string

	// Error is set if the operation failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
