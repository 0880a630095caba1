package tools

import (
	"context"
	"errors"
	"fmt"

	"helix/internal/logging"
	"helix/internal/sequence"
	"helix/internal/types"
)

// Dispatcher routes decoded tool calls from the model to registered
// operations. It owns the two trust rules of dispatch: the caller's
// session id always overrides whatever the model put in the arguments,
// and no call may crash the turn.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher wraps a registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Registry exposes the underlying catalog, e.g. for building the model's
// tool definitions.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// DispatchResult is the outcome of one tool call.
type DispatchResult struct {
	Operation string
	Family    Family
	Text      string
	Failed    bool
}

// Dispatch executes each tool call in order, independently: a failure in
// one call is rendered as text and dispatch continues to the next. The
// sessionID argument is authoritative and is injected over any session id
// the model supplied.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, calls []types.ToolCall) []DispatchResult {
	results := make([]DispatchResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, d.dispatchOne(ctx, sessionID, call))
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, sessionID string, call types.ToolCall) (result DispatchResult) {
	result = DispatchResult{Operation: call.Name}

	tool := d.registry.Get(call.Name)
	if tool == nil {
		logging.Tools("Dispatch: unknown operation %q requested by model (session %s)", call.Name, sessionID)
		result.Text = fmt.Sprintf("The requested operation %q is not available.", call.Name)
		result.Failed = true
		return result
	}
	result.Family = tool.Family

	args := make(map[string]any, len(call.Input)+1)
	for k, v := range call.Input {
		args[k] = v
	}
	if model, ok := args["session_id"]; ok && model != sessionID {
		logging.ToolsDebug("Dispatch: overriding model-supplied session_id %v with %s", model, sessionID)
	}
	args["session_id"] = sessionID

	// A panic in a handler must not take down the turn.
	defer func() {
		if r := recover(); r != nil {
			logging.ToolsError("Dispatch: panic in %s: %v", call.Name, r)
			result.Text = fmt.Sprintf("An internal error occurred while executing %s.", call.Name)
			result.Failed = true
		}
	}()

	toolResult, err := d.registry.ExecuteTool(ctx, tool, args)
	if err != nil {
		result.Failed = true
		result.Text = renderError(call.Name, err)
		logging.Tools("Dispatch: %s failed: %v", call.Name, err)
		return result
	}

	result.Text = toolResult.Result
	return result
}

// renderError converts a handler error into the user-facing text that
// stands in for the operation's result.
func renderError(operation string, err error) string {
	var seqErr *sequence.Error
	if errors.As(err, &seqErr) {
		return seqErr.UserText()
	}
	if errors.Is(err, ErrMissingRequiredArg) {
		return fmt.Sprintf("The %s request was missing required information (%v).", operation, err)
	}
	return fmt.Sprintf("An error occurred while executing %s: %v", operation, err)
}
