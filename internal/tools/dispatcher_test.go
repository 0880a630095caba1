package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/sequence"
	"helix/internal/types"
)

func TestDispatchInjectsSessionID(t *testing.T) {
	var seen string
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "probe",
		Description: "records its session id",
		Family:      FamilyEdit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			seen, _ = args["session_id"].(string)
			return "ok", nil
		},
	})
	d := NewDispatcher(r)

	// Model hallucinated a different session id; the caller's wins.
	results := d.Dispatch(context.Background(), "real-session", []types.ToolCall{
		{Name: "probe", Input: map[string]any{"session_id": "hallucinated"}},
	})

	require.Len(t, results, 1)
	assert.False(t, results[0].Failed)
	assert.Equal(t, "real-session", seen)
}

func TestDispatchUnknownOperation(t *testing.T) {
	d := NewDispatcher(NewRegistry())

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{
		{Name: "launch_rockets", Input: map[string]any{}},
	})

	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Contains(t, results[0].Text, "launch_rockets")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "boom",
		Description: "panics",
		Family:      FamilyEdit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			panic("unexpected")
		},
	})
	d := NewDispatcher(r)

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{{Name: "boom"}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Contains(t, results[0].Text, "boom")
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	var order []string
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "fails",
		Description: "always fails",
		Family:      FamilyEdit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			order = append(order, "fails")
			return "", errors.New("storage offline")
		},
	})
	r.MustRegister(&Tool{
		Name:        "works",
		Description: "always works",
		Family:      FamilyEdit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			order = append(order, "works")
			return "done", nil
		},
	})
	d := NewDispatcher(r)

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{
		{Name: "fails"}, {Name: "works"},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Failed)
	assert.Contains(t, results[0].Text, "storage offline")
	assert.False(t, results[1].Failed)
	assert.Equal(t, "done", results[1].Text)
	assert.Equal(t, []string{"fails", "works"}, order)
}

func TestDispatchRendersSequenceErrors(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "revise",
		Description: "fails with a structured not-found",
		Family:      FamilyEdit,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", &sequence.Error{Kind: sequence.KindNotFound, Message: "Step 5 not found."}
		},
	})
	d := NewDispatcher(r)

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{{Name: "revise"}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Equal(t, "Step 5 not found.", results[0].Text)
}

func TestDispatchMissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("echo"))
	d := NewDispatcher(r)

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{{Name: "echo"}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed)
	assert.Contains(t, results[0].Text, "missing required information")
}

func TestDispatchReportsFamily(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:        "make_sequence",
		Description: "sequence family",
		Family:      FamilySequence,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "ok", nil
		},
	})
	d := NewDispatcher(r)

	results := d.Dispatch(context.Background(), "s1", []types.ToolCall{{Name: "make_sequence"}})
	require.Len(t, results, 1)
	assert.Equal(t, FamilySequence, results[0].Family)
}
