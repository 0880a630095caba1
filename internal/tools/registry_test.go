package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Family:      FamilyEdit,
		Schema: ToolSchema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return s, nil
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	assert.True(t, r.Has("echo"))
	assert.NotNil(t, r.Get("echo"))
	assert.Nil(t, r.Get("missing"))
	assert.Equal(t, 1, r.Count())
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	err := r.Register(echoTool("echo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolAlreadyRegistered)
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&Tool{Name: "", Execute: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }})
	assert.ErrorIs(t, err, ErrToolNameEmpty)

	err = r.Register(&Tool{Name: "no-exec"})
	assert.ErrorIs(t, err, ErrToolExecuteNil)
}

func TestExecuteValidatesRequiredArgs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	result, err := r.Execute(context.Background(), "echo", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredArg)
	assert.False(t, result.IsSuccess())

	result, err = r.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Result)
	assert.True(t, result.IsSuccess())
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestDefinitionsStableOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("zeta")))
	require.NoError(t, r.Register(echoTool("alpha")))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)

	schema := defs[0].InputSchema
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"text"}, schema["required"])
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "text")
}
