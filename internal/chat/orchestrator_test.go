package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/llm"
	"helix/internal/search"
	"helix/internal/sequence"
	"helix/internal/store"
	"helix/internal/tools"
	"helix/internal/types"
)

type fakeSearcher struct{}

func (fakeSearcher) SearchProfessionals(ctx context.Context, query string, filters search.Filters) (*search.Results, error) {
	return &search.Results{
		Query: query,
		Professionals: []search.Professional{
			{Name: "Jordan Lee", Snippet: "Staff engineer", Source: "example.com"},
		},
	}, nil
}

func (fakeSearcher) GetProfileDetails(ctx context.Context, profileURL string) (*search.ProfileDetails, error) {
	return &search.ProfileDetails{URL: profileURL, Content: "Staff engineer"}, nil
}

type turnFixture struct {
	store     *store.Store
	client    *llm.MockClient
	orch      *Orchestrator
	sessionID string
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "helix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	sess, err := s.CreateSession(0)
	require.NoError(t, err)

	client := &llm.MockClient{}
	gen := sequence.NewGenerator(s, client, nil)
	dispatcher := tools.NewDispatcher(tools.NewCatalog(gen, fakeSearcher{}, s))
	orch := NewOrchestrator(s, client, dispatcher, nil)

	return &turnFixture{store: s, client: client, orch: orch, sessionID: sess.ID}
}

func toolUse(name string, input map[string]any) *llm.LLMToolResponse {
	return &llm.LLMToolResponse{
		StopReason: "tool_use",
		ToolCalls:  []llm.ToolCall{{ID: "call_1", Name: name, Input: input}},
	}
}

func TestPlainReplyTurn(t *testing.T) {
	f := newTurnFixture(t)
	f.client.ToolResponses = []*llm.LLMToolResponse{
		{Text: "What role are you hiring for?", StopReason: "end_turn"},
	}

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "I need help with outreach")
	require.NoError(t, err)
	assert.Equal(t, "What role are you hiring for?", result.Reply)
	assert.Empty(t, result.Sequence)

	msgs, err := f.store.ListMessages(f.sessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	assert.Equal(t, "I need help with outreach", msgs[0].Content)
	assert.Equal(t, types.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, "What role are you hiring for?", msgs[1].Content)

	// Exactly one model call for a plain-reply turn.
	assert.Equal(t, 1, f.client.CallCount())
}

func TestToolTurnGeneratesSequence(t *testing.T) {
	f := newTurnFixture(t)
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("generate_sequence", map[string]any{
			"role":       "Software Engineer",
			"location":   "Berlin",
			"session_id": "hallucinated-id",
		}),
	}
	f.client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		if strings.Contains(user, "Respond in JSON format") {
			return `[{"step_number": 1, "content": "Hi!"}, {"step_number": 2, "content": "Still interested?"}]`, nil
		}
		return "Your sequence is ready - let me know what you'd like to change.", nil
	}

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "build me a sequence for a SWE in Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Your sequence is ready - let me know what you'd like to change.", result.Reply)
	require.Len(t, result.Sequence, 2)
	assert.Equal(t, "Hi!", result.Sequence[0].Content)

	// Steps were written to the hallucination-proof session, not the
	// model-supplied one.
	steps, err := f.store.ListSteps(f.sessionID)
	require.NoError(t, err)
	assert.Len(t, steps, 2)

	msgs, err := f.store.ListMessages(f.sessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderAssistant, msgs[1].Sender)
}

func TestFollowUpIsToolBlind(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.store.ReplaceAllSteps(f.sessionID, []string{"A", "B"}))
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("revise_step", map[string]any{
			"step_number":     float64(1),
			"new_instruction": "shorter",
			"session_id":      f.sessionID,
		}),
	}
	f.client.Response = "Done."

	_, err := f.orch.HandleTurn(context.Background(), f.sessionID, "shorten step 1")
	require.NoError(t, err)

	// Decision call carries tools; the later calls (revision + phrasing)
	// carry none.
	require.GreaterOrEqual(t, f.client.CallCount(), 3)
	assert.NotEmpty(t, f.client.Calls[0].Tools)
	for _, call := range f.client.Calls[1:] {
		assert.Empty(t, call.Tools)
	}
}

func TestFollowUpUsesFamilyPhrasing(t *testing.T) {
	f := newTurnFixture(t)
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("search_and_analyze_professionals", map[string]any{
			"query":      "founding engineers",
			"session_id": f.sessionID,
		}),
	}
	f.client.Response = "I found one strong match."

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "find founding engineers")
	require.NoError(t, err)
	assert.Equal(t, "I found one strong match.", result.Reply)

	last, err := f.client.LastCall()
	require.NoError(t, err)
	assert.Contains(t, last.User, defaultPhrasings[tools.FamilySearch])
	assert.Contains(t, last.User, "Jordan Lee")
}

func TestModelFailureCommitsNoAssistantMessage(t *testing.T) {
	f := newTurnFixture(t)
	f.client.Err = errors.New("connection refused")

	_, err := f.orch.HandleTurn(context.Background(), f.sessionID, "hello")
	require.Error(t, err)

	msgs, merr := f.store.ListMessages(f.sessionID)
	require.NoError(t, merr)
	require.Len(t, msgs, 1)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
}

func TestFollowUpFailureDegradesToResults(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.store.ReplaceAllSteps(f.sessionID, []string{"A"}))
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("revise_step", map[string]any{
			"step_number":     float64(1),
			"new_instruction": "shorter",
			"session_id":      f.sessionID,
		}),
	}
	calls := 0
	f.client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		calls++
		if calls == 1 {
			return "A, shorter", nil // revision call
		}
		return "", errors.New("model overloaded") // phrasing call
	}

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "shorten step 1")
	require.NoError(t, err)
	assert.Equal(t, "Step 1 revised.", result.Reply)
}

func TestUnknownOperationDoesNotCrashTurn(t *testing.T) {
	f := newTurnFixture(t)
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("launch_rockets", map[string]any{}),
	}
	f.client.Response = "Sorry, I couldn't do that."

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "do something odd")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reply)
}

func TestStepNotFoundSurfacesAsText(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.store.ReplaceAllSteps(f.sessionID, []string{"A", "B", "C"}))
	f.client.ToolResponses = []*llm.LLMToolResponse{
		toolUse("revise_step", map[string]any{
			"step_number":     float64(5),
			"new_instruction": "shorter",
			"session_id":      f.sessionID,
		}),
	}
	f.client.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		// Follow-up phrasing sees the not-found text.
		assert.Contains(t, user, "Step 5 not found.")
		return "Step 5 doesn't exist - the sequence has 3 steps.", nil
	}

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "revise step 5")
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "3 steps")

	steps, serr := f.store.ListSteps(f.sessionID)
	require.NoError(t, serr)
	assert.Len(t, steps, 3)
}

func TestMultipleToolCallsAppliedInOrder(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.store.ReplaceAllSteps(f.sessionID, []string{"A", "B"}))
	f.client.ToolResponses = []*llm.LLMToolResponse{
		{
			StopReason: "tool_use",
			ToolCalls: []llm.ToolCall{
				{ID: "c1", Name: "add_step", Input: map[string]any{
					"step_content": "a check-in", "position": float64(2), "session_id": f.sessionID,
				}},
				{ID: "c2", Name: "revise_step", Input: map[string]any{
					"step_number": float64(9), "new_instruction": "x", "session_id": f.sessionID,
				}},
			},
		},
	}
	f.client.Response = "X"

	result, err := f.orch.HandleTurn(context.Background(), f.sessionID, "add a step then revise step 9")
	require.NoError(t, err)

	// First call applied, second failed independently; sequence shows the
	// insert and dense numbering.
	require.Len(t, result.Sequence, 3)
	for i, step := range result.Sequence {
		assert.Equal(t, i+1, step.StepNumber)
	}
}

func TestSessionNotFound(t *testing.T) {
	f := newTurnFixture(t)
	_, err := f.orch.HandleTurn(context.Background(), "no-such-session", "hello")
	require.Error(t, err)
}

func TestTranscriptFlowsIntoPrompt(t *testing.T) {
	f := newTurnFixture(t)
	require.NoError(t, f.store.AppendMessage(f.sessionID, types.SenderUser, "earlier question"))
	require.NoError(t, f.store.AppendMessage(f.sessionID, types.SenderAssistant, "earlier answer"))
	require.NoError(t, f.store.ReplaceAllSteps(f.sessionID, []string{"step one"}))
	f.client.ToolResponses = []*llm.LLMToolResponse{
		{Text: "ok", StopReason: "end_turn"},
	}

	_, err := f.orch.HandleTurn(context.Background(), f.sessionID, "new message")
	require.NoError(t, err)

	call := f.client.Calls[0]
	assert.Equal(t, systemInstruction, call.System)
	assert.Contains(t, call.User, "User: earlier question")
	assert.Contains(t, call.User, "Assistant: earlier answer")
	assert.Contains(t, call.User, "1. step one")
	assert.True(t, strings.HasSuffix(call.User, "User: new message"))
}
