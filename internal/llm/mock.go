package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scriptable LLMClient for tests. Tool responses are
// consumed in FIFO order; plain completions are served from CompleteFunc
// when set, otherwise from Response.
type MockClient struct {
	mu sync.Mutex

	// Response is returned by Complete/CompleteWithSystem when
	// CompleteFunc is nil.
	Response string

	// CompleteFunc, when set, handles plain completions.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ToolResponses are returned by CompleteWithTools in order. When the
	// queue is exhausted, a text-only end_turn response is returned.
	ToolResponses []*LLMToolResponse

	// Err, when set, is returned by every call.
	Err error

	// Calls records every prompt seen, for assertions.
	Calls []MockCall
}

// MockCall records a single request made to the mock.
type MockCall struct {
	System string
	User   string
	Tools  []ToolDefinition
}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{System: systemPrompt, User: userPrompt})
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	return m.Response, nil
}

func (m *MockClient) CompleteWithTools(ctx context.Context, systemPrompt, userPrompt string, tools []ToolDefinition) (*LLMToolResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{System: systemPrompt, User: userPrompt, Tools: tools})

	if m.Err != nil {
		m.mu.Unlock()
		return nil, m.Err
	}
	if len(m.ToolResponses) > 0 {
		resp := m.ToolResponses[0]
		m.ToolResponses = m.ToolResponses[1:]
		m.mu.Unlock()
		return resp, nil
	}
	m.mu.Unlock()

	return &LLMToolResponse{
		Text:       m.Response,
		StopReason: "end_turn",
	}, nil
}

// CallCount returns how many requests the mock has seen.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or an error when none were made.
func (m *MockClient) LastCall() (MockCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return MockCall{}, fmt.Errorf("no calls recorded")
	}
	return m.Calls[len(m.Calls)-1], nil
}
