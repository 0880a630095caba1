// Package chat drives one conversational turn end to end: context
// assembly, the model decision call, tool dispatch, and the tool-blind
// follow-up phrasing call.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"helix/internal/logging"
	"helix/internal/tools"
	"helix/internal/types"
)

// Store is the slice of the persistence layer the orchestrator needs.
type Store interface {
	GetSession(id string) (*types.Session, error)
	AppendMessage(sessionID string, sender types.Sender, content string) error
	ListMessages(sessionID string) ([]types.Message, error)
	ListSteps(sessionID string) ([]types.SequenceStep, error)
	GetUserContext(sessionID string) (string, error)
}

// TurnResult is what one completed turn hands back to the caller.
type TurnResult struct {
	Reply    string               `json:"reply"`
	Sequence []types.SequenceStep `json:"sequence"`
}

// Orchestrator runs chat turns. Turns for the same session are
// serialized; different sessions proceed in parallel.
type Orchestrator struct {
	store      Store
	client     types.LLMClient
	dispatcher *tools.Dispatcher
	phrasings  *Phrasings

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(store Store, client types.LLMClient, dispatcher *tools.Dispatcher, phrasings *Phrasings) *Orchestrator {
	if phrasings == nil {
		phrasings = NewPhrasings("")
	}
	return &Orchestrator{
		store:      store,
		client:     client,
		dispatcher: dispatcher,
		phrasings:  phrasings,
		locks:      make(map[string]*sync.Mutex),
	}
}

// HandleTurn processes one user message for a session and returns the
// assistant reply plus the current sequence snapshot.
//
// The only hard failure is model unavailability on the decision call; at
// that point the user message is already committed but no assistant reply
// is. Every failure after a tool has run degrades to descriptive text so
// the transcript and sequence stay consistent.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userMessage string) (*TurnResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	timer := logging.StartTimer(logging.CategorySession, "HandleTurn")
	defer timer.Stop()

	if _, err := o.store.GetSession(sessionID); err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	// Assemble context from state prior to this turn.
	transcript, err := o.store.ListMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("transcript read failed: %w", err)
	}
	steps, err := o.store.ListSteps(sessionID)
	if err != nil {
		return nil, fmt.Errorf("sequence read failed: %w", err)
	}
	profileContext, err := o.store.GetUserContext(sessionID)
	if err != nil {
		logging.SessionDebug("HandleTurn: profile lookup failed for session %s: %v", sessionID, err)
		profileContext = ""
	}

	if err := o.store.AppendMessage(sessionID, types.SenderUser, userMessage); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	prompt := buildUserPrompt(profileContext, transcript, steps, userMessage)
	resp, err := o.client.CompleteWithTools(ctx, systemInstruction, prompt, o.dispatcher.Registry().Definitions())
	if err != nil {
		// User message stays committed; no assistant reply is written.
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	var reply string
	if len(resp.ToolCalls) == 0 {
		reply = strings.TrimSpace(resp.Text)
		logging.Session("HandleTurn: plain reply for session %s (%d chars)", sessionID, len(reply))
	} else {
		logging.Session("HandleTurn: %d tool call(s) for session %s", len(resp.ToolCalls), sessionID)
		results := o.dispatcher.Dispatch(ctx, sessionID, resp.ToolCalls)
		reply = o.phraseFollowUp(ctx, results)
	}

	if err := o.store.AppendMessage(sessionID, types.SenderAssistant, reply); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	current, err := o.store.ListSteps(sessionID)
	if err != nil {
		return nil, fmt.Errorf("sequence re-read failed: %w", err)
	}
	return &TurnResult{Reply: reply, Sequence: current}, nil
}

// phraseFollowUp issues the second, tool-blind model call that phrases a
// short acknowledgement for what just ran. The phrasing instruction is
// keyed by the family of the last executed operation. A follow-up model
// failure degrades to the raw operation results rather than failing the
// turn, since the mutation has already happened.
func (o *Orchestrator) phraseFollowUp(ctx context.Context, results []tools.DispatchResult) string {
	resultsText := joinResults(results)
	if len(results) == 0 {
		return resultsText
	}

	family := results[len(results)-1].Family
	instruction := o.phrasings.Get(family)

	prompt := fmt.Sprintf("%s\n\nOperation results:\n%s", instruction, resultsText)
	reply, err := o.client.CompleteWithSystem(ctx, systemInstruction, prompt)
	if err != nil {
		logging.Session("phraseFollowUp: model call failed, falling back to raw results: %v", err)
		return resultsText
	}
	return strings.TrimSpace(reply)
}

// joinResults flattens dispatch results into user-readable text.
func joinResults(results []tools.DispatchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Text) != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[sessionID] = lock
	}
	return lock
}
