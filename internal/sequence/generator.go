package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"helix/internal/logging"
	"helix/internal/store"
	"helix/internal/types"
)

const maxParamLen = 100

const generateSystemPrompt = "You are a recruiting assistant that creates candidate outreach sequences. Generate professional and engaging outreach messages."

// Store is the slice of the persistence layer the generator needs.
type Store interface {
	ListSteps(sessionID string) ([]types.SequenceStep, error)
	GetStep(sessionID string, stepNumber int) (*types.SequenceStep, error)
	ReplaceAllSteps(sessionID string, contents []string) error
	UpdateStepContent(sessionID string, stepNumber int, content string) error
	GetSessionProfile(sessionID string) (*types.UserProfile, error)
	GetUserContext(sessionID string) (string, error)
}

// Generator turns structured instructions into persisted sequence steps.
// Every mutation notifies the sink with the full current step list.
type Generator struct {
	store  Store
	client types.LLMClient
	sink   types.NotificationSink
}

// NewGenerator wires a generator. A nil sink disables notifications.
func NewGenerator(store Store, client types.LLMClient, sink types.NotificationSink) *Generator {
	if sink == nil {
		sink = types.NopSink{}
	}
	return &Generator{store: store, client: client, sink: sink}
}

// validateSequenceParams checks the pre-call constraints for sequence
// generation, so malformed requests never reach the model.
func validateSequenceParams(role, location string) *Error {
	if strings.TrimSpace(role) == "" || strings.TrimSpace(location) == "" {
		return validationError("Missing required parameters: role and location are required")
	}
	if len(role) > maxParamLen || len(location) > maxParamLen {
		return validationError("Role and location exceed maximum length limits")
	}
	return nil
}

// GenerateSequence asks the model for a full outreach sequence and
// replaces the session's steps with the parsed result.
func (g *Generator) GenerateSequence(ctx context.Context, sessionID, role, location string, stepCount int, targetProfile string) (string, *Error) {
	if err := validateSequenceParams(role, location); err != nil {
		logging.Sequence("GenerateSequence: validation failed for session %s: %s", sessionID, err.Message)
		return "", err
	}

	timer := logging.StartTimer(logging.CategorySequence, "GenerateSequence")
	defer timer.Stop()

	userName, companyName := g.senderIdentity(sessionID)

	var prompt strings.Builder
	if stepCount > 0 {
		fmt.Fprintf(&prompt, "Generate a %d-step outreach sequence for a %s in %s.\n", stepCount, role, location)
	}
	fmt.Fprintf(&prompt, `Generate an outreach sequence for recruiting a %s based in %s.
The messages should be written from %s's perspective at %s.
Make sure to mention %s in the messages to establish credibility.
Respond in JSON format as a list like:
[
  { "step_number": 1, "content": "..." },
  ...
]`, role, location, userName, companyName, companyName)
	if strings.TrimSpace(targetProfile) != "" {
		fmt.Fprintf(&prompt, "\nTailor the messages to this candidate profile: %s", targetProfile)
	}

	raw, err := g.client.CompleteWithSystem(ctx, generateSystemPrompt, prompt.String())
	if err != nil {
		return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("Error generating sequence: %v", err)}
	}

	steps, perr := ParseStepArray(raw)
	if perr != nil {
		return "", perr
	}

	if err := g.store.ReplaceAllSteps(sessionID, Contents(steps)); err != nil {
		return "", storageError(fmt.Sprintf("Error saving sequence: %v", err))
	}
	logging.Sequence("GenerateSequence: saved %d steps for session %s", len(steps), sessionID)

	g.notify(sessionID)
	return "Outreach sequence generated and saved successfully.", nil
}

// ReviseStep rewrites one step in place according to an instruction.
// Numbering is untouched.
func (g *Generator) ReviseStep(ctx context.Context, sessionID string, stepNumber int, instruction string) (string, *Error) {
	step, err := g.store.GetStep(sessionID, stepNumber)
	if err != nil {
		if errors.Is(err, store.ErrStepNotFound) {
			return "", notFoundError(fmt.Sprintf("Step %d not found.", stepNumber))
		}
		return "", storageError(fmt.Sprintf("Error reading step %d: %v", stepNumber, err))
	}

	userContext := g.userContext(sessionID)
	prompt := fmt.Sprintf(`Rewrite this message to reflect the following instruction:
%s
Instruction: %s
Original message: %s
Rewritten message:`, userContext, instruction, step.Content)

	rewritten, cerr := g.client.Complete(ctx, prompt)
	if cerr != nil {
		return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("Error revising step %d: %v", stepNumber, cerr)}
	}

	if err := g.store.UpdateStepContent(sessionID, stepNumber, strings.TrimSpace(rewritten)); err != nil {
		return "", storageError(fmt.Sprintf("Error saving step %d: %v", stepNumber, err))
	}

	g.notify(sessionID)
	return fmt.Sprintf("Step %d revised.", stepNumber), nil
}

// ChangeTone rewrites every step toward the given tone. The rewritten
// contents are collected first and written in one batch, so a model
// failure midway leaves the stored sequence untouched.
func (g *Generator) ChangeTone(ctx context.Context, sessionID, tone string) (string, *Error) {
	steps, err := g.store.ListSteps(sessionID)
	if err != nil {
		return "", storageError(fmt.Sprintf("Error reading steps: %v", err))
	}
	if len(steps) == 0 {
		return "", notFoundError("No steps found for this session.")
	}

	userContext := g.userContext(sessionID)
	contents := make([]string, 0, len(steps))
	for _, step := range steps {
		prompt := fmt.Sprintf(`Rewrite the following message to be more %s:
%s
Original message: %s
Rewritten message:`, tone, userContext, step.Content)

		rewritten, cerr := g.client.Complete(ctx, prompt)
		if cerr != nil {
			return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("Error changing tone: %v", cerr)}
		}
		contents = append(contents, strings.TrimSpace(rewritten))
	}

	if err := g.store.ReplaceAllSteps(sessionID, contents); err != nil {
		return "", storageError(fmt.Sprintf("Error saving steps: %v", err))
	}

	g.notify(sessionID)
	return fmt.Sprintf("All steps updated to have a more %s tone.", tone), nil
}

// AddStep generates a new message matching the sequence's style and
// inserts it at the requested 1-based position (0 or out-of-range means
// append). The whole list is renumbered on write.
func (g *Generator) AddStep(ctx context.Context, sessionID, stepContent string, position int) (string, *Error) {
	steps, err := g.store.ListSteps(sessionID)
	if err != nil {
		return "", storageError(fmt.Sprintf("Error reading steps: %v", err))
	}

	userContext := g.userContext(sessionID)
	prompt := fmt.Sprintf(`Create a new message that matches the style and context of the existing sequence:
%s
Original content: %s
New message:`, userContext, stepContent)

	newContent, cerr := g.client.Complete(ctx, prompt)
	if cerr != nil {
		return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("Error adding step: %v", cerr)}
	}

	effective := ClampPosition(position, len(steps))
	updated := InsertAt(steps, strings.TrimSpace(newContent), position)
	if err := g.store.ReplaceAllSteps(sessionID, Contents(updated)); err != nil {
		return "", storageError(fmt.Sprintf("Error saving steps: %v", err))
	}
	logging.SequenceDebug("AddStep: inserted at position %d for session %s (now %d steps)", effective, sessionID, len(updated))

	g.notify(sessionID)
	return fmt.Sprintf("New step added at position %d.", effective), nil
}

// GenerateAsset produces one fully formatted recruiting asset (email,
// letter, follow-up) and stores it as a single-step sequence.
func (g *Generator) GenerateAsset(ctx context.Context, sessionID, task string) (string, *Error) {
	userContext := g.userContext(sessionID)
	prompt := fmt.Sprintf(`You're a recruiting assistant. Based on the following instruction, generate a fully formatted message (email, letter, follow-up, etc).
%s
Task: %s

Format the result as if it will be sent to a candidate or hiring manager.`, userContext, task)

	content, cerr := g.client.Complete(ctx, prompt)
	if cerr != nil {
		return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("Error generating asset: %v", cerr)}
	}

	if err := g.store.ReplaceAllSteps(sessionID, []string{strings.TrimSpace(content)}); err != nil {
		return "", storageError(fmt.Sprintf("Error saving asset: %v", err))
	}

	g.notify(sessionID)
	return "Recruiting asset generated successfully.", nil
}

// PersonalizedOutreach drafts a one-off message grounded in a
// professional's profile. It does not touch the stored sequence; the
// drafted message is the result text itself.
func (g *Generator) PersonalizedOutreach(ctx context.Context, sessionID, profileURL, profileContent string) (string, *Error) {
	userName, companyName := g.senderIdentity(sessionID)

	prompt := fmt.Sprintf(`Generate a personalized outreach message for a professional based on their profile:
Profile URL: %s
Profile Content: %s

The message should be from %s at %s and should:
1. Reference specific details from their profile
2. Show genuine interest in their work
3. Be concise but personal
4. Include a clear value proposition

Format the message in a professional but conversational tone.`, profileURL, profileContent, userName, companyName)

	message, cerr := g.client.CompleteWithSystem(ctx, "You are an expert recruiter crafting personalized outreach messages.", prompt)
	if cerr != nil {
		return "", &Error{Kind: KindDispatch, Message: fmt.Sprintf("An error occurred while generating the outreach message: %v", cerr)}
	}
	return message, nil
}

// senderIdentity resolves the display name and company used in prompts,
// with neutral fallbacks for anonymous sessions.
func (g *Generator) senderIdentity(sessionID string) (string, string) {
	profile, err := g.store.GetSessionProfile(sessionID)
	if err != nil || profile == nil {
		return "the recruiter", "the company"
	}
	name, company := profile.Name, profile.Company
	if name == "" {
		name = "the recruiter"
	}
	if company == "" {
		company = "the company"
	}
	return name, company
}

func (g *Generator) userContext(sessionID string) string {
	ctx, err := g.store.GetUserContext(sessionID)
	if err != nil {
		logging.SequenceDebug("userContext: lookup failed for session %s: %v", sessionID, err)
		return ""
	}
	return ctx
}

// notify pushes the full current step list to the sink. Delivery failure
// never fails the operation.
func (g *Generator) notify(sessionID string) {
	steps, err := g.store.ListSteps(sessionID)
	if err != nil {
		logging.Sequence("notify: could not read steps for session %s: %v", sessionID, err)
		return
	}
	g.sink.SequenceUpdated(sessionID, steps)
}
