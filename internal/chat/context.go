package chat

import (
	"fmt"
	"strings"

	"helix/internal/types"
)

// systemInstruction is the fixed system prompt for the decision call. It
// names the available operations and the tone-selection policy the
// assistant applies when the user does not ask for a tone explicitly.
const systemInstruction = `You are Helix, an AI recruiting assistant. You help recruiters build and refine candidate outreach sequences through conversation.

You have tools to: generate a full outreach sequence, revise a single step, change the tone of all steps, add a step, create a single recruiting asset (emails, offer letters, follow-ups), search for professionals, and draft personalized outreach from a profile.

When the user asks to create or edit a sequence or asset, call the matching tool instead of writing the content in the chat. When gathering requirements, ask for the role and location before generating a sequence.

Tone selection: unless the user asks for a specific tone, pick one from the role. Senior or executive roles get a formal, respectful tone. Engineering and technical roles get a direct, substance-first tone. Creative and design roles get a warmer, more personal tone. Early-career roles get an encouraging, low-pressure tone.

Be concise and professional. Never invent information about the user's company.`

// buildUserPrompt renders the turn context the model sees: profile block,
// prior transcript in order, the current sequence snapshot when one
// exists, and the new user message last.
func buildUserPrompt(profileContext string, transcript []types.Message, steps []types.SequenceStep, userMessage string) string {
	var b strings.Builder

	if profileContext != "" {
		b.WriteString(profileContext)
		b.WriteString("\n")
	}

	if len(transcript) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range transcript {
			switch msg.Sender {
			case types.SenderUser:
				fmt.Fprintf(&b, "User: %s\n", msg.Content)
			case types.SenderAssistant:
				fmt.Fprintf(&b, "Assistant: %s\n", msg.Content)
			}
		}
		b.WriteString("\n")
	}

	if len(steps) > 0 {
		b.WriteString("Current outreach sequence:\n")
		b.WriteString(renderSequence(steps))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s", userMessage)
	return b.String()
}

// renderSequence formats steps as a numbered list.
func renderSequence(steps []types.SequenceStep) string {
	var b strings.Builder
	for _, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", step.StepNumber, step.Content)
	}
	return b.String()
}
