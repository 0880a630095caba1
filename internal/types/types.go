// Package types holds the shared domain types for Helix: sessions,
// transcripts, sequence steps, and the interfaces the core depends on.
// It has no dependencies on other internal packages so that every layer
// can import it without cycles.
package types

import (
	"strings"
	"time"
)

// Sender tags one side of the conversation transcript.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// UserProfile describes the human the assistant works on behalf of.
// It is read-only input to prompt construction; the core never mutates it.
type UserProfile struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Company     string            `json:"company"`
	Title       string            `json:"title"`
	Industry    string            `json:"industry"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

// ContextBlock renders the profile as a free-text block for prompt
// enrichment. An empty profile renders as the empty string, which callers
// treat as "no profile available".
func (p *UserProfile) ContextBlock() string {
	if p == nil || p.Name == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("The messages should be written from " + p.Name + "'s perspective")
	if p.Company != "" {
		b.WriteString(" at " + p.Company)
		if size, ok := p.Preferences["companySize"]; ok && size != "" {
			b.WriteString(" (a " + size + " company)")
		}
	}
	b.WriteString(".")
	if p.Title != "" || p.Industry != "" {
		b.WriteString("\n" + p.Name + " is")
		if p.Title != "" {
			b.WriteString(" a " + p.Title)
		}
		if p.Industry != "" {
			b.WriteString(" in the " + p.Industry + " industry")
		}
		b.WriteString(".")
	}
	return b.String()
}

// Session identifies one continuous conversation. It owns its transcript
// and its sequence steps; deleting a session cascades to both.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one transcript entry. Append-only; creation order is the
// sole sequencing key.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SequenceStep is one entry in the outreach sequence. Within a session,
// step numbers form a dense sequence 1..N with no gaps or duplicates.
type SequenceStep struct {
	StepNumber int    `json:"step_number"`
	Content    string `json:"content"`
}
