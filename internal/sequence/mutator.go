// Package sequence holds the tool-orchestration core for outreach
// sequences: pure numbering logic, recovery parsing of model output, and
// the generator that turns structured instructions into persisted steps.
package sequence

import (
	"sort"

	"helix/internal/types"
)

// Renumber sorts steps by their current step numbers and reassigns dense
// numbers 1..N. This is the single source of truth for the numbering
// invariant: any drift in incoming numbers is healed here rather than
// trusted from arithmetic shifts.
func Renumber(steps []types.SequenceStep) []types.SequenceStep {
	out := make([]types.SequenceStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StepNumber < out[j].StepNumber
	})
	for i := range out {
		out[i].StepNumber = i + 1
	}
	return out
}

// InsertAt returns a new list with content inserted at 1-based position.
// Position is clamped to [1, N+1]; zero or negative means append. The
// result is densely renumbered.
func InsertAt(steps []types.SequenceStep, content string, position int) []types.SequenceStep {
	n := len(steps)
	if position <= 0 || position > n+1 {
		position = n + 1
	}

	out := make([]types.SequenceStep, 0, n+1)
	out = append(out, steps[:position-1]...)
	out = append(out, types.SequenceStep{StepNumber: position, Content: content})
	out = append(out, steps[position-1:]...)
	for i := range out {
		out[i].StepNumber = i + 1
	}
	return out
}

// ClampPosition normalizes a requested insert position the same way
// InsertAt does, so callers can report the effective position.
func ClampPosition(position, n int) int {
	if position <= 0 || position > n+1 {
		return n + 1
	}
	return position
}

// Contents projects steps to their content strings in order.
func Contents(steps []types.SequenceStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Content
	}
	return out
}
