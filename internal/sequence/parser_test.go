package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/types"
)

func TestParseStepArrayDirect(t *testing.T) {
	raw := `[{"step_number": 1, "content": "Hi there"}, {"step_number": 2, "content": "Following up"}]`

	steps, perr := ParseStepArray(raw)
	require.Nil(t, perr)
	require.Len(t, steps, 2)
	assert.Equal(t, types.SequenceStep{StepNumber: 1, Content: "Hi there"}, steps[0])
	assert.Equal(t, types.SequenceStep{StepNumber: 2, Content: "Following up"}, steps[1])
}

func TestParseStepArrayRecoversFromProse(t *testing.T) {
	raw := "Sure! Here's your outreach sequence:\n\n```json\n" +
		`[{"step_number": 1, "content": "Hello"}, {"step_number": 2, "content": "Checking in"}]` +
		"\n```\nLet me know if you'd like changes."

	steps, perr := ParseStepArray(raw)
	require.Nil(t, perr)
	require.Len(t, steps, 2)
	assert.Equal(t, "Hello", steps[0].Content)
	assert.Equal(t, "Checking in", steps[1].Content)
}

func TestParseStepArrayNoArrayAnywhere(t *testing.T) {
	raw := "I'm sorry, I can't help with that."

	steps, perr := ParseStepArray(raw)
	assert.Nil(t, steps)
	require.NotNil(t, perr)
	assert.Equal(t, KindParse, perr.Kind)
	assert.Equal(t, raw, perr.Raw)
	assert.Contains(t, perr.UserText(), raw)
}

func TestParseStepArrayRejectsMissingContent(t *testing.T) {
	raw := `[{"step_number": 1, "content": "ok"}, {"step_number": 2}]`

	steps, perr := ParseStepArray(raw)
	assert.Nil(t, steps)
	require.NotNil(t, perr)
	assert.Equal(t, KindParse, perr.Kind)
	assert.Contains(t, perr.Message, "missing content")
}

func TestParseStepArrayRejectsNonIntegerStepNumber(t *testing.T) {
	for _, raw := range []string{
		`[{"step_number": "one", "content": "ok"}]`,
		`[{"step_number": 1.5, "content": "ok"}]`,
	} {
		steps, perr := ParseStepArray(raw)
		assert.Nil(t, steps, raw)
		require.NotNil(t, perr, raw)
		assert.Equal(t, KindParse, perr.Kind)
	}
}

func TestParseStepArrayRejectsNonObjectElement(t *testing.T) {
	_, perr := ParseStepArray(`["just a string"]`)
	require.NotNil(t, perr)
	assert.Equal(t, KindParse, perr.Kind)
}

func TestParseStepArrayTrimsWhitespace(t *testing.T) {
	raw := `[{"step_number": 1, "content": "  padded  \n"}]`

	steps, perr := ParseStepArray(raw)
	require.Nil(t, perr)
	assert.Equal(t, "padded", steps[0].Content)
}

func TestParseStepArrayRenumbersSparseInput(t *testing.T) {
	// Models sometimes hand back arbitrary numbering; the result is
	// densified in the given relative order.
	raw := `[{"step_number": 3, "content": "third"}, {"step_number": 10, "content": "tenth"}, {"step_number": 1, "content": "first"}]`

	steps, perr := ParseStepArray(raw)
	require.Nil(t, perr)
	require.Len(t, steps, 3)
	assert.Equal(t, types.SequenceStep{StepNumber: 1, Content: "first"}, steps[0])
	assert.Equal(t, types.SequenceStep{StepNumber: 2, Content: "third"}, steps[1])
	assert.Equal(t, types.SequenceStep{StepNumber: 3, Content: "tenth"}, steps[2])
}

func TestParseStepArrayEmptyArray(t *testing.T) {
	steps, perr := ParseStepArray("[]")
	require.Nil(t, perr)
	assert.Empty(t, steps)
}
