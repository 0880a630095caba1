package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helix/internal/types"
)

func seq(contents ...string) []types.SequenceStep {
	steps := make([]types.SequenceStep, len(contents))
	for i, c := range contents {
		steps[i] = types.SequenceStep{StepNumber: i + 1, Content: c}
	}
	return steps
}

func assertDense(t *testing.T, steps []types.SequenceStep) {
	t.Helper()
	for i, s := range steps {
		assert.Equal(t, i+1, s.StepNumber, "step at index %d", i)
	}
}

func TestRenumberHealsGapsAndPreservesOrder(t *testing.T) {
	in := []types.SequenceStep{
		{StepNumber: 7, Content: "c"},
		{StepNumber: 2, Content: "a"},
		{StepNumber: 4, Content: "b"},
	}

	out := Renumber(in)
	require.Len(t, out, 3)
	assertDense(t, out)
	assert.Equal(t, []string{"a", "b", "c"}, Contents(out))

	// Input slice unchanged.
	assert.Equal(t, 7, in[0].StepNumber)
}

func TestInsertAtMiddle(t *testing.T) {
	out := InsertAt(seq("A", "B"), "X", 2)

	require.Len(t, out, 3)
	assertDense(t, out)
	assert.Equal(t, []string{"A", "X", "B"}, Contents(out))
}

func TestInsertAtFront(t *testing.T) {
	out := InsertAt(seq("A", "B"), "X", 1)
	assertDense(t, out)
	assert.Equal(t, []string{"X", "A", "B"}, Contents(out))
}

func TestInsertAppendsWhenPositionOutOfRange(t *testing.T) {
	for _, pos := range []int{0, -1, 4, 99} {
		out := InsertAt(seq("A", "B"), "X", pos)
		require.Len(t, out, 3, "position %d", pos)
		assertDense(t, out)
		assert.Equal(t, []string{"A", "B", "X"}, Contents(out), "position %d", pos)
	}
}

func TestInsertIntoEmpty(t *testing.T) {
	out := InsertAt(nil, "X", 1)
	require.Len(t, out, 1)
	assert.Equal(t, types.SequenceStep{StepNumber: 1, Content: "X"}, out[0])
}

func TestClampPosition(t *testing.T) {
	assert.Equal(t, 2, ClampPosition(2, 3))
	assert.Equal(t, 4, ClampPosition(4, 3))
	assert.Equal(t, 4, ClampPosition(0, 3))
	assert.Equal(t, 4, ClampPosition(9, 3))
	assert.Equal(t, 1, ClampPosition(0, 0))
}
