package sorts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func TestBubble_FirstStep(t *testing.T) {
	b := NewBubble([]int{5, 3, 1, 4, 2})

	got := b.Step()
	want := ir.StepResult{Ops: []ir.Op{ir.Compare(0, 1), ir.Swap(0, 1)}}
	assert.True(t, want.Equal(got), "got %v", got)
	assert.Equal(t, []int{3, 5, 1, 4, 2}, Values(b))
}

func TestBubble_FullRun(t *testing.T) {
	input := []int{5, 3, 1, 4, 2}
	results := drain(t, ir.Bubble, input, NewBubble(input))

	// Passes of 4, 3, 2 and 1 compares; the last pass has no swap.
	assert.Len(t, results, 10)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ir.Replay(input, results))
}

func TestBubble_PassEndMarksSlot(t *testing.T) {
	b := NewBubble([]int{2, 1, 3})
	b.Step()
	got := b.Step()
	want := ir.StepResult{Ops: []ir.Op{ir.Compare(1, 2), ir.Mark(ir.RoleSorted, 2)}}
	assert.True(t, want.Equal(got), "got %v", got)
}

func TestBubble_EarlyExitOnSortedInput(t *testing.T) {
	input := []int{1, 2, 3, 4}
	results := drain(t, ir.Bubble, input, NewBubble(input))

	require.Len(t, results, 3, "one swap-free pass")
	last := results[2]
	want := ir.StepResult{
		Ops: []ir.Op{
			ir.Compare(2, 3),
			ir.Mark(ir.RoleSorted, 3),
			ir.Mark(ir.RoleSorted, 0, 1, 2, 3),
		},
		Done: true,
	}
	assert.True(t, want.Equal(last), "got %v", last)
}
