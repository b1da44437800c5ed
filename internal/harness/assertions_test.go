package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
)

func sampleResult() *Result {
	r := NewResult()
	r.Values = []int{2, 1}
	r.Ticks = 2
	r.Trace = []TraceEvent{
		{Tick: 1, Algorithm: ir.Bubble, Seq: 1, Ops: []ir.Op{ir.Compare(0, 1), ir.Swap(0, 1), ir.Mark(ir.RoleSorted, 1)}},
		{Tick: 2, Algorithm: ir.Bubble, Seq: 2, Ops: []ir.Op{ir.Mark(ir.RoleSorted, 0, 1)}, Done: true},
	}
	r.Replays = []store.AlgorithmReplay{
		{Algorithm: ir.Bubble, Steps: 2, Done: true, Final: []int{1, 2}, Sorted: true, Permutation: true, Deterministic: true},
	}
	return r
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	notDone := false
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertFirstStep, Algorithm: ir.Bubble, Ops: []ir.Op{ir.Compare(0, 1), ir.Swap(0, 1), ir.Mark(ir.RoleSorted, 1)}, Done: &notDone},
		{Type: AssertFirstStep, Algorithm: ir.Bubble, Ops: []ir.Op{ir.Compare(0, 1), ir.Swap(0, 1), ir.Mark(ir.RoleSorted, 1)}},
		{Type: AssertStepCount, Algorithm: ir.Bubble, Count: 2},
		{Type: AssertSorted},
		{Type: AssertSorted, Algorithm: ir.Bubble},
		{Type: AssertDoneWithin, Ticks: 2},
	})
	assert.Empty(t, errs)
}

func TestAssertFirstStep_NoSteps(t *testing.T) {
	err := assertFirstStep(NewResult(), Assertion{Type: AssertFirstStep, Algorithm: ir.Quick})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no steps recorded")
}

func TestAssertSorted_Unsorted(t *testing.T) {
	r := sampleResult()
	r.Replays[0].Sorted = false
	r.Replays[0].Final = []int{2, 1}

	err := assertSorted(r, Assertion{Type: AssertSorted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sorted=false")
}

func TestAssertSorted_MissingReplay(t *testing.T) {
	err := assertSorted(sampleResult(), Assertion{Type: AssertSorted, Algorithm: ir.Quick})
	require.Error(t, err)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertStepCount,
		Expected: "bubble to take 3 steps",
		Actual:   "2 steps",
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: step_count")
	assert.Contains(t, msg, "Expected: bubble to take 3 steps")
	assert.Contains(t, msg, "Actual: 2 steps")
	assert.Contains(t, msg, "[tick 1] bubble#1 [compare(0,1) swap(0,1) mark(sorted,[1])] done=false")
}

func TestAssertionError_TruncatesTrace(t *testing.T) {
	var trace []TraceEvent
	for k := 1; k <= maxTraceLines+3; k++ {
		trace = append(trace, TraceEvent{Tick: int64(k), Algorithm: ir.Bubble, Seq: int64(k)})
	}
	msg := (&AssertionError{Type: AssertSorted, Trace: trace}).Error()
	assert.Contains(t, msg, "... 3 more")
}
