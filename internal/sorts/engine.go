package sorts

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// ErrUnknownAlgorithm is returned by New for an id with no engine.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Engine advances a sort by exactly one step per call.
type Engine interface {
	Step() ir.StepResult
}

// New builds the engine for id over a private copy of values.
func New(id ir.AlgorithmID, values []int) (Engine, error) {
	switch id {
	case ir.Bubble:
		return NewBubble(values), nil
	case ir.Insertion:
		return NewInsertion(values), nil
	case ir.Selection:
		return NewSelection(values), nil
	case ir.Quick:
		return NewQuick(values), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, id)
}

// MustNew is like New but panics on an unknown id.
func MustNew(id ir.AlgorithmID, values []int) Engine {
	e, err := New(id, values)
	if err != nil {
		panic(err)
	}
	return e
}

// Values returns a snapshot of an engine's private array. It exists for
// tests and replay verification; the array is never shared.
func Values(e Engine) []int {
	if s, ok := e.(interface{ snapshot() []int }); ok {
		return s.snapshot()
	}
	return nil
}

// finished is the terminal result every engine repeats once done.
func finished(n int) ir.StepResult {
	return ir.StepResult{
		Ops:  []ir.Op{ir.Mark(ir.RoleSorted, ir.AllIndices(n)...)},
		Done: true,
	}
}

func copyValues(values []int) []int {
	a := slices.Clone(values)
	if a == nil {
		a = []int{}
	}
	return a
}
