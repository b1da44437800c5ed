package sorts

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// Bubble is an adjacent-swap sort with early exit on a swap-free pass.
type Bubble struct {
	a       []int
	i       int // completed passes
	j       int // left index of the next adjacent pair
	swapped bool
	done    bool
}

// NewBubble copies values into a fresh bubble sort engine.
func NewBubble(values []int) *Bubble {
	return &Bubble{a: copyValues(values)}
}

// Step compares one adjacent pair and swaps it when out of order. The step
// that ends a pass also marks that pass's final slot sorted; a pass without
// swaps finishes the sort in the same step.
func (b *Bubble) Step() ir.StepResult {
	n := len(b.a)
	if b.done || b.i >= n-1 {
		b.done = true
		return finished(n)
	}

	j := b.j
	ops := []ir.Op{ir.Compare(j, j+1)}
	if b.a[j] > b.a[j+1] {
		b.a[j], b.a[j+1] = b.a[j+1], b.a[j]
		ops = append(ops, ir.Swap(j, j+1))
		b.swapped = true
	}
	b.j++

	if b.j >= n-1-b.i {
		ops = append(ops, ir.Mark(ir.RoleSorted, n-1-b.i))
		b.i++
		b.j = 0
		if !b.swapped {
			b.done = true
			ops = append(ops, finished(n).Ops...)
			return ir.StepResult{Ops: ops, Done: true}
		}
		b.swapped = false
	}
	return ir.StepResult{Ops: ops}
}

func (b *Bubble) snapshot() []int { return slices.Clone(b.a) }
