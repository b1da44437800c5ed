package sorts

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// frame is one pending Lomuto partition of a[left..right].
type frame struct {
	left, right int
	i, j        int
	pivot       int
	hasPivot    bool
}

// Quick is Lomuto quicksort over an explicit stack of partition frames.
type Quick struct {
	a     []int
	stack []frame
	done  bool
}

// NewQuick copies values into a fresh quicksort engine.
func NewQuick(values []int) *Quick {
	a := copyValues(values)
	return &Quick{
		a:     a,
		stack: []frame{{left: 0, right: len(a) - 1}},
	}
}

// Step advances the partition on top of the stack.
//
// Entering a range emits only pivot(right). Each later step compares a[j]
// against the pivot and swaps it into the low side when it is not larger.
// The step that exhausts the range moves the pivot into place, marks it
// sorted, and pushes the left then the right sub-range. Empty and
// single-element ranges are popped within the same call.
func (q *Quick) Step() ir.StepResult {
	for !q.done && len(q.stack) > 0 {
		f := &q.stack[len(q.stack)-1]
		if f.left >= f.right {
			q.stack = q.stack[:len(q.stack)-1]
			continue
		}

		if !f.hasPivot {
			f.pivot = q.a[f.right]
			f.i, f.j = f.left, f.left
			f.hasPivot = true
			return ir.StepResult{Ops: []ir.Op{ir.PivotAt(f.right)}}
		}

		ops := []ir.Op{ir.Compare(f.j, f.right)}
		if q.a[f.j] <= f.pivot {
			if f.i != f.j {
				q.a[f.i], q.a[f.j] = q.a[f.j], q.a[f.i]
				ops = append(ops, ir.Swap(f.i, f.j))
			}
			f.i++
		}
		f.j++
		if f.j < f.right {
			return ir.StepResult{Ops: ops}
		}

		if f.i != f.right {
			q.a[f.i], q.a[f.right] = q.a[f.right], q.a[f.i]
			ops = append(ops, ir.Swap(f.i, f.right))
		}
		p, left, right := f.i, f.left, f.right
		q.stack = q.stack[:len(q.stack)-1]
		q.stack = append(q.stack,
			frame{left: left, right: p - 1},
			frame{left: p + 1, right: right},
		)
		ops = append(ops, ir.Mark(ir.RoleSorted, p))
		return ir.StepResult{Ops: ops}
	}

	q.done = true
	return finished(len(q.a))
}

func (q *Quick) snapshot() []int { return slices.Clone(q.a) }
