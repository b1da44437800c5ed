package sorts

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// Selection scans the unsorted suffix for its minimum, one compare per step,
// and swaps it into place at the end of each scan.
type Selection struct {
	a      []int
	i      int
	j      int
	minIdx int
	done   bool
}

// NewSelection copies values into a fresh selection sort engine.
func NewSelection(values []int) *Selection {
	return &Selection{a: copyValues(values), j: 1}
}

// Step compares the next candidate against the running minimum. A new scan
// opens with mark(i, range); the last compare of a scan also swaps the
// minimum into slot i (when it is elsewhere) and marks it sorted.
func (s *Selection) Step() ir.StepResult {
	n := len(s.a)
	if s.done || s.i >= n-1 {
		s.done = true
		return finished(n)
	}

	var ops []ir.Op
	if s.j == s.i+1 {
		s.minIdx = s.i
		ops = append(ops, ir.Mark(ir.RoleRange, s.i))
	}
	ops = append(ops, ir.Compare(s.j, s.minIdx))
	if s.a[s.j] < s.a[s.minIdx] {
		s.minIdx = s.j
	}
	s.j++

	if s.j >= n {
		if s.minIdx != s.i {
			s.a[s.i], s.a[s.minIdx] = s.a[s.minIdx], s.a[s.i]
			ops = append(ops, ir.Swap(s.i, s.minIdx))
		}
		ops = append(ops, ir.Mark(ir.RoleSorted, s.i))
		s.i++
		s.j = s.i + 1
	}
	return ir.StepResult{Ops: ops}
}

func (s *Selection) snapshot() []int { return slices.Clone(s.a) }
