package sorts

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

type insertionPhase int

const (
	phaseCompare insertionPhase = iota
	phaseShift
	phaseInsert
)

// Insertion grows a sorted prefix by shifting larger elements right, one
// compare, shift or insert per step.
type Insertion struct {
	a     []int
	i     int // index of the key being inserted
	j     int // slot left of the hole
	key   int
	phase insertionPhase
	done  bool
}

// NewInsertion copies values into a fresh insertion sort engine.
func NewInsertion(values []int) *Insertion {
	return &Insertion{a: copyValues(values), i: 1}
}

// Step runs one phase of the current insertion.
//
//	compare  compare(i-1, i); go to shift if the predecessor is larger, else insert
//	shift    write(j+1, a[j]) and, when the next predecessor is still larger, compare(j, i)
//	insert   write(j+1, key) and mark(j+1, sorted)
func (s *Insertion) Step() ir.StepResult {
	n := len(s.a)
	if s.done || s.i >= n {
		s.done = true
		return finished(n)
	}

	switch s.phase {
	case phaseCompare:
		s.j = s.i - 1
		s.key = s.a[s.i]
		if s.a[s.j] > s.key {
			s.phase = phaseShift
		} else {
			s.phase = phaseInsert
		}
		return ir.StepResult{Ops: []ir.Op{ir.Compare(s.j, s.i)}}

	case phaseShift:
		ops := []ir.Op{ir.Write(s.j+1, s.a[s.j])}
		s.a[s.j+1] = s.a[s.j]
		s.j--
		if s.j >= 0 && s.a[s.j] > s.key {
			ops = append(ops, ir.Compare(s.j, s.i))
		} else {
			s.phase = phaseInsert
		}
		return ir.StepResult{Ops: ops}
	}

	slot := s.j + 1
	s.a[slot] = s.key
	s.i++
	s.phase = phaseCompare
	return ir.StepResult{Ops: []ir.Op{
		ir.Write(slot, s.key),
		ir.Mark(ir.RoleSorted, slot),
	}}
}

func (s *Insertion) snapshot() []int { return slices.Clone(s.a) }
