// Package present applies step results to displayed arrays.
//
// A Panel keeps its own copy of the array, separate from the engine's, and
// only changes it through swap and write ops. Highlights are derived from
// the most recent step alone and are replaced on every Apply.
package present

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// HighlightKind classifies how an index was touched by the latest step.
type HighlightKind int

const (
	HighlightNone HighlightKind = iota
	HighlightPivot
	HighlightCompare
	HighlightWrite
	HighlightSwap
)

// Highlights are the indices touched by one step, by op kind. When a step
// holds several ops of one kind, the last one wins.
type Highlights struct {
	Compare []int
	Swap    []int
	Write   []int
	Pivot   []int
}

// highlightsOf derives highlights from a single step.
func highlightsOf(r ir.StepResult) Highlights {
	var h Highlights
	for _, op := range r.Ops {
		switch op.Kind {
		case ir.OpCompare:
			h.Compare = []int{op.I, op.J}
		case ir.OpSwap:
			h.Swap = []int{op.I, op.J}
		case ir.OpWrite:
			h.Write = []int{op.Index}
		case ir.OpPivot:
			h.Pivot = []int{op.Index}
		}
	}
	return h
}

// Kind returns the strongest highlight at index. Swap beats write beats
// compare beats pivot.
func (h Highlights) Kind(index int) HighlightKind {
	switch {
	case slices.Contains(h.Swap, index):
		return HighlightSwap
	case slices.Contains(h.Write, index):
		return HighlightWrite
	case slices.Contains(h.Compare, index):
		return HighlightCompare
	case slices.Contains(h.Pivot, index):
		return HighlightPivot
	}
	return HighlightNone
}

// Empty reports whether no index is highlighted.
func (h Highlights) Empty() bool {
	return len(h.Compare) == 0 && len(h.Swap) == 0 && len(h.Write) == 0 && len(h.Pivot) == 0
}

// Panel is the displayed state of one algorithm.
type Panel struct {
	id         ir.AlgorithmID
	values     []int
	highlights Highlights
	steps      int
	compares   int
	done       bool
}

// NewPanel creates a panel over a copy of initial.
func NewPanel(id ir.AlgorithmID, initial []int) *Panel {
	p := &Panel{id: id}
	p.Reset(initial)
	return p
}

// Reset discards all progress and starts over from a copy of initial.
func (p *Panel) Reset(initial []int) {
	p.values = slices.Clone(initial)
	if p.values == nil {
		p.values = []int{}
	}
	p.highlights = Highlights{}
	p.steps = 0
	p.compares = 0
	p.done = false
}

// Apply applies one step and reports whether it is the step that reached
// done. Results that arrive after done only clear the highlights.
func (p *Panel) Apply(r ir.StepResult) (reachedDone bool) {
	if p.done {
		p.highlights = Highlights{}
		return false
	}
	ir.Apply(p.values, r.Ops)
	p.highlights = highlightsOf(r)
	p.steps++
	p.compares += r.Compares()
	if r.Done {
		p.done = true
		return true
	}
	return false
}

// ID returns the panel's algorithm.
func (p *Panel) ID() ir.AlgorithmID { return p.id }

// Values returns a copy of the displayed array.
func (p *Panel) Values() []int { return slices.Clone(p.values) }

// Len returns the array length.
func (p *Panel) Len() int { return len(p.values) }

// At returns the displayed value at index.
func (p *Panel) At(index int) int { return p.values[index] }

// Highlights returns the latest step's highlights.
func (p *Panel) Highlights() Highlights { return p.highlights }

// Steps returns the number of steps applied before done, including the done step.
func (p *Panel) Steps() int { return p.steps }

// Compares returns the number of compare ops applied.
func (p *Panel) Compares() int { return p.compares }

// Done reports whether the panel has seen its done step.
func (p *Panel) Done() bool { return p.done }
