package present

import "github.com/roach88/lockstep/internal/ir"

// Board groups the panels of one session in display order.
type Board struct {
	panels []*Panel
	byID   map[ir.AlgorithmID]*Panel
}

// NewBoard creates one panel per id over copies of initial.
func NewBoard(initial []int, ids []ir.AlgorithmID) *Board {
	b := &Board{byID: make(map[ir.AlgorithmID]*Panel, len(ids))}
	for _, id := range ids {
		p := NewPanel(id, initial)
		b.panels = append(b.panels, p)
		b.byID[id] = p
	}
	return b
}

// Apply routes each result to its panel and returns the ids that reached
// done with this batch, in display order. Results for unknown ids are ignored.
func (b *Board) Apply(batch map[ir.AlgorithmID]ir.StepResult) []ir.AlgorithmID {
	var reached []ir.AlgorithmID
	for _, p := range b.panels {
		r, ok := batch[p.id]
		if !ok {
			continue
		}
		if p.Apply(r) {
			reached = append(reached, p.id)
		}
	}
	return reached
}

// Reset restarts every panel from a copy of initial.
func (b *Board) Reset(initial []int) {
	for _, p := range b.panels {
		p.Reset(initial)
	}
}

// Panels returns the panels in display order.
func (b *Board) Panels() []*Panel { return b.panels }

// Panel returns the panel for id, or nil.
func (b *Board) Panel(id ir.AlgorithmID) *Panel { return b.byID[id] }

// AllDone reports whether every panel has reached done.
func (b *Board) AllDone() bool {
	for _, p := range b.panels {
		if !p.done {
			return false
		}
	}
	return true
}
