package harness

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
)

// TraceEvent is one recorded step of one algorithm.
type TraceEvent struct {
	Tick      int64          `json:"tick"`
	Algorithm ir.AlgorithmID `json:"algorithm"`
	Seq       int64          `json:"seq"`
	Ops       []ir.Op        `json:"ops"`
	Done      bool           `json:"done"`
}

// Result returns the event as a StepResult.
func (e TraceEvent) Result() ir.StepResult {
	return ir.StepResult{Ops: e.Ops, Done: e.Done}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held and every replay verified.
	Pass bool `json:"pass"`

	// Values is the initial array the engines started from.
	Values []int `json:"values"`

	// Ticks is the number of driver steps until every algorithm was done.
	Ticks int64 `json:"ticks"`

	// Trace holds every recorded step ordered by tick, then display order.
	Trace []TraceEvent `json:"trace"`

	// Replays holds the store verification per algorithm, in scenario order.
	Replays []store.AlgorithmReplay `json:"replays"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Replays: []store.AlgorithmReplay{},
		Errors:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Steps returns the trace events of one algorithm in seq order.
func (r *Result) Steps(id ir.AlgorithmID) []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Algorithm == id {
			out = append(out, ev)
		}
	}
	return out
}

// Replay returns the verification result for id.
func (r *Result) Replay(id ir.AlgorithmID) (store.AlgorithmReplay, bool) {
	k := slices.IndexFunc(r.Replays, func(rep store.AlgorithmReplay) bool {
		return rep.Algorithm == id
	})
	if k < 0 {
		return store.AlgorithmReplay{}, false
	}
	return r.Replays[k], true
}
