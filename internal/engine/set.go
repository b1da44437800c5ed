package engine

import (
	"slices"

	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/sorts"
)

// set is the engines of one Init, in init order, plus done bookkeeping.
// It is owned by exactly one goroutine.
type set struct {
	ids     []ir.AlgorithmID
	engines []sorts.Engine
	done    []bool
	quota   *QuotaEnforcer

	// skipDone stops stepping engines once they report done and substitutes
	// the synthetic {[], true}. The offload host does this; Local does not.
	skipDone bool
}

// newSet builds one engine per id. Unknown ids fail the whole set.
func newSet(values []int, ids []ir.AlgorithmID, maxSteps int, skipDone bool) (*set, error) {
	s := &set{
		ids:      slices.Clone(ids),
		engines:  make([]sorts.Engine, len(ids)),
		done:     make([]bool, len(ids)),
		quota:    NewQuotaEnforcer(maxSteps),
		skipDone: skipDone,
	}
	seen := make(map[ir.AlgorithmID]bool, len(ids))
	for k, id := range ids {
		if seen[id] {
			return nil, newContractError("duplicate algorithm "+string(id), nil)
		}
		seen[id] = true
		e, err := sorts.New(id, values)
		if err != nil {
			return nil, newContractError("init", err)
		}
		s.engines[k] = e
	}
	return s, nil
}

// pending returns the ids not yet done.
func (s *set) pending() []ir.AlgorithmID {
	var out []ir.AlgorithmID
	for k, id := range s.ids {
		if !s.done[k] {
			out = append(out, id)
		}
	}
	return out
}

// step advances every engine once, in init order.
func (s *set) step() (Batch, error) {
	if pending := s.pending(); len(pending) > 0 {
		if err := s.quota.Check(pending); err != nil {
			return nil, err
		}
	}

	batch := make(Batch, len(s.ids))
	for k, id := range s.ids {
		if s.done[k] && s.skipDone {
			batch[id] = ir.Terminal()
			continue
		}
		r := s.engines[k].Step()
		if r.Done {
			s.done[k] = true
		}
		batch[id] = r
	}
	return batch, nil
}
