package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/lockstep/internal/ir"
)

// Batch holds one StepResult per algorithm for a single tick.
type Batch map[ir.AlgorithmID]ir.StepResult

// IDs returns the batch's algorithm ids in display order.
func (b Batch) IDs() []ir.AlgorithmID {
	ids := make([]ir.AlgorithmID, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareDisplayOrder)
	return ids
}

// AllDone reports whether every result in the batch is done.
func (b Batch) AllDone() bool {
	for _, r := range b {
		if !r.Done {
			return false
		}
	}
	return true
}

func compareDisplayOrder(a, b ir.AlgorithmID) int {
	all := ir.AllAlgorithms()
	ia, ib := slices.Index(all, a), slices.Index(all, b)
	if ia != ib {
		return ia - ib
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Driver advances a set of sort engines one batch at a time.
//
// Implemented by Local (in-process) and Channel (offloaded).
type Driver interface {
	// Init replaces every engine with fresh ones over a copy of values.
	Init(ctx context.Context, values []int, ids []ir.AlgorithmID) error

	// Step advances every engine by one step.
	Step(ctx context.Context) (Batch, error)

	// TryStep is Step for a tick that may be dropped. ErrBusy and ErrClosed
	// give ok=false with no error.
	TryStep(ctx context.Context) (batch Batch, ok bool, err error)

	// Close releases the driver. Later calls return ErrClosed.
	Close() error
}

var (
	_ Driver = (*Local)(nil)
	_ Driver = (*Channel)(nil)
)

// NewDriver returns an offloaded Channel when offload is set, otherwise a
// Local driver. ctx bounds the Channel's host goroutine.
func NewDriver(ctx context.Context, offload bool, opts ...Option) (Driver, error) {
	if offload {
		c, err := Open(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	l, err := NewLocal(opts...)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func tryStep(batch Batch, err error) (Batch, bool, error) {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrClosed):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return batch, true, nil
}
