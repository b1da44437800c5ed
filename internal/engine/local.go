package engine

import (
	"context"
	"sync"

	"github.com/roach88/lockstep/internal/ir"
)

// Local steps every engine in the caller's goroutine.
//
// Every Step calls Step on every engine, done or not, so terminal repeats
// come from the engines themselves.
type Local struct {
	mu     sync.Mutex
	opts   options
	set    *set
	closed bool
}

// NewLocal creates an in-process driver. Call Init before Step.
func NewLocal(opts ...Option) (*Local, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Local{opts: o}, nil
}

// Init replaces all engines. On error the previous engines are kept.
func (l *Local) Init(ctx context.Context, values []int, ids []ir.AlgorithmID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	s, err := newSet(values, ids, l.opts.maxSteps, false)
	if err != nil {
		return err
	}
	l.set = s
	l.opts.logger.Debug("local init", "size", len(values), "algorithms", ids)
	return nil
}

// Step advances every engine by one step.
func (l *Local) Step(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.set == nil {
		return nil, ErrNotInitialized
	}
	return l.set.step()
}

// TryStep is Step with a closed driver reported as ok=false. A Local is
// never busy.
func (l *Local) TryStep(ctx context.Context) (batch Batch, ok bool, err error) {
	return tryStep(l.Step(ctx))
}

// Close drops the engines.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.set = nil
	return nil
}
