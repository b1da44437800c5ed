package engine

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/roach88/lockstep/internal/ir"
)

// Channel is the client of an offload Host running in its own goroutine.
//
// Thread-safety model:
//   - Init, Step, TryStep and Close are safe from any goroutine
//   - at most one Step is in flight; a concurrent Step returns ErrBusy
//   - Close cancels everything: queued requests are discarded and an
//     in-flight Step returns ErrClosed
type Channel struct {
	host   *Host
	cancel context.CancelFunc
	exited chan struct{}

	mu       sync.Mutex
	inFlight bool

	closed    chan struct{}
	closeOnce sync.Once
}

// Open starts a Host goroutine and returns its client. The host lives until
// Close is called or ctx is cancelled.
func Open(ctx context.Context, opts ...Option) (*Channel, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	c, hostCtx := newChannel(ctx, o)
	go func() {
		defer close(c.exited)
		_ = c.host.Run(hostCtx)
	}()
	return c, nil
}

func newChannel(ctx context.Context, o options) (*Channel, context.Context) {
	hostCtx, cancel := context.WithCancel(ctx)
	return &Channel{
		host:   newHost(o),
		cancel: cancel,
		exited: make(chan struct{}),
		closed: make(chan struct{}),
	}, hostCtx
}

// Init replaces every hosted engine and waits for the host to acknowledge.
// An unknown id is a contract error and leaves the previous engines in place.
func (c *Channel) Init(ctx context.Context, values []int, ids []ir.AlgorithmID) error {
	r := newRequest(requestInit)
	r.values = slices.Clone(values)
	r.ids = slices.Clone(ids)

	resp, err := c.roundTrip(ctx, r)
	if err != nil {
		return err
	}
	return resp.err
}

// Step requests one step of every hosted engine. Engines that already
// reported done are not stepped again and appear as {[], true}.
//
// Returns ErrBusy without waiting if another Step is in flight.
func (c *Channel) Step(ctx context.Context) (Batch, error) {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.inFlight = true
	c.mu.Unlock()

	r := newRequest(requestStep)
	resp, err := c.roundTrip(ctx, r)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			// Abandoned, but the host still owes a reply. Stay busy until it
			// arrives so there is never more than one step outstanding.
			go func() {
				select {
				case <-r.reply:
				case <-c.closed:
				}
				c.clearInFlight()
			}()
			return nil, err
		}
		c.clearInFlight()
		return nil, err
	}
	c.clearInFlight()
	return resp.batch, resp.err
}

// TryStep is Step for tick listeners: a busy or closed channel is not an
// error, it just produces no batch for this tick (ok=false).
func (c *Channel) TryStep(ctx context.Context) (batch Batch, ok bool, err error) {
	return tryStep(c.Step(ctx))
}

// Close tears down the host and waits for its goroutine to exit.
// Safe to call more than once.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		c.host.queue.Close()
		<-c.exited
	})
	return nil
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Channel) clearInFlight() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// roundTrip submits r and waits for its reply, Close, or ctx.
func (c *Channel) roundTrip(ctx context.Context, r request) (response, error) {
	if c.isClosed() || !c.host.submit(r) {
		return response{}, ErrClosed
	}
	select {
	case resp := <-r.reply:
		return resp, nil
	case <-c.closed:
		return response{}, ErrClosed
	case <-c.exited:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}
