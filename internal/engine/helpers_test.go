package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openGated returns a Channel whose host does not start processing until
// release is called, so tests can hold a request in flight.
func openGated(t *testing.T, opts ...Option) (c *Channel, release func()) {
	t.Helper()
	o, err := applyOptions(append([]Option{WithLogger(quietLogger())}, opts...))
	require.NoError(t, err)

	c, hostCtx := newChannel(context.Background(), o)
	gate := make(chan struct{})
	go func() {
		defer close(c.exited)
		select {
		case <-gate:
		case <-hostCtx.Done():
			return
		}
		_ = c.host.Run(hostCtx)
	}()
	t.Cleanup(func() { _ = c.Close() })
	return c, func() { close(gate) }
}

// busy reports whether c has a step in flight.
func busy(c *Channel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func openChannel(t *testing.T, opts ...Option) *Channel {
	t.Helper()
	c, err := Open(context.Background(), append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newLocal(t *testing.T, opts ...Option) *Local {
	t.Helper()
	l, err := NewLocal(append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return l
}

// collect steps d until every algorithm is done and returns each
// algorithm's results up to and including its first done step.
func collect(t *testing.T, d Driver) map[ir.AlgorithmID][]ir.StepResult {
	t.Helper()
	ctx := context.Background()
	out := make(map[ir.AlgorithmID][]ir.StepResult)
	finished := make(map[ir.AlgorithmID]bool)
	for tick := 0; tick < 100_000; tick++ {
		batch, err := d.Step(ctx)
		require.NoError(t, err)
		for _, id := range batch.IDs() {
			if finished[id] {
				continue
			}
			r := batch[id]
			out[id] = append(out[id], r)
			if r.Done {
				finished[id] = true
			}
		}
		if batch.AllDone() {
			return out
		}
	}
	t.Fatal("driver never finished")
	return nil
}
