package engine

import (
	"context"
	"log/slog"
)

// Host is the offloaded side of a Channel.
//
// CRITICAL: all engine state is touched only from the Run goroutine.
// Clients talk to the Host exclusively through its request queue.
type Host struct {
	queue  *requestQueue
	opts   options
	set    *set
	logger *slog.Logger
}

func newHost(o options) *Host {
	return &Host{
		queue:  newRequestQueue(),
		opts:   o,
		logger: o.logger,
	}
}

// submit hands a request to the Run loop. Returns false once the host is closed.
func (h *Host) submit(r request) bool {
	return h.queue.Enqueue(r)
}

// Run processes requests in FIFO order until ctx is cancelled or the queue
// is closed. Requests still queued at that point are discarded unanswered.
func (h *Host) Run(ctx context.Context) error {
	h.logger.Info("host starting")

	for {
		if err := ctx.Err(); err != nil {
			h.logger.Info("host stopping: context cancelled")
			h.queue.Close()
			return err
		}

		r, ok := h.queue.TryDequeue()
		if ok {
			r.reply <- h.handle(r)
			continue
		}

		select {
		case <-ctx.Done():
			h.logger.Info("host stopping: context cancelled")
			h.queue.Close()
			return ctx.Err()

		case <-h.queue.Wait():
			// The signal channel closes with the queue.
			if h.queue.Len() == 0 && h.queue.Closed() {
				h.logger.Info("host stopping: queue closed")
				return nil
			}
		}
	}
}

// handle runs one request. Called only from Run.
func (h *Host) handle(r request) response {
	switch r.kind {
	case requestInit:
		s, err := newSet(r.values, r.ids, h.opts.maxSteps, true)
		if err != nil {
			h.logger.Error("init rejected", "algorithms", r.ids, "error", err)
			return response{err: err}
		}
		h.set = s
		h.logger.Debug("host init", "size", len(r.values), "algorithms", r.ids)
		return response{}

	case requestStep:
		if h.set == nil {
			return response{err: ErrNotInitialized}
		}
		batch, err := h.set.step()
		if err != nil {
			h.logger.Error("step failed", "error", err)
		}
		return response{batch: batch, err: err}
	}

	return response{err: newContractError("unknown request", nil)}
}
