package engine

import (
	"sync"

	"github.com/roach88/lockstep/internal/ir"
)

// requestKind distinguishes host requests.
type requestKind int

const (
	requestInit requestKind = iota + 1
	requestStep
)

// request is one message to the Host. The reply channel is buffered so the
// Host never blocks on a client that has gone away.
type request struct {
	kind   requestKind
	values []int
	ids    []ir.AlgorithmID
	reply  chan response
}

type response struct {
	batch Batch
	err   error
}

func newRequest(kind requestKind) request {
	return request{kind: kind, reply: make(chan response, 1)}
}

// requestQueue is a thread-safe FIFO queue for host requests.
//
// Clients enqueue from any goroutine while the Host's Run loop dequeues.
// A buffered signal channel of size 1 coalesces wakeups and lets Run wait
// on the queue and a context at the same time.
type requestQueue struct {
	mu       sync.Mutex
	requests []request
	closed   bool
	signal   chan struct{}
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		requests: make([]request, 0, 4),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return request{}, false
	}
	r := q.requests[0]
	// Release the slot so the values slice can be collected.
	q.requests[0] = request{}
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Wait returns a channel that signals when requests may be available.
// It is closed by Close.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Closed reports whether Close has been called.
func (q *requestQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further requests, discards queued ones and wakes waiters.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.requests = nil
	close(q.signal)
}
