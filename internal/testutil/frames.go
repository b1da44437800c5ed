package testutil

import (
	"sync"
	"time"
)

// Epoch is the fixed start time used by ManualFrames when none is given.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualFrames is a FrameSource whose frames are delivered by the test.
//
// Unlike a ticker, time only moves when Advance is called, so a Conductor
// driven by ManualFrames produces the same tick sequence on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualFrames struct {
	mu      sync.Mutex
	now     time.Time
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

// NewManualFrames creates a frame source starting at start (Epoch if zero).
func NewManualFrames(start time.Time) *ManualFrames {
	if start.IsZero() {
		start = Epoch
	}
	return &ManualFrames{
		now:     start,
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

// Frames implements conductor.FrameSource.
func (f *ManualFrames) Frames() <-chan time.Time {
	return f.ch
}

// Advance moves time forward by d and delivers one frame at the new time.
// Blocks until the frame is received, and returns false if the source was
// stopped first.
func (f *ManualFrames) Advance(d time.Duration) bool {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()

	select {
	case f.ch <- now:
		return true
	case <-f.stopped:
		return false
	}
}

// Now returns the time of the most recent frame.
func (f *ManualFrames) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Stop implements conductor.FrameSource. Safe to call more than once.
func (f *ManualFrames) Stop() {
	f.once.Do(func() { close(f.stopped) })
}

// Stopped reports whether Stop has been called.
func (f *ManualFrames) Stopped() bool {
	select {
	case <-f.stopped:
		return true
	default:
		return false
	}
}
