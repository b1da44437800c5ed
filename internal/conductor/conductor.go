package conductor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Speed levels. Level s ticks at 10·s Hz.
const (
	MinSpeed     = 1
	MaxSpeed     = 5
	DefaultSpeed = 2

	// DefaultFrameInterval approximates a 60 Hz display refresh.
	DefaultFrameInterval = time.Second / 60
)

// ErrInvalidSpeed is returned by SetSpeed and New for levels outside [MinSpeed, MaxSpeed].
var ErrInvalidSpeed = errors.New("speed out of range")

// TickFunc receives the new tick count. It runs synchronously on the
// goroutine that delivered the frame and must not block.
type TickFunc func(tick int64)

// FrameSource delivers rendering frames to Run.
type FrameSource interface {
	Frames() <-chan time.Time
	Stop()
}

type listener struct {
	id int
	fn TickFunc
}

// Conductor is the lockstep clock. Create one per session with New, drive it
// with Run (or Frame directly) and tear it down with Stop.
//
// Thread-safety: all methods are safe for concurrent use. The tick counter
// has a single writer (whoever calls Frame) and any number of readers.
type Conductor struct {
	mu        sync.Mutex
	speed     int
	playing   bool
	last      time.Time
	hasLast   bool
	listeners []listener
	nextID    int

	tick atomic.Int64

	frameInterval time.Duration
	source        FrameSource
	logger        *slog.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

// Option configures a Conductor.
type Option func(*Conductor) error

// WithSpeed sets the initial speed level.
func WithSpeed(level int) Option {
	return func(c *Conductor) error {
		if err := checkSpeed(level); err != nil {
			return err
		}
		c.speed = level
		return nil
	}
}

// WithFrameInterval sets the period of the default ticker frame source.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Conductor) error {
		if d <= 0 {
			return fmt.Errorf("frame interval must be positive, got %s", d)
		}
		c.frameInterval = d
		return nil
	}
}

// WithFrameSource replaces the default ticker. Run stops the source on exit.
func WithFrameSource(src FrameSource) Option {
	return func(c *Conductor) error {
		c.source = src
		return nil
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conductor) error {
		c.logger = logger
		return nil
	}
}

// WithPaused starts the Conductor paused.
func WithPaused() Option {
	return func(c *Conductor) error {
		c.playing = false
		return nil
	}
}

// New creates a playing Conductor at DefaultSpeed.
func New(opts ...Option) (*Conductor, error) {
	c := &Conductor{
		speed:         DefaultSpeed,
		playing:       true,
		frameInterval: DefaultFrameInterval,
		logger:        slog.Default(),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("conductor: %w", err)
		}
	}
	return c, nil
}

func checkSpeed(level int) error {
	if level < MinSpeed || level > MaxSpeed {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidSpeed, level, MinSpeed, MaxSpeed)
	}
	return nil
}

// IntervalFor returns the target tick interval for a speed level.
func IntervalFor(level int) time.Duration {
	return time.Second / time.Duration(10*level)
}

// Frame offers one rendering frame at time now and reports whether it
// produced a tick. Listeners are called, in subscription order, before
// Frame returns.
func (c *Conductor) Frame(now time.Time) bool {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return false
	}
	if !c.hasLast {
		c.last = now
		c.hasLast = true
		c.mu.Unlock()
		return false
	}
	if now.Sub(c.last) < IntervalFor(c.speed) {
		c.mu.Unlock()
		return false
	}
	c.last = now
	n := c.tick.Add(1)
	fns := make([]TickFunc, len(c.listeners))
	for k, l := range c.listeners {
		fns[k] = l.fn
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
	return true
}

// Run pulls frames until ctx is cancelled or Stop is called.
//
// Returns nil after Stop or when the frame source closes, and ctx.Err()
// on cancellation.
func (c *Conductor) Run(ctx context.Context) error {
	src := c.source
	if src == nil {
		src = newTickerSource(c.frameInterval)
	}
	defer src.Stop()

	c.logger.Info("conductor starting", "speed", c.Speed(), "interval", c.Interval())
	defer func() { c.logger.Info("conductor stopping", "tick", c.Tick()) }()

	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopped:
			return nil
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			c.Frame(now)
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (c *Conductor) Stop() {
	c.stopOnce.Do(func() { close(c.stopped) })
}

// Pause stops ticking until Resume.
func (c *Conductor) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

// Resume restarts ticking. The next frame only sets a new baseline.
func (c *Conductor) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = true
	c.hasLast = false
}

// Toggle flips between paused and playing and returns the new state.
func (c *Conductor) Toggle() bool {
	if c.Playing() {
		c.Pause()
		return false
	}
	c.Resume()
	return true
}

// Playing reports whether the Conductor is ticking.
func (c *Conductor) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Tick returns the number of ticks produced so far.
func (c *Conductor) Tick() int64 {
	return c.tick.Load()
}

// Speed returns the current speed level.
func (c *Conductor) Speed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Interval returns the target tick interval at the current speed.
func (c *Conductor) Interval() time.Duration {
	return IntervalFor(c.Speed())
}

// SetSpeed changes the speed level. The baseline is kept, so the next tick
// fires as soon as the new, shorter or longer, interval has elapsed.
func (c *Conductor) SetSpeed(level int) error {
	if err := checkSpeed(level); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = level
	return nil
}

// OnTick subscribes fn to every tick and returns a function that removes it.
func (c *Conductor) OnTick(fn TickFunc) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for k, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:k], c.listeners[k+1:]...)
					return
				}
			}
		})
	}
}
