// Package tui renders a racing session in the terminal.
//
// The Model owns one driver and one present.Board at a time. Clock ticks
// arrive as TickMsg, sent by whoever runs the conductor. In-process drivers
// are stepped inside Update; offloaded drivers are stepped in a tea.Cmd,
// and ticks that arrive while that step is outstanding are dropped.
package tui

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roach88/lockstep/internal/conductor"
	"github.com/roach88/lockstep/internal/config"
	"github.com/roach88/lockstep/internal/dataset"
	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/present"
	"github.com/roach88/lockstep/internal/store"
)

const countdownStep = time.Second

// TickMsg carries one conductor tick into the model.
type TickMsg int64

// ConfigMsg carries a reloaded configuration, or the error that stopped
// the reload.
type ConfigMsg struct {
	Config config.Config
	Err    error
}

type stepDoneMsg struct {
	gen   int
	tick  int64
	batch engine.Batch
	ok    bool
	err   error
}

type countdownMsg struct {
	gen int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. Logs should not go to the terminal the
// model draws on.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStore records every session of the model as a run in st.
func WithStore(st *store.Store, ids engine.RunIDGenerator) Option {
	return func(m *Model) {
		m.store = st
		if ids != nil {
			m.runIDs = ids
		}
	}
}

// WithSeedSource replaces the seed generator used on rotation.
func WithSeedSource(fn func() string) Option {
	return func(m *Model) {
		if fn != nil {
			m.newSeed = fn
		}
	}
}

// Model is the bubbletea model of a session.
type Model struct {
	ctx    context.Context
	cfg    config.Config
	cond   *conductor.Conductor
	logger *slog.Logger
	store  *store.Store
	runIDs engine.RunIDGenerator

	seed      string
	board     *present.Board
	driver    engine.Driver
	recorder  *store.Recorder
	gen       int
	inFlight  bool
	dropped   int64
	lastTick  int64
	counting  bool
	remaining time.Duration
	status    string
	err       error

	newSeed func() string
	keys    keyMap
	help    help.Model
	width   int
	height  int
}

// New creates a model and starts its first session from cfg.Seed.
// cond is only steered (pause, speed); the caller runs it.
func New(ctx context.Context, cfg config.Config, cond *conductor.Conductor, opts ...Option) (*Model, error) {
	m := &Model{
		ctx:     ctx,
		cfg:     cfg,
		cond:    cond,
		logger:  slog.Default(),
		runIDs:  engine.UUIDv7Generator{},
		newSeed: dataset.NewSeed,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.startSession(cfg.Seed); err != nil {
		return nil, err
	}
	return m, nil
}

// startSession replaces the current driver and board with fresh ones over
// the dataset for seed. The old driver is closed first, which cancels any
// step it still has in flight.
func (m *Model) startSession(seed string) error {
	if m.driver != nil {
		if err := m.driver.Close(); err != nil {
			m.logger.Warn("error closing driver", "error", err)
		}
		m.driver = nil
	}

	values := dataset.Generate(seed, m.cfg.Size)
	driver, err := engine.NewDriver(m.ctx, m.cfg.Offload, engine.WithLogger(m.logger))
	if err != nil {
		return err
	}
	if err := driver.Init(m.ctx, values, m.cfg.Algorithms); err != nil {
		_ = driver.Close()
		return err
	}

	m.recorder = nil
	if m.store != nil {
		run := &store.Run{
			ID:            m.runIDs.Generate(),
			Seed:          seed,
			Size:          m.cfg.Size,
			InitialValues: values,
			Mode:          modeOf(m.cfg.Offload),
			Speed:         m.cond.Speed(),
			Algorithms:    slices.Clone(m.cfg.Algorithms),
		}
		rec, err := store.NewRecorder(m.ctx, m.store, run, m.logger)
		if err != nil {
			_ = driver.Close()
			return err
		}
		m.recorder = rec
	}

	m.seed = seed
	m.driver = driver
	m.board = present.NewBoard(values, m.cfg.Algorithms)
	m.gen++
	m.inFlight = false
	m.counting = false
	m.remaining = 0
	m.err = nil
	m.logger.Info("session started", "seed", seed, "size", m.cfg.Size, "mode", modeOf(m.cfg.Offload), "gen", m.gen)
	return nil
}

func (m *Model) rotate(seed string) tea.Cmd {
	if err := m.startSession(seed); err != nil {
		m.err = err
		m.logger.Error("rotation failed", "seed", seed, "error", err)
	}
	return nil
}

// Close releases the current driver.
func (m *Model) Close() error {
	if m.driver == nil {
		return nil
	}
	err := m.driver.Close()
	m.driver = nil
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case TickMsg:
		return m, m.handleTick(int64(msg))

	case stepDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.inFlight = false
		return m, m.applyStep(msg.tick, msg.batch, msg.ok, msg.err)

	case countdownMsg:
		if msg.gen != m.gen || !m.counting {
			return m, nil
		}
		m.remaining -= countdownStep
		if m.remaining <= 0 {
			return m, m.rotate(m.newSeed())
		}
		return m, m.countdown()

	case ConfigMsg:
		return m, m.applyConfig(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.cond.Toggle()
	case key.Matches(msg, m.keys.Faster):
		if m.cond.Speed() < conductor.MaxSpeed {
			_ = m.cond.SetSpeed(m.cond.Speed() + 1)
		}
	case key.Matches(msg, m.keys.Slower):
		if m.cond.Speed() > conductor.MinSpeed {
			_ = m.cond.SetSpeed(m.cond.Speed() - 1)
		}
	case key.Matches(msg, m.keys.Reseed):
		return m.rotate(m.newSeed())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleTick(tick int64) tea.Cmd {
	m.lastTick = tick
	if m.driver == nil || m.board.AllDone() {
		return nil
	}
	if m.inFlight {
		m.dropped++
		return nil
	}
	if !m.cfg.Offload {
		batch, ok, err := m.driver.TryStep(m.ctx)
		return m.applyStep(tick, batch, ok, err)
	}

	m.inFlight = true
	driver, gen, ctx := m.driver, m.gen, m.ctx
	return func() tea.Msg {
		batch, ok, err := driver.TryStep(ctx)
		return stepDoneMsg{gen: gen, tick: tick, batch: batch, ok: ok, err: err}
	}
}

func (m *Model) applyStep(tick int64, batch engine.Batch, ok bool, err error) tea.Cmd {
	if err == nil && !ok {
		m.dropped++
		return nil
	}
	if err != nil {
		m.err = err
		m.logger.Error("step failed", "tick", tick, "error", err)
		return nil
	}

	for _, id := range m.board.Apply(batch) {
		m.logger.Debug("algorithm done", "algorithm", id, "tick", tick)
	}
	if m.recorder != nil {
		if err := m.recorder.Record(m.ctx, tick, batch); err != nil {
			m.err = err
			m.logger.Error("record failed", "tick", tick, "error", err)
		}
	}

	if m.board.AllDone() && !m.counting && m.cfg.RotateAfter > 0 {
		m.counting = true
		m.remaining = m.cfg.RotateAfter
		return m.countdown()
	}
	return nil
}

func (m *Model) countdown() tea.Cmd {
	gen := m.gen
	return tea.Tick(min(countdownStep, m.remaining), func(time.Time) tea.Msg {
		return countdownMsg{gen: gen}
	})
}

// applyConfig takes a reloaded configuration. Speed changes apply in
// place; changes to the dataset or driver start a new session.
func (m *Model) applyConfig(msg ConfigMsg) tea.Cmd {
	if msg.Err != nil {
		m.status = "config: " + msg.Err.Error()
		return nil
	}
	next := msg.Config
	prev := m.cfg
	m.cfg = next
	m.status = "config reloaded"

	if next.Speed != m.cond.Speed() {
		if err := m.cond.SetSpeed(next.Speed); err != nil {
			m.status = "config: " + err.Error()
		}
	}
	if next.Seed != prev.Seed || next.Size != prev.Size || next.Offload != prev.Offload ||
		!slices.Equal(next.Algorithms, prev.Algorithms) {
		return m.rotate(next.Seed)
	}
	return nil
}

func modeOf(offload bool) string {
	if offload {
		return store.ModeOffload
	}
	return store.ModeLocal
}
