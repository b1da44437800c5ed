package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/conductor"
	"github.com/roach88/lockstep/internal/config"
	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
)

func testConfig(offload bool) config.Config {
	cfg := config.Default()
	cfg.Size = 16
	cfg.Offload = offload
	cfg.RotateAfter = 2 * time.Second
	return cfg
}

func seeds(names ...string) func() string {
	k := 0
	return func() string {
		s := names[k%len(names)]
		k++
		return s
	}
}

func newTestModel(t *testing.T, cfg config.Config, opts ...Option) *Model {
	t.Helper()
	cond, err := conductor.New(conductor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSeedSource(seeds("next-a", "next-b")),
	}, opts...)
	m, err := New(context.Background(), cfg, cond, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// update feeds msg to m and returns the resulting command unexecuted.
func update(t *testing.T, m *Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := m.Update(msg)
	require.Same(t, m, next)
	return cmd
}

// tickUntilDone drives ticks until the board is done and returns the
// command produced by the final step.
func tickUntilDone(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	var last tea.Cmd
	for tick := int64(1); !m.board.AllDone(); tick++ {
		require.Less(t, tick, int64(10000), "board never finished")
		cmd := update(t, m, TickMsg(tick))
		if m.cfg.Offload {
			require.NotNil(t, cmd)
			cmd = update(t, m, cmd())
		}
		last = cmd
	}
	return last
}

func TestModel_LocalStepsInsideUpdate(t *testing.T) {
	m := newTestModel(t, testConfig(false))

	cmd := update(t, m, TickMsg(1))
	assert.Nil(t, cmd)
	for _, p := range m.board.Panels() {
		assert.Equal(t, 1, p.Steps(), p.ID())
	}
	assert.Equal(t, int64(1), m.lastTick)
}

func TestModel_OffloadDropsTicksWhileInFlight(t *testing.T) {
	m := newTestModel(t, testConfig(true))

	cmd := update(t, m, TickMsg(1))
	require.NotNil(t, cmd)
	assert.True(t, m.inFlight)

	assert.Nil(t, update(t, m, TickMsg(2)))
	assert.Nil(t, update(t, m, TickMsg(3)))
	assert.Equal(t, int64(2), m.dropped)

	update(t, m, cmd())
	assert.False(t, m.inFlight)
	for _, p := range m.board.Panels() {
		assert.Equal(t, 1, p.Steps(), p.ID())
	}
}

func TestModel_OffloadStepOnClosedChannelIsDropped(t *testing.T) {
	m := newTestModel(t, testConfig(true))

	cmd := update(t, m, TickMsg(1))
	require.NotNil(t, cmd)
	require.NoError(t, m.driver.Close())

	update(t, m, cmd())
	assert.False(t, m.inFlight)
	assert.Equal(t, int64(1), m.dropped)
	assert.NoError(t, m.err)
	for _, p := range m.board.Panels() {
		assert.Zero(t, p.Steps(), p.ID())
	}
}

func TestModel_OffloadMatchesLocal(t *testing.T) {
	local := newTestModel(t, testConfig(false))
	off := newTestModel(t, testConfig(true))

	tickUntilDone(t, local)
	tickUntilDone(t, off)

	for _, id := range ir.AllAlgorithms() {
		lp, op := local.board.Panel(id), off.board.Panel(id)
		assert.Equal(t, lp.Steps(), op.Steps(), id)
		assert.Equal(t, lp.Values(), op.Values(), id)
		assert.True(t, ir.IsSorted(op.Values()), id)
	}
}

func TestModel_StaleStepAfterRotationIsIgnored(t *testing.T) {
	m := newTestModel(t, testConfig(true))

	cmd := update(t, m, TickMsg(1))
	require.NotNil(t, cmd)
	stale := cmd()

	update(t, m, keyRunes("r"))
	assert.Equal(t, "next-a", m.seed)
	assert.False(t, m.inFlight)

	update(t, m, stale)
	for _, p := range m.board.Panels() {
		assert.Zero(t, p.Steps(), p.ID())
	}
}

func TestModel_CountdownRotatesDataset(t *testing.T) {
	m := newTestModel(t, testConfig(false))
	startGen := m.gen

	cmd := tickUntilDone(t, m)
	require.NotNil(t, cmd, "finishing should start the countdown")
	assert.True(t, m.counting)
	assert.Equal(t, 2*time.Second, m.remaining)

	// Ticks after done do nothing.
	assert.Nil(t, update(t, m, TickMsg(99999)))

	require.NotNil(t, update(t, m, countdownMsg{gen: m.gen}))
	assert.Equal(t, time.Second, m.remaining)

	update(t, m, countdownMsg{gen: m.gen})
	assert.Equal(t, startGen+1, m.gen)
	assert.Equal(t, "next-a", m.seed)
	assert.False(t, m.counting)
	assert.False(t, m.board.AllDone())
}

func TestModel_CountdownFromOldSessionIsIgnored(t *testing.T) {
	m := newTestModel(t, testConfig(false))
	tickUntilDone(t, m)
	old := m.gen

	update(t, m, keyRunes("r"))
	update(t, m, countdownMsg{gen: old})
	assert.Equal(t, "next-a", m.seed)
	assert.Equal(t, old+1, m.gen)
}

func TestModel_ZeroRotateAfterNeverCountsDown(t *testing.T) {
	cfg := testConfig(false)
	cfg.RotateAfter = 0
	m := newTestModel(t, cfg)

	assert.Nil(t, tickUntilDone(t, m))
	assert.False(t, m.counting)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t, testConfig(false))

	update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, m.cond.Playing())
	update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.cond.Playing())

	update(t, m, keyRunes("+"))
	assert.Equal(t, conductor.DefaultSpeed+1, m.cond.Speed())
	for range 10 {
		update(t, m, keyRunes("+"))
	}
	assert.Equal(t, conductor.MaxSpeed, m.cond.Speed())
	for range 10 {
		update(t, m, keyRunes("-"))
	}
	assert.Equal(t, conductor.MinSpeed, m.cond.Speed())

	cmd := update(t, m, keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ConfigReload(t *testing.T) {
	m := newTestModel(t, testConfig(false))
	gen := m.gen

	next := m.cfg
	next.Speed = 4
	update(t, m, ConfigMsg{Config: next})
	assert.Equal(t, 4, m.cond.Speed())
	assert.Equal(t, gen, m.gen, "speed change keeps the session")

	next.Seed = "reloaded"
	next.Algorithms = []ir.AlgorithmID{ir.Quick}
	update(t, m, ConfigMsg{Config: next})
	assert.Equal(t, gen+1, m.gen)
	assert.Equal(t, "reloaded", m.seed)
	require.Len(t, m.board.Panels(), 1)
	assert.Equal(t, ir.Quick, m.board.Panels()[0].ID())

	update(t, m, ConfigMsg{Err: assert.AnError})
	assert.Contains(t, m.status, "config:")
	assert.Equal(t, gen+1, m.gen)
}

func TestModel_RecordsEverySession(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m := newTestModel(t, testConfig(true), WithStore(st, engine.NewFixedGenerator("run-1", "run-2")))
	tickUntilDone(t, m)
	update(t, m, keyRunes("r"))
	tickUntilDone(t, m)

	ctx := context.Background()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "next-a", runs[1].Seed)

	for _, run := range runs {
		reps, err := st.VerifyRun(ctx, run.ID)
		require.NoError(t, err)
		for _, rep := range reps {
			assert.True(t, rep.OK(), "%s %s: %s", run.ID, rep.Algorithm, rep.Problem)
		}
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, testConfig(false))
	update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	update(t, m, TickMsg(1))

	out := m.View()
	for _, id := range ir.AllAlgorithms() {
		assert.Contains(t, out, id.Title())
	}
	assert.Contains(t, out, `seed "sortdemo"`)
	assert.Contains(t, out, "tick 1")
	assert.Contains(t, out, "quit")

	update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Contains(t, m.View(), "paused")
}

func TestColumnsOf_FoldsWideArrays(t *testing.T) {
	m := newTestModel(t, testConfig(false))
	p := m.board.Panels()[0]

	assert.Len(t, columnsOf(p, 100), 16)
	cols := columnsOf(p, 4)
	require.Len(t, cols, 4)
	for c, col := range cols {
		want := 0
		for i := c * 4; i < c*4+4; i++ {
			want = max(want, p.At(i))
		}
		assert.Equal(t, want, col.value)
	}
}
