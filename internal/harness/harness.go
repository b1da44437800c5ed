package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
	"github.com/roach88/lockstep/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives one engine.Driver and records into its own store.
type Harness struct {
	store    *store.Store
	driver   engine.Driver
	recorder *store.Recorder
	logger   *slog.Logger
}

// Run executes a scenario with a background context.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run id so repeated runs produce identical traces.
//
// Execution flow:
// 1. Open an in-memory store and the scenario's driver
// 2. Init every engine over the scenario's values
// 3. Step until every algorithm reports done, recording each tick
// 4. Read the trace back and verify it by replay
// 5. Evaluate assertions
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	driver, err := openDriver(ctx, scenario, logger)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	values := scenario.InitialValues()
	if err := driver.Init(ctx, values, scenario.Algorithms); err != nil {
		return nil, fmt.Errorf("failed to init driver: %w", err)
	}

	runIDs := testutil.NewFixedRunIDGenerator(scenario.RunID)
	run := &store.Run{
		ID:            runIDs.Generate(),
		Seed:          scenario.Seed,
		Size:          len(values),
		InitialValues: values,
		Mode:          scenario.ModeOrDefault(),
		Algorithms:    scenario.Algorithms,
	}
	rec, err := store.NewRecorder(ctx, st, run, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	h := &Harness{
		store:    st,
		driver:   driver,
		recorder: rec,
		logger:   logger,
	}

	result := NewResult()
	result.Values = values
	if result.Ticks, err = h.drive(ctx); err != nil {
		return nil, err
	}
	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for _, rep := range result.Replays {
		if !rep.OK() {
			result.AddError(fmt.Sprintf("replay %s: %s", rep.Algorithm, rep.Problem))
		}
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func openDriver(ctx context.Context, scenario *Scenario, logger *slog.Logger) (engine.Driver, error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}

	driver, err := engine.NewDriver(ctx, scenario.ModeOrDefault() == store.ModeOffload, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s driver: %w", scenario.ModeOrDefault(), err)
	}
	return driver, nil
}

// drive steps until every algorithm is done and returns the tick count.
// The driver's step quota bounds the loop.
func (h *Harness) drive(ctx context.Context) (int64, error) {
	for tick := int64(1); ; tick++ {
		batch, err := h.driver.Step(ctx)
		if err != nil {
			return 0, fmt.Errorf("tick %d: %w", tick, err)
		}
		if err := h.recorder.Record(ctx, tick, batch); err != nil {
			return 0, err
		}
		if batch.AllDone() {
			h.logger.Debug("scenario done", "ticks", tick)
			return tick, nil
		}
	}
}

// collect reads the recorded steps and their verification into result.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	runID := h.recorder.RunID()
	run, err := h.store.ReadRun(ctx, runID)
	if err != nil {
		return err
	}
	for _, id := range run.Algorithms {
		steps, err := h.store.ReadSteps(ctx, runID, id)
		if err != nil {
			return err
		}
		for _, st := range steps {
			result.Trace = append(result.Trace, TraceEvent{
				Tick:      st.Tick,
				Algorithm: st.Algorithm,
				Seq:       st.Seq,
				Ops:       st.Ops,
				Done:      st.Done,
			})
		}
	}

	all := ir.AllAlgorithms()
	slices.SortStableFunc(result.Trace, func(a, b TraceEvent) int {
		if a.Tick != b.Tick {
			if a.Tick < b.Tick {
				return -1
			}
			return 1
		}
		return slices.Index(all, a.Algorithm) - slices.Index(all, b.Algorithm)
	})

	result.Replays, err = h.store.VerifyRun(ctx, runID)
	return err
}
