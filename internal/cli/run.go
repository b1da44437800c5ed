package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/lockstep/internal/conductor"
	"github.com/roach88/lockstep/internal/config"
	"github.com/roach88/lockstep/internal/dataset"
	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/present"
	"github.com/roach88/lockstep/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed       string
	Size       int
	Speed      int
	Algorithms []string
	Offload    bool
	Fast       bool
	Database   string
	MaxSteps   int

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Frames replaces the conductor's ticker (for testing).
	Frames conductor.FrameSource
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Race the sorts headlessly and print a summary",
		Long: `Generate the dataset, start one engine per algorithm and step them all
on the conductor clock until every algorithm is done.

Flags override the values from the config file. With --db every step is
recorded so the run can later be checked with "lockstep replay".

Example:
  lockstep run
  lockstep run --seed demo --size 32 --speed 5
  lockstep run --fast --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	addSessionFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Fast, "fast", false, "step as fast as possible, ignoring the clock")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "abort after this many steps (0 = unlimited)")

	return cmd
}

// addSessionFlags registers the flags that override config file values.
func addSessionFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "dataset seed")
	cmd.Flags().IntVar(&opts.Size, "size", 0, fmt.Sprintf("array length (%d..%d)", dataset.MinSize, dataset.MaxSize))
	cmd.Flags().IntVar(&opts.Speed, "speed", 0, fmt.Sprintf("speed level (%d..%d)", conductor.MinSpeed, conductor.MaxSpeed))
	cmd.Flags().StringSliceVar(&opts.Algorithms, "algorithms", nil, "comma-separated algorithm ids")
	cmd.Flags().BoolVar(&opts.Offload, "offload", false, "run the engines behind the offload channel")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record steps to this SQLite database")
}

// applyFlags overlays the flags the user set onto cfg.
func (o *RunOptions) applyFlags(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = o.Seed
	}
	if flags.Changed("size") {
		cfg.Size = o.Size
	}
	if flags.Changed("speed") {
		cfg.Speed = o.Speed
	}
	if flags.Changed("algorithms") {
		ids, err := ir.ParseAlgorithmIDs(o.Algorithms)
		if err != nil {
			return cfg, err
		}
		cfg.Algorithms = ids
	}
	if flags.Changed("offload") {
		cfg.Offload = o.Offload
	}
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	return cfg, cfg.Validate()
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.newLogger(cmd.ErrOrStderr())
	out := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	cfg, err = opts.applyFlags(cmd, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	s := &session{
		cfg:      cfg,
		fast:     opts.Fast,
		maxSteps: opts.MaxSteps,
		runIDs:   opts.RunIDs,
		frames:   opts.Frames,
		logger:   logger,
	}
	summary, err := s.run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "run interrupted", err)
		}
		_ = out.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "run failed", err)
	}
	return out.Success(summary)
}

// session is one headless run from dataset to summary.
type session struct {
	cfg      config.Config
	fast     bool
	maxSteps int
	runIDs   engine.RunIDGenerator
	frames   conductor.FrameSource
	logger   *slog.Logger

	board    *present.Board
	driver   engine.Driver
	recorder *store.Recorder
	ticks    int64
	dropped  atomic.Int64
}

func (s *session) run(ctx context.Context) (*RunSummary, error) {
	values := dataset.Generate(s.cfg.Seed, s.cfg.Size)
	s.board = present.NewBoard(values, s.cfg.Algorithms)

	driverOpts := []engine.Option{engine.WithLogger(s.logger)}
	if s.maxSteps > 0 {
		driverOpts = append(driverOpts, engine.WithMaxSteps(s.maxSteps))
	}
	driver, err := engine.NewDriver(ctx, s.cfg.Offload, driverOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := driver.Close(); closeErr != nil {
			s.logger.Error("error closing driver", "error", closeErr)
		}
	}()
	if err := driver.Init(ctx, values, s.cfg.Algorithms); err != nil {
		return nil, err
	}
	s.driver = driver

	var runID string
	if s.cfg.Database != "" {
		st, err := store.Open(s.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				s.logger.Error("error closing database", "error", closeErr)
			}
		}()

		gen := s.runIDs
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		run := &store.Run{
			ID:            gen.Generate(),
			Seed:          s.cfg.Seed,
			Size:          s.cfg.Size,
			InitialValues: values,
			Mode:          modeOf(s.cfg.Offload),
			Speed:         s.cfg.Speed,
			Algorithms:    s.cfg.Algorithms,
		}
		rec, err := store.NewRecorder(ctx, st, run, s.logger)
		if err != nil {
			return nil, err
		}
		s.recorder = rec
		runID = run.ID
	}

	s.logger.Info("run starting",
		"seed", s.cfg.Seed, "size", s.cfg.Size, "speed", s.cfg.Speed,
		"mode", modeOf(s.cfg.Offload), "fast", s.fast)
	start := time.Now()

	if s.fast || s.board.AllDone() {
		err = s.stepFast(ctx)
	} else {
		err = s.stepClocked(ctx)
	}
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:   runID,
		Seed:    s.cfg.Seed,
		Size:    s.cfg.Size,
		Mode:    modeOf(s.cfg.Offload),
		Ticks:   s.ticks,
		Dropped: s.dropped.Load(),
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	}
	for _, p := range s.board.Panels() {
		summary.Algorithms = append(summary.Algorithms, AlgorithmSummary{
			Algorithm: p.ID(),
			Steps:     p.Steps(),
			Compares:  p.Compares(),
			Done:      p.Done(),
			Sorted:    ir.IsSorted(p.Values()),
		})
	}
	s.logger.Info("run finished", "ticks", summary.Ticks, "dropped", summary.Dropped, "elapsed", summary.Elapsed)
	return summary, nil
}

// stepFast steps back to back until every panel is done.
func (s *session) stepFast(ctx context.Context) error {
	for tick := int64(1); !s.board.AllDone(); tick++ {
		batch, err := s.driver.Step(ctx)
		if err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
		if err := s.consume(ctx, tick, batch); err != nil {
			return err
		}
	}
	return nil
}

type tickBatch struct {
	tick  int64
	batch engine.Batch
}

// stepClocked runs the conductor, a stepper and a consumer as one group.
// Ticks that arrive while a step is still being consumed are dropped, as
// are ticks the driver turns away.
func (s *session) stepClocked(ctx context.Context) error {
	condOpts := []conductor.Option{conductor.WithSpeed(s.cfg.Speed), conductor.WithLogger(s.logger)}
	if s.frames != nil {
		condOpts = append(condOpts, conductor.WithFrameSource(s.frames))
	}
	cond, err := conductor.New(condOpts...)
	if err != nil {
		return err
	}

	ticks := make(chan int64, 1)
	unsubscribe := cond.OnTick(func(n int64) {
		select {
		case ticks <- n:
		default:
			s.dropped.Add(1)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan tickBatch)

	g.Go(func() error {
		defer close(ticks)
		defer unsubscribe()
		return cond.Run(gctx)
	})

	g.Go(func() error {
		defer close(batches)
		for n := range ticks {
			batch, ok, err := s.driver.TryStep(gctx)
			if err != nil {
				return fmt.Errorf("tick %d: %w", n, err)
			}
			if !ok {
				s.dropped.Add(1)
				continue
			}
			select {
			case batches <- tickBatch{tick: n, batch: batch}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for tb := range batches {
			if s.board.AllDone() {
				continue
			}
			if err := s.consume(gctx, tb.tick, tb.batch); err != nil {
				return err
			}
			if s.board.AllDone() {
				cond.Stop()
			}
		}
		return nil
	})

	return g.Wait()
}

// consume applies one batch to the board and the recorder.
func (s *session) consume(ctx context.Context, tick int64, batch engine.Batch) error {
	s.ticks = tick
	for _, id := range s.board.Apply(batch) {
		s.logger.Debug("algorithm done", "algorithm", id, "tick", tick)
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, tick, batch); err != nil {
			return err
		}
	}
	return nil
}

func modeOf(offload bool) string {
	if offload {
		return store.ModeOffload
	}
	return store.ModeLocal
}

// RunSummary is the result of a headless run.
type RunSummary struct {
	RunID      string             `json:"run_id,omitempty"`
	Seed       string             `json:"seed"`
	Size       int                `json:"size"`
	Mode       string             `json:"mode"`
	Ticks      int64              `json:"ticks"`
	Dropped    int64              `json:"dropped_ticks"`
	Elapsed    string             `json:"elapsed"`
	Algorithms []AlgorithmSummary `json:"algorithms"`
}

// AlgorithmSummary is one algorithm's line in a RunSummary.
type AlgorithmSummary struct {
	Algorithm ir.AlgorithmID `json:"algorithm"`
	Steps     int            `json:"steps"`
	Compares  int            `json:"compares"`
	Done      bool           `json:"done"`
	Sorted    bool           `json:"sorted"`
}

func (r *RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seed %q, %d values, %s mode\n", r.Seed, r.Size, r.Mode)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Recorded as run %s\n", r.RunID)
	}
	fmt.Fprintln(&b)
	for _, a := range r.Algorithms {
		status := "done"
		if !a.Done {
			status = "running"
		}
		fmt.Fprintf(&b, "  %-15s %6d steps %6d compares  %s\n", a.Algorithm.Title(), a.Steps, a.Compares, status)
	}
	fmt.Fprintf(&b, "\n%d ticks (%d dropped) in %s", r.Ticks, r.Dropped, r.Elapsed)
	return b.String()
}
