package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/lockstep/internal/ir"
)

// Recorder turns a driver's batch stream into gap-free step logs.
//
// Each algorithm is recorded up to and including its done step. Results
// after that (the offloaded {[], true} stand-in or an engine's terminal
// repeat) are dropped, so every stored log has seqs 1..n with exactly one
// done step at n.
//
// Thread-safety: a Recorder must be used from one goroutine.
type Recorder struct {
	store  *Store
	runID  string
	seqs   map[ir.AlgorithmID]int64
	done   map[ir.AlgorithmID]bool
	logger *slog.Logger
}

// NewRecorder writes run and returns a recorder for its steps.
func NewRecorder(ctx context.Context, s *Store, run *Run, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := s.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	logger.Info("recording run", "run_id", run.ID, "seed", run.Seed, "size", run.Size, "mode", run.Mode)
	return &Recorder{
		store:  s,
		runID:  run.ID,
		seqs:   make(map[ir.AlgorithmID]int64),
		done:   make(map[ir.AlgorithmID]bool),
		logger: logger,
	}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Record stores the live part of one batch under tick.
func (r *Recorder) Record(ctx context.Context, tick int64, batch map[ir.AlgorithmID]ir.StepResult) error {
	live := make(map[ir.AlgorithmID]ir.StepResult, len(batch))
	seqs := make(map[ir.AlgorithmID]int64, len(batch))
	for id, res := range batch {
		if r.done[id] {
			continue
		}
		live[id] = res
		seqs[id] = r.seqs[id] + 1
	}
	if len(live) == 0 {
		return nil
	}

	if err := r.store.WriteBatch(ctx, r.runID, tick, seqs, live); err != nil {
		return fmt.Errorf("record tick %d: %w", tick, err)
	}
	for id, res := range live {
		r.seqs[id] = seqs[id]
		if res.Done {
			r.done[id] = true
			r.logger.Debug("algorithm done", "run_id", r.runID, "algorithm", id, "steps", seqs[id])
		}
	}
	return nil
}

// Steps returns how many steps have been recorded for id.
func (r *Recorder) Steps(id ir.AlgorithmID) int64 {
	return r.seqs[id]
}
