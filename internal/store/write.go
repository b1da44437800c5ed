package store

import (
	"context"
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// WriteRun inserts a run and its algorithm list in one transaction and
// assigns run.CreatedSeq. Writing a run id that already exists is a no-op
// and leaves the stored run untouched.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	valuesJSON, err := marshalValues(run.InitialValues)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	for _, id := range run.Algorithms {
		if !id.Valid() {
			return fmt.Errorf("write run: unknown algorithm %q", id)
		}
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.IRVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs`).Scan(&next); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seed, size, initial_values, mode, speed, engine_version, ir_version, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seed,
		run.Size,
		valuesJSON,
		run.Mode,
		run.Speed,
		run.EngineVersion,
		run.IRVersion,
		next,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return tx.Commit()
	}
	run.CreatedSeq = next

	for pos, id := range run.Algorithms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_algorithms (run_id, algorithm, position)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, string(id), pos); err != nil {
			return fmt.Errorf("write run algorithm %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// WriteBatch stores one tick's worth of steps in a single transaction.
// seqs gives the step number of each algorithm in batch. Steps that were
// already recorded are silently ignored.
func (s *Store) WriteBatch(
	ctx context.Context,
	runID string,
	tick int64,
	seqs map[ir.AlgorithmID]int64,
	batch map[ir.AlgorithmID]ir.StepResult,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (run_id, algorithm, seq, tick, ops, done)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, algorithm, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, id := range ir.AllAlgorithms() {
		r, ok := batch[id]
		if !ok {
			continue
		}
		seq, ok := seqs[id]
		if !ok {
			return fmt.Errorf("write batch: no seq for %s", id)
		}
		opsJSON, err := ir.MarshalOps(r.Ops)
		if err != nil {
			return fmt.Errorf("write batch %s seq %d: %w", id, seq, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, string(id), seq, tick, opsJSON, boolToInt(r.Done)); err != nil {
			return fmt.Errorf("write batch %s seq %d: %w", id, seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write batch: commit: %w", err)
	}
	return nil
}
