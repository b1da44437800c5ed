package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// ReadRun returns a run with its algorithms in display order.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seed, size, initial_values, mode, speed, engine_version, ir_version, created_seq
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}

	run.Algorithms, err = s.readRunAlgorithms(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run, oldest first.
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, size, initial_values, mode, speed, engine_version, ir_version, created_seq
		FROM runs
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for k := range runs {
		runs[k].Algorithms, err = s.readRunAlgorithms(ctx, runs[k].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// ReadSteps returns the recorded steps of one algorithm in seq order.
// Returns an empty slice (not nil) if none were recorded.
func (s *Store) ReadSteps(ctx context.Context, runID string, id ir.AlgorithmID) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, algorithm, seq, tick, ops, done
		FROM steps
		WHERE run_id = ? AND algorithm = ?
		ORDER BY seq ASC
	`, runID, string(id))
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []StepRecord{}
	for rows.Next() {
		var (
			rec       StepRecord
			algorithm string
			opsJSON   string
			done      int
		)
		if err := rows.Scan(&rec.RunID, &algorithm, &rec.Seq, &rec.Tick, &opsJSON, &done); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		rec.Algorithm = ir.AlgorithmID(algorithm)
		rec.Done = done == 1
		if rec.Ops, err = ir.UnmarshalOps(opsJSON); err != nil {
			return nil, fmt.Errorf("step %s/%d: %w", algorithm, rec.Seq, err)
		}
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// CountSteps returns the number of recorded steps per algorithm.
func (s *Store) CountSteps(ctx context.Context, runID string) (map[ir.AlgorithmID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT algorithm, COUNT(*)
		FROM steps
		WHERE run_id = ?
		GROUP BY algorithm
		ORDER BY algorithm COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count steps: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.AlgorithmID]int)
	for rows.Next() {
		var algorithm string
		var n int
		if err := rows.Scan(&algorithm, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[ir.AlgorithmID(algorithm)] = n
	}
	return counts, rows.Err()
}

func (s *Store) readRunAlgorithms(ctx context.Context, runID string) ([]ir.AlgorithmID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT algorithm FROM run_algorithms
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run algorithms: %w", err)
	}
	defer rows.Close()

	ids := []ir.AlgorithmID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run algorithm: %w", err)
		}
		ids = append(ids, ir.AlgorithmID(id))
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		valuesJSON string
	)
	if err := row.Scan(
		&run.ID,
		&run.Seed,
		&run.Size,
		&valuesJSON,
		&run.Mode,
		&run.Speed,
		&run.EngineVersion,
		&run.IRVersion,
		&run.CreatedSeq,
	); err != nil {
		return Run{}, err
	}
	values, err := unmarshalValues(valuesJSON)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.InitialValues = values
	return run, nil
}
