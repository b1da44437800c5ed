package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/engine"
	"github.com/roach88/lockstep/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string, values []int, ids ...ir.AlgorithmID) *Run {
	return &Run{
		ID:            id,
		Seed:          "test-seed",
		Size:          len(values),
		InitialValues: values,
		Mode:          ModeLocal,
		Speed:         2,
		Algorithms:    ids,
	}
}

// recordAll drives d to completion and records every batch.
func recordAll(t *testing.T, s *Store, run *Run, d engine.Driver) *Recorder {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, d.Init(ctx, run.InitialValues, run.Algorithms))
	rec, err := NewRecorder(ctx, s, run, nil)
	require.NoError(t, err)

	for tick := int64(1); tick < 100_000; tick++ {
		batch, err := d.Step(ctx)
		require.NoError(t, err)
		require.NoError(t, rec.Record(ctx, tick, batch))
		if batch.AllDone() {
			return rec
		}
	}
	t.Fatal("driver never finished")
	return nil
}
