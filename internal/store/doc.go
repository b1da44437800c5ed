// Package store provides SQLite-backed durable storage for recorded runs.
//
// The store implements an append-only step log with:
//   - Runs: the seed, size, initial array and settings of one session
//   - Run algorithms: which engines took part, in display order
//   - Steps: one row per algorithm per step, holding that step's ops
//
// # Critical Patterns
//
// Step-Level Idempotency
//   - UNIQUE(run_id, algorithm, seq) constraint
//   - Re-recording the same step is silently ignored
//
// Logical Order
//   - Steps are ordered by seq, a gap-free per-algorithm counter starting at 1
//   - tick records the Conductor tick that produced the step, for display only
//   - Runs are listed by created_seq, never by wall-clock time
//
// Canonical Ops
//   - ops and initial_values are stored as RFC 8785 canonical JSON
//   - the same step stream always produces byte-identical rows
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
