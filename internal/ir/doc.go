// Package ir provides the canonical representation of sorting progress for lockstep.
//
// This package contains the op vocabulary (compare, swap, write, mark, unmark,
// pivot), the StepResult record every step engine returns, algorithm
// identifiers, and the replay helpers that reconstruct an array from an op log.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Ops are append-only and replayable: applying every op, in order, to a
//     copy of the original input reproduces the engine's private array
//   - Only swap and write mutate; every other op kind is pure annotation
//   - Step order is a logical sequence (seq), never wall-clock time
//   - All JSON tags use snake_case
package ir
