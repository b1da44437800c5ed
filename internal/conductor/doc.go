// Package conductor provides the shared clock that paces every sort in
// lockstep.
//
// A Conductor turns a stream of rendering frames into a monotonically
// increasing tick count at 10·speed ticks per second. Each frame compares
// the elapsed time since the last accepted tick against the target
// interval; a frame that arrives early waits for the next one and no
// fractional debt is carried. Pausing stops ticks entirely and resuming
// resets the baseline, so there is no catch-up burst.
//
// The Conductor knows nothing about its listeners. Callers subscribe with
// OnTick and decide for themselves whether a tick advances local engines
// or an offloaded batch.
package conductor
