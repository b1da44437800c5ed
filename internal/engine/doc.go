// Package engine drives lockstep sort engines, either in-process or in a
// dedicated offload goroutine.
//
// ARCHITECTURE:
//
// Drivers:
// Local and Channel both implement Driver. A driver is initialised with one
// input array and a list of algorithms, then advanced one batch per tick.
// A batch carries exactly one StepResult per algorithm.
//
// Offload Host:
// The Host owns the engines of an offloaded session. It processes init and
// step requests from a FIFO queue in a single goroutine, so the engines are
// never touched by anything else. Channel is the client side:
// - at most one step request is in flight; another Step returns ErrBusy
// - Close tears the whole channel down; pending and late responses are dropped
// - engines already done are not stepped again and report {[], true}
//
// Given the same input and the same tick sequence, the results seen through
// a Channel equal those of a Local driver, algorithm by algorithm and step
// by step, up to and including each algorithm's done step.
package engine
