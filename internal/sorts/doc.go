// Package sorts implements resumable, single-step sorting engines.
//
// Each engine owns a private copy of its input and keeps its progress as
// plain data (indices, a phase, an explicit frame stack for quicksort), so a
// caller can advance it exactly one unit of visible work at a time and stop
// at any point. There is no function that sorts in one call.
//
// Every Step returns the ops that describe what happened. Replaying those
// ops, in order, against a copy of the original input reproduces the
// engine's private array after every step. Once an engine reports Done it
// keeps returning {[mark(all, sorted)], true} and never mutates again.
package sorts
