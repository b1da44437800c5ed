// Package harness runs sort scenarios and checks their step traces.
//
// A scenario names an input array, the algorithms to run and how to drive
// them (in-process or offloaded). The harness steps every engine to
// completion, records the batches into an in-memory store, verifies the
// stored logs by replay, and evaluates the scenario's assertions against
// the resulting trace.
//
// # Scenario Format
//
//	name: bubble_five
//	description: "Bubble sort on a small reversed-ish array"
//	values: [5, 3, 1, 4, 2]      # or seed + size
//	algorithms: [bubble]
//	mode: local                  # local | offload
//	assertions:
//	  - type: first_step
//	    algorithm: bubble
//	    ops:
//	      - {type: compare, i: 0, j: 1}
//	      - {type: swap, i: 0, j: 1}
//	    done: false
//	  - type: step_count
//	    algorithm: bubble
//	    count: 10
//	  - type: sorted
//	  - type: done_within
//	    ticks: 10
//
// # Golden Traces
//
// RunWithGolden and AssertGolden compare the canonical JSON trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
