package ir

import "slices"

// Apply replays ops against values in place. Only swap and write mutate;
// compare, mark, unmark and pivot are annotations and are skipped.
//
// Out-of-range indices are a contract violation of the emitting engine and
// panic with the usual index-out-of-range runtime error.
func Apply(values []int, ops []Op) {
	for _, op := range ops {
		switch op.Kind {
		case OpSwap:
			values[op.I], values[op.J] = values[op.J], values[op.I]
		case OpWrite:
			values[op.Index] = op.Value
		}
	}
}

// Replay applies every result, in order, to a copy of initial and returns the copy.
// initial is never modified.
func Replay(initial []int, results []StepResult) []int {
	out := slices.Clone(initial)
	if out == nil {
		out = []int{}
	}
	for _, r := range results {
		Apply(out, r.Ops)
	}
	return out
}

// IsSorted reports whether values is non-decreasing.
func IsSorted(values []int) bool {
	for k := 1; k < len(values); k++ {
		if values[k] < values[k-1] {
			return false
		}
	}
	return true
}

// SameMultiset reports whether a is a permutation of b.
func SameMultiset(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}
