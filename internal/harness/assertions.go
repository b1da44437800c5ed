package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/lockstep/internal/ir"
)

// maxTraceLines bounds the trace excerpt printed with an assertion failure.
const maxTraceLines = 12

// AssertionError is returned when an assertion fails.
// It includes the head of the relevant trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, ev := range e.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&buf, "  ... %d more\n", len(e.Trace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&buf, "  [tick %d] %s#%d %s\n", ev.Tick, ev.Algorithm, ev.Seq, formatStep(ev.Result()))
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFirstStep:
		return assertFirstStep(result, a)
	case AssertStepCount:
		return assertStepCount(result, a)
	case AssertSorted:
		return assertSorted(result, a)
	case AssertDoneWithin:
		return assertDoneWithin(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertFirstStep checks the ops of the algorithm's first step and, when
// given, its done flag.
func assertFirstStep(result *Result, a Assertion) error {
	steps := result.Steps(a.Algorithm)
	want := ir.StepResult{Ops: a.Ops}
	if len(steps) == 0 {
		return &AssertionError{
			Type:     AssertFirstStep,
			Expected: fmt.Sprintf("%s first step %s", a.Algorithm, formatStep(want)),
			Actual:   "no steps recorded",
		}
	}

	got := steps[0].Result()
	if a.Done != nil {
		want.Done = *a.Done
	} else {
		want.Done = got.Done
	}
	if !want.Equal(got) {
		return &AssertionError{
			Type:     AssertFirstStep,
			Expected: fmt.Sprintf("%s first step %s", a.Algorithm, formatStep(want)),
			Actual:   formatStep(got),
			Trace:    steps,
		}
	}
	return nil
}

// assertStepCount checks how many steps the algorithm took, done step included.
func assertStepCount(result *Result, a Assertion) error {
	steps := result.Steps(a.Algorithm)
	if len(steps) != a.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%s to take %d steps", a.Algorithm, a.Count),
			Actual:   fmt.Sprintf("%d steps", len(steps)),
			Trace:    steps,
		}
	}
	return nil
}

// assertSorted checks that replaying the trace yields a sorted permutation
// of the input. An empty algorithm checks all of them.
func assertSorted(result *Result, a Assertion) error {
	for _, rep := range result.Replays {
		if a.Algorithm != "" && rep.Algorithm != a.Algorithm {
			continue
		}
		if !rep.Sorted || !rep.Permutation {
			return &AssertionError{
				Type:     AssertSorted,
				Expected: fmt.Sprintf("%s replay to be a sorted permutation of %v", rep.Algorithm, result.Values),
				Actual:   fmt.Sprintf("%v (sorted=%t, permutation=%t)", rep.Final, rep.Sorted, rep.Permutation),
				Trace:    result.Steps(rep.Algorithm),
			}
		}
	}
	if a.Algorithm != "" {
		if _, ok := result.Replay(a.Algorithm); !ok {
			return fmt.Errorf("no replay for %s", a.Algorithm)
		}
	}
	return nil
}

// assertDoneWithin checks the tick at which the last algorithm finished.
func assertDoneWithin(result *Result, a Assertion) error {
	if result.Ticks > a.Ticks {
		return &AssertionError{
			Type:     AssertDoneWithin,
			Expected: fmt.Sprintf("all algorithms done within %d ticks", a.Ticks),
			Actual:   fmt.Sprintf("%d ticks", result.Ticks),
		}
	}
	return nil
}

func formatStep(r ir.StepResult) string {
	parts := make([]string, len(r.Ops))
	for k, op := range r.Ops {
		parts[k] = op.String()
	}
	return fmt.Sprintf("[%s] done=%t", strings.Join(parts, " "), r.Done)
}
