package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/lockstep/internal/ir"
)

// GoldenDir holds the harness package's own golden traces.
const GoldenDir = "testdata/golden"

// SnapshotJSON renders result as the canonical golden document: the
// scenario name, the input values and every trace event in order.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	events := make([]any, 0, len(result.Trace))
	for _, ev := range result.Trace {
		ops := make([]any, 0, len(ev.Ops))
		for _, op := range ev.Ops {
			ops = append(ops, op.Canonical())
		}
		events = append(events, map[string]any{
			"tick":      ev.Tick,
			"algorithm": ev.Algorithm,
			"seq":       ev.Seq,
			"ops":       ops,
			"done":      ev.Done,
		})
	}
	values := result.Values
	if values == nil {
		values = []int{}
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"values":        values,
		"trace":         events,
	})
}

// RunWithGolden runs scenario and checks its trace against
// GoldenDir/<name>.golden. Pass -update to rewrite the file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden checks an existing result against the golden file called
// name. Two results may be asserted against one name when their traces
// must be identical.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	doc, err := SnapshotJSON(name, result)
	if err != nil {
		return err
	}
	goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, name, doc)
	return nil
}
