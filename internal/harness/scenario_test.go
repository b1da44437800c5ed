package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lockstep/internal/ir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "bubble_five.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bubble_five", scenario.Name)
	assert.Equal(t, []int{5, 3, 1, 4, 2}, scenario.Values)
	assert.Equal(t, []ir.AlgorithmID{ir.Bubble}, scenario.Algorithms)
	require.Len(t, scenario.Assertions, 4)

	first := scenario.Assertions[0]
	assert.Equal(t, AssertFirstStep, first.Type)
	require.Len(t, first.Ops, 2)
	assert.True(t, first.Ops[0].Equal(ir.Compare(0, 1)))
	assert.True(t, first.Ops[1].Equal(ir.Swap(0, 1)))
	require.NotNil(t, first.Done)
	assert.False(t, *first.Done)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled key"
values: [1]
algorithms: [bubble]
assertion:
  - type: sorted
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: sorted}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: sorted}]\n",
			want: "description is required",
		},
		{
			name: "no input",
			yaml: "name: n\ndescription: d\nalgorithms: [bubble]\nassertions: [{type: sorted}]\n",
			want: "either values or seed and size is required",
		},
		{
			name: "values and seed",
			yaml: "name: n\ndescription: d\nvalues: [1]\nseed: x\nsize: 4\nalgorithms: [bubble]\nassertions: [{type: sorted}]\n",
			want: "mutually exclusive",
		},
		{
			name: "seed without size",
			yaml: "name: n\ndescription: d\nseed: x\nalgorithms: [bubble]\nassertions: [{type: sorted}]\n",
			want: "size must be positive",
		},
		{
			name: "no algorithms",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: []\nassertions: [{type: sorted}]\n",
			want: "algorithms list is required",
		},
		{
			name: "unknown algorithm",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bogo]\nassertions: [{type: sorted}]\n",
			want: "unknown algorithm",
		},
		{
			name: "duplicate algorithm",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [quick, quick]\nassertions: [{type: sorted}]\n",
			want: "duplicate algorithm",
		},
		{
			name: "bad mode",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nmode: remote\nassertions: [{type: sorted}]\n",
			want: "mode must be",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: []\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: fast}]\n",
			want: `unknown assertion type "fast"`,
		},
		{
			name: "step_count without count",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: step_count, algorithm: bubble}]\n",
			want: "count must be positive",
		},
		{
			name: "first_step without algorithm",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: first_step, ops: []}]\n",
			want: "algorithm is required for first_step",
		},
		{
			name: "assertion on absent algorithm",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: sorted, algorithm: quick}]\n",
			want: "is not in the scenario",
		},
		{
			name: "done_within without ticks",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: done_within}]\n",
			want: "ticks must be positive",
		},
		{
			name: "bad op",
			yaml: "name: n\ndescription: d\nvalues: [1]\nalgorithms: [bubble]\nassertions: [{type: first_step, algorithm: bubble, ops: [{type: swap, i: 0}]}]\n",
			want: `missing field "j"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenario_InitialValues(t *testing.T) {
	s := &Scenario{Values: []int{3, 1}}
	got := s.InitialValues()
	got[0] = 99
	assert.Equal(t, []int{3, 1}, s.Values, "literal values are copied")

	seeded := &Scenario{Seed: "abc", Size: 16}
	assert.Equal(t, seeded.InitialValues(), seeded.InitialValues())
	assert.Len(t, seeded.InitialValues(), 16)
}
