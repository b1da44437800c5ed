package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lockstep/internal/dataset"
	"github.com/roach88/lockstep/internal/ir"
	"github.com/roach88/lockstep/internal/store"
)

// Scenario defines one harness run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Values is the literal input array. Mutually exclusive with Seed/Size.
	Values []int `yaml:"values,omitempty"`

	// Seed and Size generate the input with dataset.Generate.
	Seed string `yaml:"seed,omitempty"`
	Size int    `yaml:"size,omitempty"`

	// Algorithms lists the engines to run, in display order.
	Algorithms []ir.AlgorithmID `yaml:"algorithms"`

	// Mode is "local" (default) or "offload".
	Mode string `yaml:"mode,omitempty"`

	// MaxSteps overrides the driver's step quota. Zero keeps the default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// RunID fixes the recorded run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of the trace.
type Assertion struct {
	// Type is one of first_step, step_count, sorted, done_within.
	Type string `yaml:"type"`

	// Algorithm selects the trace (first_step, step_count, and optionally
	// sorted; an empty algorithm for sorted means all of them).
	Algorithm ir.AlgorithmID `yaml:"algorithm,omitempty"`

	// Ops and Done are the expected first step (first_step).
	Ops  []ir.Op `yaml:"ops,omitempty"`
	Done *bool   `yaml:"done,omitempty"`

	// Count is the expected number of steps including the done step (step_count).
	Count int `yaml:"count,omitempty"`

	// Ticks bounds the driver steps until all algorithms are done (done_within).
	Ticks int64 `yaml:"ticks,omitempty"`
}

// Assertion type constants.
const (
	AssertFirstStep  = "first_step"
	AssertStepCount  = "step_count"
	AssertSorted     = "sorted"
	AssertDoneWithin = "done_within"
)

// InitialValues returns the scenario's input array.
func (s *Scenario) InitialValues() []int {
	if s.Values != nil {
		return slices.Clone(s.Values)
	}
	return dataset.Generate(s.Seed, s.Size)
}

// ModeOrDefault returns the drive mode, defaulting to local.
func (s *Scenario) ModeOrDefault() string {
	if s.Mode == "" {
		return store.ModeLocal
	}
	return s.Mode
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasValues := s.Values != nil
	hasSeed := s.Seed != "" || s.Size != 0
	switch {
	case hasValues && hasSeed:
		return fmt.Errorf("values and seed/size are mutually exclusive")
	case !hasValues && !hasSeed:
		return fmt.Errorf("either values or seed and size is required")
	case hasSeed && s.Seed == "":
		return fmt.Errorf("seed is required with size")
	case hasSeed && s.Size <= 0:
		return fmt.Errorf("size must be positive with seed")
	}

	if len(s.Algorithms) == 0 {
		return fmt.Errorf("algorithms list is required and must be non-empty")
	}
	for i, id := range s.Algorithms {
		if !id.Valid() {
			return fmt.Errorf("algorithms[%d]: unknown algorithm %q", i, id)
		}
		if slices.Index(s.Algorithms, id) != i {
			return fmt.Errorf("algorithms[%d]: duplicate algorithm %q", i, id)
		}
	}

	switch s.Mode {
	case "", store.ModeLocal, store.ModeOffload:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", store.ModeLocal, store.ModeOffload, s.Mode)
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.Algorithms); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, ids []ir.AlgorithmID) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsAlgorithm := func() error {
		if a.Algorithm == "" {
			return fmt.Errorf("assertions[%d]: algorithm is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertFirstStep:
		if err := needsAlgorithm(); err != nil {
			return err
		}
	case AssertStepCount:
		if err := needsAlgorithm(); err != nil {
			return err
		}
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for step_count", index)
		}
	case AssertSorted:
	case AssertDoneWithin:
		if a.Ticks < 1 {
			return fmt.Errorf("assertions[%d]: ticks must be positive for done_within", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Algorithm != "" && !slices.Contains(ids, a.Algorithm) {
		return fmt.Errorf("assertions[%d]: algorithm %q is not in the scenario", index, a.Algorithm)
	}
	return nil
}
