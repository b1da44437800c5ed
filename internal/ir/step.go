package ir

import (
	"encoding/json"
	"fmt"
)

// StepResult is everything that happened during exactly one step.
//
// Done=true means the engine has reached its final, fully sorted state.
// Engines keep returning an equivalent terminal result on later calls.
type StepResult struct {
	Ops  []Op `json:"ops"`
	Done bool `json:"done"`
}

// Terminal returns the synthetic {[], true} result used for engines that
// already reported done and are no longer invoked.
func Terminal() StepResult {
	return StepResult{Ops: []Op{}, Done: true}
}

// Compares counts compare ops in the result.
func (r StepResult) Compares() int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == OpCompare {
			n++
		}
	}
	return n
}

// Equal reports whether two results carry the same ops and done flag.
func (r StepResult) Equal(other StepResult) bool {
	if r.Done != other.Done || len(r.Ops) != len(other.Ops) {
		return false
	}
	for k := range r.Ops {
		if !r.Ops[k].Equal(other.Ops[k]) {
			return false
		}
	}
	return true
}

// Canonical returns the result as a map suitable for MarshalCanonical.
func (r StepResult) Canonical() map[string]any {
	ops := make([]any, len(r.Ops))
	for k, op := range r.Ops {
		ops[k] = op.Canonical()
	}
	return map[string]any{"ops": ops, "done": r.Done}
}

// MarshalOps encodes an op list as canonical JSON text for storage.
func MarshalOps(ops []Op) (string, error) {
	list := make([]any, len(ops))
	for k, op := range ops {
		list[k] = op.Canonical()
	}
	data, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal ops: %w", err)
	}
	return string(data), nil
}

// UnmarshalOps decodes an op list produced by MarshalOps.
func UnmarshalOps(data string) ([]Op, error) {
	if data == "" || data == "[]" {
		return []Op{}, nil
	}
	var ops []Op
	if err := json.Unmarshal([]byte(data), &ops); err != nil {
		return nil, fmt.Errorf("unmarshal ops: %w", err)
	}
	return ops, nil
}
