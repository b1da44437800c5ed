package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/lockstep/internal/ir"
)

// marshalValues encodes an int array as canonical JSON.
func marshalValues(values []int) (string, error) {
	if values == nil {
		values = []int{}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

func unmarshalValues(data string) ([]int, error) {
	var values []int
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	if values == nil {
		values = []int{}
	}
	return values, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
