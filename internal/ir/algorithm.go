package ir

import (
	"fmt"
	"strings"
)

// AlgorithmID names one of the hosted sorting algorithms.
type AlgorithmID string

const (
	Bubble    AlgorithmID = "bubble"
	Insertion AlgorithmID = "insertion"
	Selection AlgorithmID = "selection"
	Quick     AlgorithmID = "quick"
)

// AllAlgorithms returns every known algorithm in display order.
func AllAlgorithms() []AlgorithmID {
	return []AlgorithmID{Bubble, Insertion, Selection, Quick}
}

// Valid reports whether id names a known algorithm.
func (id AlgorithmID) Valid() bool {
	switch id {
	case Bubble, Insertion, Selection, Quick:
		return true
	}
	return false
}

// Title returns the human-readable algorithm name.
func (id AlgorithmID) Title() string {
	switch id {
	case Bubble:
		return "Bubble Sort"
	case Insertion:
		return "Insertion Sort"
	case Selection:
		return "Selection Sort"
	case Quick:
		return "Quick Sort"
	}
	return string(id)
}

// ParseAlgorithmID parses a case-insensitive algorithm name.
func ParseAlgorithmID(s string) (AlgorithmID, error) {
	id := AlgorithmID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown algorithm %q (want one of %v)", s, AllAlgorithms())
	}
	return id, nil
}

// ParseAlgorithmIDs parses a list of names, rejecting unknowns and duplicates.
func ParseAlgorithmIDs(names []string) ([]AlgorithmID, error) {
	ids := make([]AlgorithmID, 0, len(names))
	seen := make(map[AlgorithmID]bool, len(names))
	for _, name := range names {
		id, err := ParseAlgorithmID(name)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate algorithm %q", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
