package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTrace   = "lockstep/trace/v1"
	DomainDataset = "lockstep/dataset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TraceHash computes the content-addressed identity of one algorithm's step
// stream. Two runs with the same input and the same engine produce the same
// hash, regardless of whether they were stepped in-process or offloaded.
func TraceHash(id AlgorithmID, results []StepResult) (string, error) {
	steps := make([]any, len(results))
	for k, r := range results {
		steps[k] = r.Canonical()
	}
	canonical, err := MarshalCanonical(map[string]any{
		"algorithm": string(id),
		"steps":     steps,
	})
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// DatasetHash identifies an initial value array.
func DatasetHash(values []int) string {
	canonical, err := MarshalCanonical(values)
	if err != nil {
		// []int always marshals.
		panic(err)
	}
	return hashWithDomain(DomainDataset, canonical)
}

// MustTraceHash is like TraceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTraceHash(id AlgorithmID, results []StepResult) string {
	h, err := TraceHash(id, results)
	if err != nil {
		panic(err)
	}
	return h
}
