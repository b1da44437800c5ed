package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bubbleTwo() []StepResult {
	return []StepResult{
		{Ops: []Op{Compare(0, 1), Swap(0, 1), Mark(RoleSorted, 1)}},
		{Ops: []Op{Mark(RoleSorted, 0, 1)}, Done: true},
	}
}

func TestTraceHashDeterminism(t *testing.T) {
	h1, err := TraceHash(Bubble, bubbleTwo())
	require.NoError(t, err)

	h2, err := TraceHash(Bubble, bubbleTwo())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "TraceHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestTraceHashIncludesAlgorithm(t *testing.T) {
	assert.NotEqual(t, MustTraceHash(Bubble, bubbleTwo()), MustTraceHash(Quick, bubbleTwo()))
}

func TestTraceHashChangesWithSteps(t *testing.T) {
	full := MustTraceHash(Bubble, bubbleTwo())
	assert.NotEqual(t, full, MustTraceHash(Bubble, bubbleTwo()[:1]))

	flipped := bubbleTwo()
	flipped[1].Done = false
	assert.NotEqual(t, full, MustTraceHash(Bubble, flipped), "done flag is part of the trace")
}

func TestTraceHashEmptyTrace(t *testing.T) {
	h, err := TraceHash(Insertion, nil)
	require.NoError(t, err)
	assert.Len(t, h, 64)
}

func TestDatasetHash(t *testing.T) {
	assert.Equal(t, DatasetHash([]int{1, 2}), DatasetHash([]int{1, 2}))
	assert.NotEqual(t, DatasetHash([]int{1, 2}), DatasetHash([]int{2, 1}))
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	data := []byte(`[1,2,3]`)
	assert.NotEqual(t, hashWithDomain(DomainTrace, data), hashWithDomain(DomainDataset, data))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "foo" + 0x00 + "bar" differs from "foob" + 0x00 + "ar"
	assert.NotEqual(t, hashWithDomain("foo", []byte("bar")), hashWithDomain("foob", []byte("ar")))
}

func TestHashHexEncoding(t *testing.T) {
	id := MustTraceHash(Selection, bubbleTwo())
	for _, c := range id {
		valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, valid, "Hash should only contain hex characters, got: %c", c)
	}
}
