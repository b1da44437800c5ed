package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFrames_StartsAtEpoch(t *testing.T) {
	f := NewManualFrames(time.Time{})
	assert.Equal(t, Epoch, f.Now())
}

func TestManualFrames_AdvanceDelivers(t *testing.T) {
	f := NewManualFrames(Epoch)
	got := make(chan time.Time, 1)
	go func() { got <- <-f.Frames() }()

	assert.True(t, f.Advance(50*time.Millisecond))
	assert.Equal(t, Epoch.Add(50*time.Millisecond), <-got)
	assert.Equal(t, Epoch.Add(50*time.Millisecond), f.Now())
}

func TestManualFrames_AdvanceAfterStop(t *testing.T) {
	f := NewManualFrames(Epoch)
	f.Stop()
	f.Stop()

	assert.True(t, f.Stopped())
	assert.False(t, f.Advance(time.Millisecond), "nobody is receiving after stop")
}

func TestFixedRunIDGenerator(t *testing.T) {
	assert.Equal(t, "run-1", NewFixedRunIDGenerator("run-1").Generate())
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}
