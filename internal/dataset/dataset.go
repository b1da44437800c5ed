// Package dataset generates the reproducible input arrays that every sort
// in a session starts from.
package dataset

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Size bounds accepted by configuration. Generate itself accepts any size.
const (
	MinSize     = 16
	MaxSize     = 256
	DefaultSize = 64

	// MaxValue is the largest generated value. Values lie in [1, MaxValue].
	MaxValue = 1000

	// DefaultSeed is the seed used when none is configured.
	DefaultSeed = "sortdemo"
)

// Generate returns size values in [1, MaxValue] derived only from seed.
// The same (seed, size) always yields the same array, and a longer array
// extends a shorter one with the same seed.
func Generate(seed string, size int) []int {
	if size < 0 {
		size = 0
	}
	sum := sha256.Sum256([]byte(seed))
	rng := rand.New(rand.NewChaCha8(sum))

	values := make([]int, size)
	for k := range values {
		values[k] = rng.IntN(MaxValue) + 1
	}
	return values
}

// NewSeed returns a fresh seed derived from the current time.
func NewSeed() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// ValidateSize reports whether size is within [MinSize, MaxSize].
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("size %d out of range (want %d..%d)", size, MinSize, MaxSize)
	}
	return nil
}
