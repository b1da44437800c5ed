package engine

import (
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator names a recorded run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 ids, which sort by creation time.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a fixed list of ids, one per call. Running off
// the end panics: a test recorded more runs than it declared.
type FixedGenerator struct {
	mu   sync.Mutex
	next []string
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{next: ids}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.next) == 0 {
		panic("engine: fixed run ids exhausted")
	}
	id := g.next[0]
	g.next = g.next[1:]
	return id
}
