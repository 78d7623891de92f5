package engine

import (
	"sync"

	"github.com/google/uuid"
)

// ThreadIDGenerator generates unique thread IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type ThreadIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 thread IDs, so threads
// list in creation order when sorted by ID.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined thread IDs for deterministic tests
// and golden traces.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
// Panics if all IDs have been consumed: the test created more threads
// than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all thread IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
