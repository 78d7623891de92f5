package testutil

import (
	"fmt"
	"sync"
)

// SequentialThreadIDs generates "<prefix>-1", "<prefix>-2", ... and never
// runs out.
//
// Unlike engine.FixedGenerator, which returns a declared list and panics
// when it is exhausted, this generator suits scenarios that create an
// unknown number of threads but still need byte-identical golden output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialThreadIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialThreadIDs creates a generator. An empty prefix becomes
// "thread".
func NewSequentialThreadIDs(prefix string) *SequentialThreadIDs {
	if prefix == "" {
		prefix = "thread"
	}
	return &SequentialThreadIDs{prefix: prefix}
}

// Generate implements engine.ThreadIDGenerator.
func (g *SequentialThreadIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// Reset restarts numbering at 1.
func (g *SequentialThreadIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
