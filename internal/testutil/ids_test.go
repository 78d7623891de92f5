package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialThreadIDs(t *testing.T) {
	gen := NewSequentialThreadIDs("t")

	assert.Equal(t, "t-1", gen.Generate())
	assert.Equal(t, "t-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "t-1", gen.Generate())
}

func TestSequentialThreadIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "thread-1", NewSequentialThreadIDs("").Generate())
}

func TestSequentialThreadIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialThreadIDs("t")
	const n = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id := gen.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n, "every ID is unique")
}
