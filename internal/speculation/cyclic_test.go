package speculation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCyclic_InvalidateInstallsFreshFlag(t *testing.T) {
	c := NewCyclic("global.x")

	first := c.Flag()
	assert.True(t, first.IsValid())
	assert.Equal(t, "global.x#0", first.Name())
	assert.Equal(t, int64(0), c.Generation())

	c.Invalidate("x reassigned")

	assert.False(t, first.IsValid(), "old generation stays invalid")
	assert.Equal(t, "x reassigned", first.Reason())

	second := c.Flag()
	assert.NotSame(t, first, second)
	assert.True(t, second.IsValid())
	assert.Equal(t, "global.x#1", second.Name())
	assert.Equal(t, int64(1), c.Generation())
}

func TestCyclic_ObserverSeesEachGeneration(t *testing.T) {
	var seen []string
	c := NewCyclic("g", WithObserver(func(inv Invalidation) {
		seen = append(seen, inv.Flag)
	}))

	c.Invalidate("one")
	c.Invalidate("two")

	assert.Equal(t, []string{"g#0", "g#1"}, seen)
}

func TestCyclic_ConcurrentInvalidateNamesUnique(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	c := NewCyclic("shape", WithObserver(func(inv Invalidation) {
		mu.Lock()
		seen[inv.Flag]++
		mu.Unlock()
	}))

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Invalidate("race")
		}()
	}
	wg.Wait()

	for name, count := range seen {
		assert.Equal(t, 1, count, "flag %s invalidated more than once", name)
	}
	gen := c.Generation()
	assert.Len(t, seen, int(gen))
	assert.Equal(t, fmt.Sprintf("shape#%d", gen), c.Flag().Name())
	assert.True(t, c.Flag().IsValid())
}
