package speculation

import (
	"fmt"
	"sync/atomic"
)

// Cyclic holds a replaceable flag for an assumption that can be re-made
// after it breaks (e.g. "this global holds its current value").
//
// Invalidate breaks the current generation and installs a fresh valid
// flag. Code specialized against an older generation still sees its own
// flag as invalid.
type Cyclic struct {
	name    string
	current atomic.Pointer[generation]
	opts    []Option
}

// generation pairs a flag with its number so both are swapped together.
type generation struct {
	n    int64
	flag *Flag
}

// NewCyclic creates a cyclic assumption whose first generation is valid.
func NewCyclic(name string, opts ...Option) *Cyclic {
	c := &Cyclic{name: name, opts: opts}
	c.current.Store(c.newGeneration(0))
	return c
}

// Name returns the assumption's base name, without generation suffix.
func (c *Cyclic) Name() string {
	return c.name
}

// Flag returns the current generation's flag.
func (c *Cyclic) Flag() *Flag {
	return c.current.Load().flag
}

// Generation returns the number of completed invalidations.
func (c *Cyclic) Generation() int64 {
	return c.current.Load().n
}

// Invalidate breaks the current generation and installs the next one.
// Concurrent callers racing on the same generation replace it once.
func (c *Cyclic) Invalidate(reason string) {
	old := c.current.Load()
	c.current.CompareAndSwap(old, c.newGeneration(old.n+1))
	old.flag.Invalidate(reason)
}

func (c *Cyclic) newGeneration(n int64) *generation {
	return &generation{n: n, flag: New(fmt.Sprintf("%s#%d", c.name, n), c.opts...)}
}
