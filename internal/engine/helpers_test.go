package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/stacktrace"
	"github.com/roach88/assume/internal/store"
	"github.com/roach88/assume/internal/testutil"
)

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{
		WithLogger(testutil.DiscardLogger()),
		WithThreadIDGenerator(testutil.NewSequentialThreadIDs("thread")),
	}
	return New(append(base, opts...)...)
}

// openStore opens a recorder store in a temp dir, closed when the test ends.
func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "recorder.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func at(line int) *boundary.Location {
	return boundary.NewLocation("prog", line, 1)
}

// register adds targets or fails the test.
func register(t *testing.T, rt *Runtime, targets ...boundary.Target) {
	t.Helper()
	for _, target := range targets {
		if err := rt.Register(target); err != nil {
			t.Fatalf("Register(%s): %v", target.Name(), err)
		}
	}
}

// caller returns a body that moves to loc and calls next.
func caller(loc *boundary.Location, next string) Body {
	return func(th *Thread, args []ir.IRValue) (ir.IRValue, error) {
		th.SetLocation(loc)
		return th.Call(next, args...)
	}
}

// thrower returns a body that moves to loc and fails with err.
func thrower(loc *boundary.Location, err error) Body {
	return func(th *Thread, args []ir.IRValue) (ir.IRValue, error) {
		th.SetLocation(loc)
		return nil, err
	}
}

func locations(trace *stacktrace.Trace) []*boundary.Location {
	locs := make([]*boundary.Location, trace.Len())
	for i := range locs {
		locs[i] = trace.At(i).Location()
	}
	return locs
}
