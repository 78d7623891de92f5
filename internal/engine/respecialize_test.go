package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/speculation"
)

func TestRespecializationTracker_Lifecycle(t *testing.T) {
	tr := NewRespecializationTracker(2)
	c := speculation.NewCyclic("shape")
	site := at(1)

	tests := []struct {
		name       string
		invalidate bool
		want       GuardOutcome
		count      int
	}{
		{"first visit specializes", false, GuardSpeculative, 0},
		{"assumption holds", false, GuardSpeculative, 0},
		{"first break", true, GuardRespecialized, 1},
		{"new generation holds", false, GuardSpeculative, 1},
		{"second break", true, GuardRespecialized, 2},
		{"third break exceeds limit", true, GuardGeneric, 3},
		{"generic is sticky", false, GuardGeneric, 3},
		{"generic ignores breaks", true, GuardGeneric, 3},
	}

	for _, tt := range tests {
		if tt.invalidate {
			c.Invalidate(tt.name)
		}
		outcome, count, err := tr.Guard(site, c)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, outcome, tt.name)
		assert.Equal(t, tt.count, count, tt.name)
	}

	assert.True(t, tr.Generic(site, "shape"))
	assert.Equal(t, 3, tr.Count("shape"))
}

func TestRespecializationTracker_SitesAreIndependent(t *testing.T) {
	tr := NewRespecializationTracker(0)
	c := speculation.NewCyclic("shape")
	hot, cold := at(1), at(2)

	tr.Guard(hot, c)
	c.Invalidate("changed")

	outcome, _, _ := tr.Guard(hot, c)
	assert.Equal(t, GuardGeneric, outcome)

	// cold first visits after the break and specializes on the new generation.
	outcome, _, _ = tr.Guard(cold, c)
	assert.Equal(t, GuardSpeculative, outcome)
	assert.False(t, tr.Generic(cold, "shape"))
}

func TestGuardOutcome_String(t *testing.T) {
	assert.Equal(t, "speculative", GuardSpeculative.String())
	assert.Equal(t, "respecialized", GuardRespecialized.String())
	assert.Equal(t, "generic", GuardGeneric.String())
	assert.Equal(t, "unknown", GuardOutcome(0).String())
}

func TestRuntime_Guard(t *testing.T) {
	rt := newTestRuntime(t, WithRespecializeLimit(1))
	rt.DeclareFlag("monomorphic")

	th := rt.NewThread("prog")
	th.SetLocation(at(8))

	outcome, err := rt.Guard(th, "monomorphic")
	require.NoError(t, err)
	assert.Equal(t, GuardSpeculative, outcome)

	require.NoError(t, rt.Invalidate("monomorphic", "second receiver type"))
	outcome, _ = rt.Guard(th, "monomorphic")
	assert.Equal(t, GuardRespecialized, outcome)

	require.NoError(t, rt.Invalidate("monomorphic", "third receiver type"))
	outcome, _ = rt.Guard(th, "monomorphic")
	assert.Equal(t, GuardGeneric, outcome)

	assert.Equal(t, 2, rt.Respecializations("monomorphic"))
}

func TestRuntime_GuardUnknownFlag(t *testing.T) {
	rt := newTestRuntime(t)

	_, err := rt.Guard(rt.NewThread("prog"), "nope")
	assert.True(t, IsUnknownFlag(err))

	err = rt.Invalidate("nope", "x")
	assert.True(t, IsUnknownFlag(err))
}
