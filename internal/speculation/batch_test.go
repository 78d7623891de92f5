package speculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllValid(t *testing.T) {
	valid := func() *Flag { return New("v") }
	invalid := func() *Flag {
		f := New("i")
		f.Invalidate("")
		return f
	}

	tests := []struct {
		name  string
		flags []*Flag
		want  bool
	}{
		{"nil collection", nil, false},
		{"empty collection", []*Flag{}, true},
		{"single valid", []*Flag{valid()}, true},
		{"single invalid", []*Flag{invalid()}, false},
		{"valid then invalid", []*Flag{valid(), invalid()}, false},
		{"invalid then valid", []*Flag{invalid(), valid()}, false},
		{"nil element", []*Flag{valid(), nil}, false},
		{"all valid", []*Flag{valid(), valid(), valid()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllValid(tt.flags))
		})
	}
}

func TestValid_Single(t *testing.T) {
	assert.False(t, Valid(nil))
	assert.True(t, Valid(New("v")))

	f := New("i")
	f.Invalidate("")
	assert.False(t, Valid(f))
}

func TestAllValid_NoSideEffects(t *testing.T) {
	flags := []*Flag{New("a"), New("b")}

	assert.True(t, AllValid(flags))
	assert.True(t, AllValid(flags))
	for _, f := range flags {
		assert.True(t, f.IsValid())
	}
}
