package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"name":  "cart",
		"count": 3,
		"tags":  []any{"a", true},
		"none":  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"name":  IRString("cart"),
		"count": IRInt(3),
		"tags":  IRArray{IRString("a"), IRBool(true)},
		"none":  IRNull{},
	}, v)
}

func TestFromGo_IntegralFloat(t *testing.T) {
	v, err := FromGo(float64(7))
	require.NoError(t, err)
	assert.Equal(t, IRInt(7), v)

	_, err = FromGo(7.5)
	require.Error(t, err)
}

func TestFromGo_Unsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   IRValue
		want string
	}{
		{"null", IRNull{}, "null"},
		{"nil", nil, "null"},
		{"string", IRString("hi"), `"hi"`},
		{"int", IRInt(-3), "-3"},
		{"bool", IRBool(false), "false"},
		{"array", IRArray{IRInt(1), IRInt(2)}, "[1, 2]"},
		{"object", IRObject{"b": IRInt(1), "a": IRString("x")}, `{a: "x", b: 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestIRObject_MarshalJSONSorted(t *testing.T) {
	data, err := json.Marshal(IRObject{"z": IRInt(1), "a": IRArray{IRNull{}}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[null],"z":1}`, string(data))
}

func TestProgram_Function(t *testing.T) {
	p := Program{Functions: []Function{{Name: "main"}, {Name: "helper", Internal: true}}}

	fn, ok := p.Function("helper")
	require.True(t, ok)
	assert.True(t, fn.Internal)

	_, ok = p.Function("missing")
	assert.False(t, ok)
}
