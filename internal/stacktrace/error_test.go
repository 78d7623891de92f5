package stacktrace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/assume/internal/boundary"
)

func TestError_Defaults(t *testing.T) {
	err := NewError("boom")

	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, Unbounded, err.StackTraceLimit())
	assert.Nil(t, err.OriginLocation())
	assert.False(t, err.ControlFlowOnly())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, Unbounded, limitOf(err))
}

func TestError_Options(t *testing.T) {
	origin := boundary.NewLocation("p", 1, 2)
	err := NewError("x", WithLimit(4), WithOrigin(origin), AsControlFlow())

	assert.Equal(t, 4, limitOf(err))
	assert.Same(t, origin, originOf(err))
	assert.True(t, isControlFlow(err))
}

func TestError_WrapMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, "write failed")

	assert.Equal(t, "write failed: disk full", err.Error())
	assert.Equal(t, "write failed", err.Message())
	assert.ErrorIs(t, err, cause)
}

func TestCapabilities_DefaultsForPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	assert.Equal(t, Unbounded, limitOf(plain))
	assert.Nil(t, originOf(plain))
	assert.False(t, isControlFlow(plain))
}

func TestTrace_StringAndFrames(t *testing.T) {
	trace := FillIn(stackOf("b", "a"), NewError("boom"))

	assert.Equal(t, "at b (prog:2:1)\nat a (prog:1:1)", trace.String())

	frames := trace.Frames()
	frames[0] = Element{}
	assert.Equal(t, "b", trace.At(0).Target().Name(), "Frames returns a copy")
}
