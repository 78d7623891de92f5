package stacktrace

import (
	"github.com/roach88/assume/internal/boundary"
)

// ErrorOption configures a guest Error.
type ErrorOption func(*Error)

// WithLimit caps the number of non-internal frames captured.
func WithLimit(n int) ErrorOption {
	return func(e *Error) {
		e.limit = n
	}
}

// WithOrigin records the precise throw site.
func WithOrigin(loc *boundary.Location) ErrorOption {
	return func(e *Error) {
		e.origin = loc
	}
}

// AsControlFlow marks the error as a control-flow-only signal.
func AsControlFlow() ErrorOption {
	return func(e *Error) {
		e.controlFlow = true
	}
}

// Error is the runtime's guest error. It carries a capture slot and
// implements every capability interface.
type Error struct {
	msg         string
	cause       error
	limit       int
	origin      *boundary.Location
	controlFlow bool
	slot        Slot
}

// NewError creates a guest error with no cause.
func NewError(msg string, opts ...ErrorOption) *Error {
	return Wrap(nil, msg, opts...)
}

// Wrap creates a guest error caused by cause.
func Wrap(cause error, msg string, opts ...ErrorOption) *Error {
	e := &Error{msg: msg, cause: cause, limit: Unbounded}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Message returns the error's own message without its cause.
func (e *Error) Message() string {
	return e.msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// StackSlot implements Carrier.
func (e *Error) StackSlot() *Slot {
	return &e.slot
}

// StackTraceLimit implements FrameLimiter.
func (e *Error) StackTraceLimit() int {
	return e.limit
}

// OriginLocation implements OriginLocator.
func (e *Error) OriginLocation() *boundary.Location {
	return e.origin
}

// ControlFlowOnly implements ControlFlowSignal.
func (e *Error) ControlFlowOnly() bool {
	return e.controlFlow
}
