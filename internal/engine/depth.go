package engine

import (
	"fmt"

	"github.com/roach88/assume/internal/stacktrace"
)

// DefaultMaxDepth is the default maximum guest frame depth per thread.
const DefaultMaxDepth = 256

// overflowTraceLimit caps the frames captured for a stack overflow; the
// full stack is DefaultMaxDepth frames of the same few targets.
const overflowTraceLimit = 32

// StackOverflowError is returned when a call would push a thread past its
// max depth. It is a guest-visible failure: it carries a stack capture
// like any error thrown by guest code.
type StackOverflowError struct {
	ThreadID string // The thread that overflowed
	Target   string // The target whose call was refused
	Depth    int    // Depth at the refused call
	Limit    int    // Maximum allowed depth

	slot stacktrace.Slot
}

// Error implements the error interface.
func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("thread %s: stack overflow calling %s: depth %d reached limit %d",
		e.ThreadID, e.Target, e.Depth, e.Limit)
}

// StackSlot implements stacktrace.Carrier.
func (e *StackOverflowError) StackSlot() *stacktrace.Slot {
	return &e.slot
}

// StackTraceLimit implements stacktrace.FrameLimiter.
func (e *StackOverflowError) StackTraceLimit() int {
	return overflowTraceLimit
}

// RuntimeError converts the overflow to its RuntimeError form for callers
// that switch on codes.
func (e *StackOverflowError) RuntimeError() *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeStackOverflow,
		Message:  fmt.Sprintf("max depth %d reached", e.Limit),
		ThreadID: e.ThreadID,
		Target:   e.Target,
		Details: map[string]string{
			"depth": fmt.Sprintf("%d", e.Depth),
			"limit": fmt.Sprintf("%d", e.Limit),
		},
	}
}
