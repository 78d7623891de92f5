package stacktrace

import (
	"github.com/roach88/assume/internal/boundary"
)

// Unbounded is the frame limit used when an error declares none.
const Unbounded = -1

// FrameLimiter is implemented by errors that cap their captured frames.
// Negative values mean unbounded.
type FrameLimiter interface {
	StackTraceLimit() int
}

// OriginLocator is implemented by errors that know their precise throw
// site. A non-nil location replaces the call site of the first captured
// frame.
type OriginLocator interface {
	OriginLocation() *boundary.Location
}

// ControlFlowSignal is implemented by errors used purely to transfer
// control (break, return, generator exit). Such errors get an empty capture
// and the stack is never walked for them.
type ControlFlowSignal interface {
	ControlFlowOnly() bool
}

func limitOf(err error) int {
	if fl, ok := err.(FrameLimiter); ok {
		if n := fl.StackTraceLimit(); n >= 0 {
			return n
		}
	}
	return Unbounded
}

func originOf(err error) *boundary.Location {
	if ol, ok := err.(OriginLocator); ok {
		return ol.OriginLocation()
	}
	return nil
}

func isControlFlow(err error) bool {
	cf, ok := err.(ControlFlowSignal)
	return ok && cf.ControlFlowOnly()
}
