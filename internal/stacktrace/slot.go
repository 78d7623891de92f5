package stacktrace

import "sync/atomic"

// Slot is a write-once holder for a Trace. The zero value is empty and
// ready to use. A Slot must not be copied after first use.
type Slot struct {
	trace atomic.Pointer[Trace]
}

// Load returns the attached trace, or nil if none.
func (s *Slot) Load() *Trace {
	return s.trace.Load()
}

// attach stores t if the slot is empty. Returns the trace held after the
// call and whether t was the one stored.
func (s *Slot) attach(t *Trace) (*Trace, bool) {
	if s.trace.CompareAndSwap(nil, t) {
		return t, true
	}
	return s.trace.Load(), false
}

// Carrier is implemented by error types that can hold a capture.
type Carrier interface {
	StackSlot() *Slot
}
