package speculation

import (
	"sync/atomic"
)

// State is the validity state of a Flag.
type State int32

const (
	// StateValid means the assumption still holds.
	StateValid State = iota
	// StateInvalid means the assumption was broken. Terminal.
	StateInvalid
)

// String returns the lowercase state name.
func (s State) String() string {
	if s == StateValid {
		return "valid"
	}
	return "invalid"
}

// Invalidation describes a completed Valid→Invalid transition.
// Delivered to observers registered with WithObserver.
type Invalidation struct {
	Flag   string
	Reason string
}

// Option configures a Flag at construction.
type Option func(*Flag)

// WithObserver registers a callback invoked exactly once, synchronously on
// the invalidating goroutine, after the flag has become invalid.
//
// Observers run outside the hot path. They must not call Invalidate on the
// same flag.
func WithObserver(fn func(Invalidation)) Option {
	return func(f *Flag) {
		f.observers = append(f.observers, fn)
	}
}

// Flag is a speculation assumption.
//
// Thread-safety: all methods are safe for concurrent use.
type Flag struct {
	name      string
	state     atomic.Int32
	reason    atomic.Pointer[string]
	observers []func(Invalidation) // immutable after New
}

// New creates a valid flag with the given debug name.
func New(name string, opts ...Option) *Flag {
	f := &Flag{name: name}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the flag's debug name.
func (f *Flag) Name() string {
	return f.name
}

// IsValid reports whether the assumption still holds. Never fails.
func (f *Flag) IsValid() bool {
	return State(f.state.Load()) == StateValid
}

// State returns the current state.
func (f *Flag) State() State {
	return State(f.state.Load())
}

// Check returns an *InvalidSpeculationError if the flag has been
// invalidated, nil otherwise.
func (f *Flag) Check() error {
	if State(f.state.Load()) == StateValid {
		return nil
	}
	return &InvalidSpeculationError{Flag: f.name, Reason: f.Reason()}
}

// Invalidate transitions the flag to invalid. Calls after the first are
// no-ops; the first reason wins. Never blocks.
//
// Returns true if this call performed the transition.
func (f *Flag) Invalidate(reason string) bool {
	// Publish the reason before the state so a reader that observes Invalid
	// also observes the reason.
	r := reason
	f.reason.CompareAndSwap(nil, &r)
	if !f.state.CompareAndSwap(int32(StateValid), int32(StateInvalid)) {
		return false
	}
	for _, fn := range f.observers {
		fn(Invalidation{Flag: f.name, Reason: f.Reason()})
	}
	return true
}

// Reason returns the invalidation reason, or "" if still valid or none was
// given.
func (f *Flag) Reason() string {
	if p := f.reason.Load(); p != nil {
		return *p
	}
	return ""
}

// String returns "name(state)" for diagnostics.
func (f *Flag) String() string {
	return f.name + "(" + f.State().String() + ")"
}

var (
	alwaysValid = New("always-valid")
	neverValid  = func() *Flag {
		f := New("never-valid")
		f.Invalidate("never valid")
		return f
	}()
)

// AlwaysValid returns a shared flag that is never invalidated by this
// package. Callers must not invalidate it.
func AlwaysValid() *Flag {
	return alwaysValid
}

// NeverValid returns a shared flag that is permanently invalid.
func NeverValid() *Flag {
	return neverValid
}
