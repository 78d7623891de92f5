package stacktrace

import (
	"errors"

	"github.com/roach88/assume/internal/boundary"
)

// FrameRef is one live invocation frame as exposed by the runtime.
type FrameRef interface {
	// CallSite returns the call site the frame is executing, or nil.
	CallSite() *boundary.Location
	// Target returns the target that owns the frame.
	Target() boundary.Target
}

// FrameWalker enumerates the live frames of the current thread.
type FrameWalker interface {
	// WalkFrames calls visit for each live frame, innermost first, and
	// stops early when visit returns false.
	WalkFrames(visit func(FrameRef) bool)
}

// FillIn captures the live stack for err and attaches it to err's causal
// chain, unless a capture is already attached somewhere in the chain.
//
// Returns the capture held by the chain after the call, or nil if err is
// nil or no node of the chain can carry a capture. Never fails.
func FillIn(w FrameWalker, err error) *Trace {
	t, _ := Capture(w, err)
	return t
}

// Capture is FillIn that also reports whether this call attached the
// capture (false when an earlier or racing call won).
func Capture(w FrameWalker, err error) (*Trace, bool) {
	if err == nil {
		return nil, false
	}
	if t, ok := Find(err); ok {
		return t, false
	}

	slot := terminalSlot(err)
	if slot == nil {
		return nil, false
	}

	if isControlFlow(err) {
		return slot.attach(&Trace{})
	}

	frames := walk(w, limitOf(err), originOf(err))
	return slot.attach(&Trace{frames: frames})
}

// Find returns the capture attached anywhere in err's causal chain.
// (nil, false) means no capture was ever filled in; an empty capture is
// returned as a non-nil Trace with Len() == 0.
func Find(err error) (*Trace, bool) {
	for e := err; e != nil; e = next(e) {
		c, ok := e.(Carrier)
		if !ok {
			continue
		}
		if slot := c.StackSlot(); slot != nil {
			if t := slot.Load(); t != nil {
				return t, true
			}
		}
	}
	return nil, false
}

// GetStackTrace is Find without the boolean: nil means absent.
func GetStackTrace(err error) *Trace {
	t, _ := Find(err)
	return t
}

// terminalSlot returns the slot of the deepest carrier in the chain.
func terminalSlot(err error) *Slot {
	var slot *Slot
	for e := err; e != nil; e = next(e) {
		if c, ok := e.(Carrier); ok {
			if s := c.StackSlot(); s != nil {
				slot = s
			}
		}
	}
	return slot
}

// next follows one causal link. Multi-cause errors (errors.Join) continue
// through their first cause.
func next(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range multi.Unwrap() {
			if inner != nil {
				return inner
			}
		}
	}
	return nil
}

// walk records frames innermost first until limit non-internal frames have
// been recorded. Internal frames are recorded but not counted.
func walk(w FrameWalker, limit int, origin *boundary.Location) []Element {
	if w == nil || limit == 0 {
		return nil
	}

	var frames []Element
	counted := 0
	w.WalkFrames(func(f FrameRef) bool {
		loc, target, internal, ok := inspect(f)
		if !ok {
			return true
		}
		if len(frames) == 0 && origin != nil {
			loc = origin
		}
		frames = append(frames, Element{location: loc, target: target})
		if !internal {
			counted++
		}
		return limit < 0 || counted < limit
	})
	return frames
}

// inspect reads a frame defensively. A frame whose target cannot be read is
// skipped (ok=false); a call site that cannot be read is reported as nil.
func inspect(f FrameRef) (loc *boundary.Location, target boundary.Target, internal bool, ok bool) {
	if f == nil {
		return nil, nil, false, false
	}

	func() {
		defer func() {
			if recover() != nil {
				target = nil
			}
		}()
		target = f.Target()
		if target != nil {
			internal = target.Internal()
		}
	}()
	if target == nil {
		return nil, nil, false, false
	}

	func() {
		defer func() {
			if recover() != nil {
				loc = nil
			}
		}()
		loc = f.CallSite()
	}()

	return loc, target, internal, true
}
