package stacktrace

import (
	"strings"

	"github.com/roach88/assume/internal/boundary"
)

// Element is one captured frame: the call site it was executing and the
// target that owns it. Immutable; only this package constructs Elements.
type Element struct {
	location *boundary.Location
	target   boundary.Target
}

// Location returns the frame's call site, or nil when no precise location
// is known.
func (e Element) Location() *boundary.Location {
	return e.location
}

// Target returns the invocation boundary that owns the frame. Never nil.
func (e Element) Target() boundary.Target {
	return e.target
}

// String renders "at name (source:line:col)".
func (e Element) String() string {
	return "at " + e.target.Name() + " (" + e.location.String() + ")"
}

// Trace is an immutable, innermost-first sequence of captured frames.
type Trace struct {
	frames []Element
}

// Len returns the number of frames. An empty trace is not an absent one.
func (t *Trace) Len() int {
	return len(t.frames)
}

// At returns the i-th frame, innermost first.
func (t *Trace) At(i int) Element {
	return t.frames[i]
}

// Frames returns a copy of the frames.
func (t *Trace) Frames() []Element {
	out := make([]Element, len(t.frames))
	copy(out, t.frames)
	return out
}

// Names returns the target name of each frame, innermost first.
func (t *Trace) Names() []string {
	names := make([]string, len(t.frames))
	for i, f := range t.frames {
		names[i] = f.target.Name()
	}
	return names
}

// String renders one "at ..." line per frame.
func (t *Trace) String() string {
	var buf strings.Builder
	for i, f := range t.frames {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(f.String())
	}
	return buf.String()
}
