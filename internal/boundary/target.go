package boundary

import (
	"fmt"

	"github.com/roach88/assume/internal/ir"
)

// Location identifies a call site inside guest source.
// Locations are compared by pointer identity when used as map keys; String
// is for display only.
type Location struct {
	Source string // program source file or name
	Line   int
	Column int
}

// NewLocation creates a call-site identity.
func NewLocation(source string, line, column int) *Location {
	return &Location{Source: source, Line: line, Column: column}
}

// String renders "source:line:column", omitting a zero column.
func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.Source, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.Source, l.Line)
}

// Context is the execution context a call runs in.
type Context interface {
	// CurrentLocation returns the call site the context is currently
	// executing, or nil if none is known.
	CurrentLocation() *Location
}

// Target is one invocable unit of guest code.
//
// Implementations are identities: two calls to the same Target value
// dispatch to the same unit, and a Target is safe to use as a map key.
type Target interface {
	// Name returns the target's stable debug name.
	Name() string

	// Internal reports whether the target is runtime plumbing rather than
	// user-visible code.
	Internal() bool

	// Call resolves the call site from ec and invokes the target.
	Call(ec Context, args ...ir.IRValue) (ir.IRValue, error)

	// CallAt invokes the target from an explicit call site.
	// Returns *UnsupportedCallFormError if the backend cannot honor loc.
	CallAt(ec Context, loc *Location, args ...ir.IRValue) (ir.IRValue, error)
}
