package speculation

import (
	"errors"
	"fmt"
)

// ErrInvalidSpeculation matches every *InvalidSpeculationError via errors.Is.
var ErrInvalidSpeculation = errors.New("invalid speculation")

// InvalidSpeculationError is returned by Check on an invalidated flag.
type InvalidSpeculationError struct {
	Flag   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidSpeculationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid speculation %q: %s", e.Flag, e.Reason)
	}
	return fmt.Sprintf("invalid speculation %q", e.Flag)
}

// Is reports whether target is ErrInvalidSpeculation.
func (e *InvalidSpeculationError) Is(target error) bool {
	return target == ErrInvalidSpeculation
}

// IsInvalidSpeculation returns true if err is or wraps an invalid
// speculation failure.
func IsInvalidSpeculation(err error) bool {
	return errors.Is(err, ErrInvalidSpeculation)
}
