package stacktrace

import "github.com/roach88/assume/internal/boundary"

// foreignError gives a capture slot to an error chain that has none, such
// as an errors.New returned by a Go body. It is transparent otherwise:
// same message, and the wrapped chain stays reachable through Unwrap.
type foreignError struct {
	err  error
	slot Slot
}

// Carry returns err unchanged if its chain can hold a capture, and
// otherwise wraps it once in a carrier. A nil err stays nil.
func Carry(err error) error {
	if err == nil || terminalSlot(err) != nil {
		return err
	}
	return &foreignError{err: err}
}

func (e *foreignError) Error() string    { return e.err.Error() }
func (e *foreignError) Unwrap() error    { return e.err }
func (e *foreignError) StackSlot() *Slot { return &e.slot }

func (e *foreignError) StackTraceLimit() int {
	return limitOf(e.err)
}

func (e *foreignError) OriginLocation() *boundary.Location {
	return originOf(e.err)
}

func (e *foreignError) ControlFlowOnly() bool {
	return isControlFlow(e.err)
}
