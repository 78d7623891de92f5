package boundary

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCallForm matches every *UnsupportedCallFormError.
var ErrUnsupportedCallForm = errors.New("unsupported call form")

// UnsupportedCallFormError is returned by CallAt on a backend that only
// supports ambient call-site resolution. Callers must not retry.
type UnsupportedCallFormError struct {
	Target  string
	Backend string
}

// Error implements the error interface.
func (e *UnsupportedCallFormError) Error() string {
	return fmt.Sprintf("target %s: explicit-location call unsupported by %s backend", e.Target, e.Backend)
}

// Is reports whether target is ErrUnsupportedCallForm.
func (e *UnsupportedCallFormError) Is(target error) bool {
	return target == ErrUnsupportedCallForm
}

// IsUnsupportedCallForm returns true if err is or wraps an
// UnsupportedCallFormError.
func IsUnsupportedCallForm(err error) bool {
	return errors.Is(err, ErrUnsupportedCallForm)
}
