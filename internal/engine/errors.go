package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the runtime itself rather
// than raised by guest code.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ThreadID identifies the affected thread, if any.
	ThreadID string

	// Target names the call target or flag involved.
	Target string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStackOverflow indicates a thread exceeded its max depth.
	ErrCodeStackOverflow RuntimeErrorCode = "STACK_OVERFLOW"

	// ErrCodeUnknownTarget indicates a call named an unregistered target.
	ErrCodeUnknownTarget RuntimeErrorCode = "UNKNOWN_TARGET"

	// ErrCodeUnknownFlag indicates a guard or invalidation named an
	// undeclared speculation flag.
	ErrCodeUnknownFlag RuntimeErrorCode = "UNKNOWN_FLAG"

	// ErrCodeDuplicateTarget indicates two targets share a name.
	ErrCodeDuplicateTarget RuntimeErrorCode = "DUPLICATE_TARGET"

	// ErrCodeRespecializationLimit indicates a guard site stopped
	// speculating after too many invalidations.
	ErrCodeRespecializationLimit RuntimeErrorCode = "RESPECIALIZATION_LIMIT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.ThreadID != "" && e.Target != "" {
		return fmt.Sprintf("%s: %s (thread=%s, target=%s)", e.Code, e.Message, e.ThreadID, e.Target)
	}
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (target=%s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownTarget returns true if err is an UNKNOWN_TARGET runtime error.
func IsUnknownTarget(err error) bool {
	return hasCode(err, ErrCodeUnknownTarget)
}

// IsUnknownFlag returns true if err is an UNKNOWN_FLAG runtime error.
func IsUnknownFlag(err error) bool {
	return hasCode(err, ErrCodeUnknownFlag)
}

// IsStackOverflow returns true if err is a StackOverflowError or a
// STACK_OVERFLOW runtime error. Uses errors.As to handle wrapped errors.
func IsStackOverflow(err error) bool {
	var so *StackOverflowError
	if errors.As(err, &so) {
		return true
	}
	return hasCode(err, ErrCodeStackOverflow)
}

// NewUnknownTargetError creates a RuntimeError for an unregistered target.
func NewUnknownTargetError(threadID, name string) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeUnknownTarget,
		Message:  "no target registered with this name",
		ThreadID: threadID,
		Target:   name,
	}
}

// NewUnknownFlagError creates a RuntimeError for an undeclared flag.
func NewUnknownFlagError(name string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownFlag,
		Message: "no speculation flag declared with this name",
		Target:  name,
	}
}

// NewRespecializationLimitError describes a guard site that went generic.
func NewRespecializationLimitError(site, flag string, count, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRespecializationLimit,
		Message: fmt.Sprintf("guard site respecialized too often (%d > %d)", count, limit),
		Target:  flag,
		Details: map[string]string{
			"site":  site,
			"count": fmt.Sprintf("%d", count),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}
