package compiler

import (
	"fmt"

	"github.com/roach88/assume/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrEntryMissing    = "E201" // entry function not defined
	ErrDuplicateName   = "E202" // duplicate function or flag name
	ErrUnknownTarget   = "E203" // call/wrap names an undefined function
	ErrUnknownFlag     = "E204" // guard/invalidate names an undeclared flag
	ErrNegativeLimit   = "E205" // throw/wrap frame limit below zero
	ErrUnreachableStep = "E206" // step after return or throw
)

// ValidationError represents a program validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program for references and structure the
// CUE schema cannot express. Returns all errors found (does not fail-fast).
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError

	fns := make(map[string]bool)
	for i, fn := range p.Functions {
		if fns[fn.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("functions[%d].name", i),
				Message: fmt.Sprintf("duplicate function name: %q", fn.Name),
				Code:    ErrDuplicateName,
			})
		}
		fns[fn.Name] = true
	}

	flags := make(map[string]bool)
	for i, name := range p.Flags {
		if flags[name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("flags[%d]", i),
				Message: fmt.Sprintf("duplicate flag name: %q", name),
				Code:    ErrDuplicateName,
			})
		}
		flags[name] = true
	}

	if !fns[p.Entry] {
		errs = append(errs, ValidationError{
			Field:   "entry",
			Message: fmt.Sprintf("entry function %q is not defined", p.Entry),
			Code:    ErrEntryMissing,
		})
	}

	for _, fn := range p.Functions {
		errs = append(errs, validateBody(fn, fns, flags)...)
	}

	return errs
}

func validateBody(fn ir.Function, fns, flags map[string]bool) []ValidationError {
	var errs []ValidationError
	terminated, reported := false, false

	for i, step := range fn.Body {
		field := fmt.Sprintf("functions.%s.body[%d]", fn.Name, i)

		if terminated && !reported {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s step is unreachable", step.Op),
				Code:    ErrUnreachableStep,
				Line:    step.Line,
			})
			reported = true
		}

		switch step.Op {
		case ir.OpCall, ir.OpWrap:
			if !fns[step.Target] {
				errs = append(errs, ValidationError{
					Field:   field + ".target",
					Message: fmt.Sprintf("unknown target %q", step.Target),
					Code:    ErrUnknownTarget,
					Line:    step.Line,
				})
			}
		case ir.OpGuard, ir.OpInvalidate:
			if !flags[step.Flag] {
				errs = append(errs, ValidationError{
					Field:   field + ".flag",
					Message: fmt.Sprintf("unknown flag %q", step.Flag),
					Code:    ErrUnknownFlag,
					Line:    step.Line,
				})
			}
		case ir.OpReturn, ir.OpThrow:
			terminated = true
		}

		if step.Limit != nil && *step.Limit < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".limit",
				Message: fmt.Sprintf("frame limit must be >= 0, got %d", *step.Limit),
				Code:    ErrNegativeLimit,
				Line:    step.Line,
			})
		}
	}

	return errs
}
