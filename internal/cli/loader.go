package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/assume/internal/compiler"
	"github.com/roach88/assume/internal/ir"
)

// LoadError represents an error that occurred while loading a program.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// Error code constants, shared by all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // CUE package load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Program structure errors
	ErrCodeInvalidOp    = "E101" // Unsupported or missing step op
	ErrCodeStepField    = "E102" // Step field missing or mistyped
	ErrCodeInvalidValue = "E103" // Value, args, limit or position not usable
	ErrCodeNoFunctions  = "E104" // Program or functions missing
	ErrCodeInvalidFlags = "E105" // Flag list malformed
)

// LoadProgram loads a program file or CUE package directory, converting
// failures to LoadErrors.
func LoadProgram(path string) (*ir.Program, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing program: %v", err)}
	}

	prog, err := compiler.LoadProgram(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return prog, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "op":
		return ErrCodeInvalidOp
	case "target", "message", "flag", "reason", "control_flow":
		return ErrCodeStepField
	case "value", "args", "limit", "line", "column":
		return ErrCodeInvalidValue
	case "program", "functions":
		return ErrCodeNoFunctions
	case "flags":
		return ErrCodeInvalidFlags
	default:
		return ErrCodeGeneric
	}
}
