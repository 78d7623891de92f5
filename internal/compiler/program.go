package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/assume/internal/ir"
)

// DefaultEntry is the entry function used when a program names none.
const DefaultEntry = "main"

// CompileProgram parses a CUE value into a Program.
// Uses the CUE SDK's Go API directly.
//
// The value is the program struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src, cue.Filename("orders.cue"))
//	prog, err := CompileProgram(v.LookupPath(cue.ParsePath("program")))
//
// A step without an explicit line takes the line and column of its CUE
// struct, so traces point back into the program source.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "program", Message: "program is required"}
	}

	prog := &ir.Program{Entry: DefaultEntry}

	if pos := v.Pos(); pos.IsValid() {
		prog.Source = pos.Filename()
	}

	name, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	prog.Name = name
	if prog.Name == "" {
		labels := v.Path().Selectors()
		if len(labels) > 0 {
			prog.Name = labels[len(labels)-1].String()
		}
	}
	if prog.Source == "" {
		prog.Source = prog.Name
	}

	entry, err := optionalString(v, "entry")
	if err != nil {
		return nil, err
	}
	if entry != "" {
		prog.Entry = entry
	}

	prog.Flags, err = parseFlags(v)
	if err != nil {
		return nil, err
	}

	prog.Functions, err = parseFunctions(v)
	if err != nil {
		return nil, err
	}

	return prog, nil
}

func parseFlags(v cue.Value) ([]string, error) {
	flagsVal := v.LookupPath(cue.ParsePath("flags"))
	if !flagsVal.Exists() {
		return nil, nil
	}

	iter, err := flagsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var flags []string
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "flags",
				Message: "flag names must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		flags = append(flags, name)
	}
	return flags, nil
}

func parseFunctions(v cue.Value) ([]ir.Function, error) {
	fnsVal := v.LookupPath(cue.ParsePath("functions"))
	if !fnsVal.Exists() {
		return nil, &CompileError{
			Field:   "functions",
			Message: "at least one function is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fnsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fns []ir.Function
	for iter.Next() {
		fn, err := parseFunction(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}

	if len(fns) == 0 {
		return nil, &CompileError{
			Field:   "functions",
			Message: "at least one function is required",
			Pos:     fnsVal.Pos(),
		}
	}
	return fns, nil
}

func parseFunction(name string, v cue.Value) (ir.Function, error) {
	fn := ir.Function{Name: name}

	var err error
	if fn.Internal, err = optionalBool(v, "internal"); err != nil {
		return fn, err
	}
	if fn.Native, err = optionalBool(v, "native"); err != nil {
		return fn, err
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return fn, nil
	}

	iter, err := bodyVal.List()
	if err != nil {
		return fn, formatCUEError(err)
	}
	for iter.Next() {
		step, err := parseStep(iter.Value())
		if err != nil {
			return fn, fmt.Errorf("function %s: %w", name, err)
		}
		fn.Body = append(fn.Body, step)
	}
	return fn, nil
}

func parseStep(v cue.Value) (ir.Step, error) {
	var step ir.Step

	op, err := optionalString(v, "op")
	if err != nil {
		return step, err
	}
	if op == "" {
		return step, &CompileError{Field: "op", Message: "op is required", Pos: v.Pos()}
	}
	step.Op = ir.StepOp(op)
	if !ir.ValidOps[step.Op] {
		return step, &CompileError{
			Field:   "op",
			Message: fmt.Sprintf("unsupported op %q", op),
			Pos:     v.Pos(),
		}
	}

	if step.Line, step.Column, err = stepPosition(v); err != nil {
		return step, err
	}

	if step.Target, err = optionalString(v, "target"); err != nil {
		return step, err
	}
	if step.Message, err = optionalString(v, "message"); err != nil {
		return step, err
	}
	if step.Flag, err = optionalString(v, "flag"); err != nil {
		return step, err
	}
	if step.Reason, err = optionalString(v, "reason"); err != nil {
		return step, err
	}
	if step.ControlFlow, err = optionalBool(v, "control_flow"); err != nil {
		return step, err
	}

	if limitVal := v.LookupPath(cue.ParsePath("limit")); limitVal.Exists() {
		n, err := limitVal.Int64()
		if err != nil {
			return step, &CompileError{Field: "limit", Message: "limit must be an int", Pos: limitVal.Pos()}
		}
		limit := int(n)
		step.Limit = &limit
	}

	if originVal := v.LookupPath(cue.ParsePath("origin")); originVal.Exists() {
		line, err := optionalInt(originVal, "line")
		if err != nil {
			return step, err
		}
		col, err := optionalInt(originVal, "column")
		if err != nil {
			return step, err
		}
		step.Origin = &ir.Position{Line: line, Column: col}
	}

	if argsVal := v.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
		args, err := toIR(argsVal)
		if err != nil {
			return step, err
		}
		arr, ok := args.(ir.IRArray)
		if !ok {
			return step, &CompileError{Field: "args", Message: "args must be a list", Pos: argsVal.Pos()}
		}
		step.Args = arr
	}

	if valueVal := v.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
		if step.Value, err = toIR(valueVal); err != nil {
			return step, err
		}
	}

	if err := requireFields(step, v.Pos()); err != nil {
		return step, err
	}
	return step, nil
}

// requireFields checks the per-op required fields.
func requireFields(step ir.Step, pos token.Pos) error {
	missing := func(field string) error {
		return &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s step requires %s", step.Op, field),
			Pos:     pos,
		}
	}

	switch step.Op {
	case ir.OpCall:
		if step.Target == "" {
			return missing("target")
		}
	case ir.OpWrap:
		if step.Target == "" {
			return missing("target")
		}
		if step.Message == "" {
			return missing("message")
		}
	case ir.OpThrow:
		if step.Message == "" {
			return missing("message")
		}
	case ir.OpGuard, ir.OpInvalidate:
		if step.Flag == "" {
			return missing("flag")
		}
	}
	return nil
}

// stepPosition returns the explicit line/column, falling back to the
// step's position in the CUE source.
func stepPosition(v cue.Value) (int, int, error) {
	line, err := optionalInt(v, "line")
	if err != nil {
		return 0, 0, err
	}
	col, err := optionalInt(v, "column")
	if err != nil {
		return 0, 0, err
	}
	if line == 0 {
		if pos := v.Pos(); pos.IsValid() {
			line = pos.Line()
			if col == 0 {
				col = pos.Column()
			}
		}
	}
	return line, col, nil
}

// toIR converts a concrete CUE value to an IR value. Floats are rejected.
func toIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := toIR(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := toIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "value",
			Message: "float values are not supported, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: field + " must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{Field: field, Message: field + " must be a bool", Pos: fv.Pos()}
	}
	return b, nil
}

func optionalInt(v cue.Value, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{Field: field, Message: field + " must be an int", Pos: fv.Pos()}
	}
	return int(n), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
