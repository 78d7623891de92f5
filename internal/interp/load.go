package interp

import (
	"fmt"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/engine"
	"github.com/roach88/assume/internal/ir"
)

// Load declares prog's flags on rt and registers each of its functions as
// a call target. Native functions become engine.Native targets.
func Load(rt *engine.Runtime, prog *ir.Program) error {
	for _, name := range prog.Flags {
		rt.DeclareFlag(name)
	}

	native := make(map[string]bool)
	for _, fn := range prog.Functions {
		if fn.Native {
			native[fn.Name] = true
		}
	}

	for _, fn := range prog.Functions {
		var opts []engine.TargetOption
		if fn.Internal {
			opts = append(opts, engine.AsInternal())
		}

		body := compile(prog.Source, fn, native).run

		var target boundary.Target
		if fn.Native {
			target = engine.NewNative(fn.Name, body, opts...)
		} else {
			target = engine.NewFunction(fn.Name, body, opts...)
		}

		if err := rt.Register(target); err != nil {
			return fmt.Errorf("load %s: %w", prog.Name, err)
		}
	}
	return nil
}

// Invoke calls the named function on th from th's current location.
func Invoke(th *engine.Thread, name string, args ...ir.IRValue) (ir.IRValue, error) {
	return th.Call(name, args...)
}

// function is a loaded function body with its call sites resolved.
type function struct {
	name    string
	steps   []ir.Step
	sites   []*boundary.Location
	origins []*boundary.Location // nil where a step has no origin
	native  map[string]bool      // program functions called without a site
}

func compile(source string, fn ir.Function, native map[string]bool) *function {
	f := &function{
		name:    fn.Name,
		native:  native,
		steps:   fn.Body,
		sites:   make([]*boundary.Location, len(fn.Body)),
		origins: make([]*boundary.Location, len(fn.Body)),
	}
	for i, step := range fn.Body {
		f.sites[i] = boundary.NewLocation(source, step.Line, step.Column)
		if step.Origin != nil {
			f.origins[i] = boundary.NewLocation(source, step.Origin.Line, step.Origin.Column)
		}
	}
	return f
}
