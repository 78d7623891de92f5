package interp

import (
	"fmt"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/engine"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/stacktrace"
)

// run is the engine.Body of a loaded function.
func (f *function) run(th *engine.Thread, args []ir.IRValue) (ir.IRValue, error) {
	var last ir.IRValue = ir.IRNull{}

	for i, step := range f.steps {
		site := f.sites[i]

		switch step.Op {
		case ir.OpCall:
			result, err := f.call(th, step, site)
			if err != nil {
				return nil, err
			}
			last = result

		case ir.OpWrap:
			result, err := f.call(th, step, site)
			if err != nil {
				return nil, stacktrace.Wrap(err, step.Message, f.errorOptions(i)...)
			}
			last = result

		case ir.OpThrow:
			th.SetLocation(site)
			return nil, stacktrace.NewError(step.Message, f.errorOptions(i)...)

		case ir.OpGuard:
			// Every outcome runs the same steps; the guard's value is the
			// outcome name, so a following bare return reports it.
			th.SetLocation(site)
			outcome, err := th.Runtime().Guard(th, step.Flag)
			if err != nil {
				return nil, err
			}
			last = ir.IRString(outcome.String())

		case ir.OpInvalidate:
			th.SetLocation(site)
			if err := th.Runtime().Invalidate(step.Flag, step.Reason); err != nil {
				return nil, err
			}

		case ir.OpReturn:
			if step.Value != nil {
				return step.Value, nil
			}
			return last, nil

		default:
			return nil, fmt.Errorf("function %s: step %d: unsupported op %q", f.name, i, step.Op)
		}
	}

	return ir.IRNull{}, nil
}

// call invokes the step's target from site. Native targets in the
// program take no explicit site, so the thread's location is moved to
// site and they are called from there. Errors pass through unchanged.
func (f *function) call(th *engine.Thread, step ir.Step, site *boundary.Location) (ir.IRValue, error) {
	args := []ir.IRValue(step.Args)

	if f.native[step.Target] {
		th.SetLocation(site)
		return th.Call(step.Target, args...)
	}
	return th.CallAt(step.Target, site, args...)
}

func (f *function) errorOptions(i int) []stacktrace.ErrorOption {
	step := f.steps[i]

	var opts []stacktrace.ErrorOption
	if step.Limit != nil {
		opts = append(opts, stacktrace.WithLimit(*step.Limit))
	}
	if origin := f.origins[i]; origin != nil {
		opts = append(opts, stacktrace.WithOrigin(origin))
	}
	if step.ControlFlow {
		opts = append(opts, stacktrace.AsControlFlow())
	}
	return opts
}
