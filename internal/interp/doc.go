// Package interp executes compiled programs on the engine runtime.
//
// Load turns every function of an ir.Program into a runtime target whose
// body walks the function's steps. Each step has a fixed call-site
// Location, created once at load time, so guard sites and captured frames
// keep a stable identity across invocations.
//
// Step semantics:
//
//	call        call target at the step's site
//	wrap        call target; on failure wrap the error in a new guest error
//	throw       fail with a guest error (limit, origin, control_flow honored)
//	guard       check a speculation flag at the step's site
//	invalidate  invalidate a speculation flag
//	return      return value, or the last call's result when value is unset
//
// A function that falls off the end of its body returns null.
package interp
