// Package boundary defines the invocation boundary contract: the unit of
// callable guest code (Target) and the call-site identity (Location) a call
// is made from.
//
// Two call forms exist:
//
//	target.Call(ec, args...)          // call site resolved from ec
//	target.CallAt(ec, loc, args...)   // explicit call site (hot path)
//
// The execution context is passed explicitly; there is no goroutine-local or
// global "current location". A backend that cannot honor an explicit call
// site returns *UnsupportedCallFormError from CallAt rather than silently
// ignoring the location.
//
// Pushing and popping the frames that record each active call belongs to the
// runtime that implements Target (see internal/engine), not to this package.
package boundary
