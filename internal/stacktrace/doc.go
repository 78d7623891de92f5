// Package stacktrace builds guest call stacks for failing errors, lazily and
// at most once per causal chain.
//
// # Capture
//
// FillIn walks the live frames of the failing thread, innermost first, and
// attaches the resulting immutable Trace to the error's causal chain (the
// errors.Unwrap chain). It must run on the failing thread while the
// throwing frame is still live; the runtime does this when a target body
// returns an error.
//
// Repeated FillIn calls on the same chain (an error caught, wrapped and
// rethrown by several layers) are no-ops: the first capture wins and is
// never replaced. Racing calls resolve through a single compare-and-swap.
//
// # Storage
//
// The capture lives in an explicit write-once Slot carried by error types
// that implement Carrier. FillIn attaches to the terminal (deepest) carrier
// of the chain, so wrapping an error in new errors later neither moves nor
// duplicates the original capture.
//
// # Capabilities
//
// Errors opt into non-default behavior by implementing small interfaces:
//
//	FrameLimiter       StackTraceLimit() int           default: unbounded
//	OriginLocator      OriginLocation() *Location      default: no override
//	ControlFlowSignal  ControlFlowOnly() bool          default: false
//
// Error implements all of them.
package stacktrace
