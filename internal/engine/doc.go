// Package engine implements the assume runtime: the registry of call
// targets and speculation flags, execution threads with their guest frame
// stacks, and the recorder that persists what happened.
//
// ARCHITECTURE:
//
// Threads:
// A Thread is the explicit execution context of one guest computation.
// It owns a strict push/pop frame stack and is the stacktrace.FrameWalker
// for failures raised on it. A Thread is used by one goroutine at a time.
//
// Capture on throw:
// When a target body returns an error the runtime fills in the error's
// stack trace before popping the failing frame, so the innermost frame is
// still live when the walk happens. Outer frames see the chain already
// carries a capture and do nothing.
//
// Single-Writer Recorder:
// Thread starts, captures and invalidations are enqueued as events and
// written to the store by exactly one goroutine running Runtime.Run.
// Guest execution never waits on the store.
//
// Logical Clock:
// Every recorded event is stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
package engine
