// Package speculation provides one-way validity flags for optimized code.
//
// A Flag asserts a fact the runtime assumed while specializing a code path
// (a callee stays monomorphic, a global is never reassigned). Hot paths read
// the flag on every execution; any goroutine may invalidate it at any time.
//
// # Guard Protocol
//
// Guard sites call Check (or IsValid) before taking the specialized path:
//
//	if err := flag.Check(); err != nil {
//	    // respecialize once, then continue on the generic path
//	}
//
// InvalidSpeculationError is local to the guard site. It must be handled
// there and never returned to callers that do not expect it.
//
// # Concurrency
//
// The Valid→Invalid transition is a single atomic compare-and-swap. Readers
// never take a lock and never block; writers never wait on readers. Once a
// flag is invalid it stays invalid forever.
package speculation
