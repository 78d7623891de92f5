// Package ir provides the intermediate representation shared by the runtime.
//
// It holds three families of types:
//   - Guest values (IRValue and its sealed implementations) passed as call
//     arguments and results across invocation boundaries
//   - The program IR produced by the CUE compiler and executed by interp
//   - Persisted records (captured stack traces, invalidations)
//
// All other internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types in guest values - use int64 for numbers
//   - All JSON tags use snake_case
//   - Persisted records are ordered by logical seq, never wall-clock time
package ir
