// Package harness runs conformance scenarios against the runtime.
//
// A scenario loads a CUE program, runs a flow of steps on a single thread,
// and checks what actually happened: returned values, error messages,
// captured stack traces, speculation state and the records the recorder
// persisted.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	program: ../programs/orders.cue
//	max_depth: 64             # optional
//	respecialize_limit: 2     # optional
//	flow:
//	  - invoke: place
//	    args: [1, "x"]
//	    expect:
//	      result: {total: 42}
//	  - invalidate: shape
//	    reason: "schema changed"
//	  - invoke: reject
//	    expect:
//	      error: "order rejected"
//	      trace: [fail, check, reject]
//	assertions:
//	  - type: trace_equals
//	    step: 2
//	    frames:
//	      - {target: fail, location: "orders.cue:50:3"}
//	      - {target: check}
//	      - {target: reject}
//	  - type: flag_valid
//	    flag: shape
//	    valid: false
//
// An invoke step without expect must succeed. expect.error requires a
// failure with exactly that message; expect.trace lists the captured frame
// targets innermost first.
//
// # Assertion Types
//
//   - trace_equals: the step's capture has exactly the given frames
//   - trace_absent: the step produced no capture
//   - trace_length: the step's capture has count frames
//   - flag_valid: whether the assumption taken on the flag when the
//     scenario started still holds
//   - respecializations: guard sites respecialized count times on the flag
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory SQLite store with thread IDs
// "thread-1", "thread-2", ... and a logical clock starting at zero, so
// snapshots are byte-identical across runs and can be compared against
// golden files with RunWithGolden.
package harness
