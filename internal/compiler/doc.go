// Package compiler turns guest programs written in CUE into ir.Program
// values and checks them.
//
// A program file looks like:
//
//	program: {
//		name:  "orders"
//		entry: "main"
//		flags: ["shape"]
//		functions: {
//			main: body: [
//				{op: "guard", flag: "shape"},
//				{op: "call", target: "validate", args: [1]},
//				{op: "return", value: {ok: true}},
//			]
//			validate: body: [
//				{op: "throw", message: "bad order", limit: 4},
//			]
//		}
//	}
//
// CompileProgram handles structure and types; Validate checks references
// across functions and flags; AnalyzeRecursion warns about call cycles.
package compiler
