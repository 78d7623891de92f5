package ir

// Version constants for IR schema and runtime.
const (
	// IRVersion is the program IR schema version.
	IRVersion = "1"

	// RuntimeVersion is the assume runtime version.
	RuntimeVersion = "0.1.0"
)
