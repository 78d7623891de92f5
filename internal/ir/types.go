package ir

// Program is a compiled guest program.
type Program struct {
	Name      string     `json:"name"`
	Source    string     `json:"source"` // file the program was compiled from
	Entry     string     `json:"entry"`
	Flags     []string   `json:"flags,omitempty"`
	Functions []Function `json:"functions"`
}

// Function returns the named function and whether it exists.
func (p *Program) Function(name string) (Function, bool) {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// Function is one callable unit of a guest program.
type Function struct {
	Name string `json:"name"`

	// Internal functions are runtime plumbing. Their frames are captured
	// but do not count against an error's frame limit.
	Internal bool `json:"internal,omitempty"`

	// Native functions run on a backend that only supports ambient
	// call-site resolution (no explicit-location calls).
	Native bool `json:"native,omitempty"`

	Body []Step `json:"body"`
}

// StepOp names a step operation.
type StepOp string

const (
	// OpCall calls Target with Args at (Line, Column).
	OpCall StepOp = "call"
	// OpThrow fails with a guest error.
	OpThrow StepOp = "throw"
	// OpWrap calls Target and wraps any failure in a new guest error.
	OpWrap StepOp = "wrap"
	// OpGuard checks Flag, respecializing if it was invalidated.
	OpGuard StepOp = "guard"
	// OpInvalidate invalidates Flag with Reason.
	OpInvalidate StepOp = "invalidate"
	// OpReturn returns Value.
	OpReturn StepOp = "return"
)

// ValidOps lists the supported step operations.
var ValidOps = map[StepOp]bool{
	OpCall:       true,
	OpThrow:      true,
	OpWrap:       true,
	OpGuard:      true,
	OpInvalidate: true,
	OpReturn:     true,
}

// Step is a single operation in a function body.
type Step struct {
	Op     StepOp `json:"op"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`

	// call, wrap
	Target string  `json:"target,omitempty"`
	Args   IRArray `json:"args,omitempty"`

	// throw, wrap
	Message     string    `json:"message,omitempty"`
	Limit       *int      `json:"limit,omitempty"`
	Origin      *Position `json:"origin,omitempty"`
	ControlFlow bool      `json:"control_flow,omitempty"`

	// guard, invalidate
	Flag   string `json:"flag,omitempty"`
	Reason string `json:"reason,omitempty"`

	// return
	Value IRValue `json:"value,omitempty"`
}

// Position is a line/column pair inside a program source.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// FrameRecord is the persisted form of one captured stack frame.
type FrameRecord struct {
	Target   string `json:"target"`
	Location string `json:"location,omitempty"` // "" when the call site is unknown
	Internal bool   `json:"internal,omitempty"`
}

// ToIR converts the frame to its canonical IR form.
func (f FrameRecord) ToIR() IRObject {
	obj := IRObject{"target": IRString(f.Target)}
	if f.Location != "" {
		obj["location"] = IRString(f.Location)
	}
	if f.Internal {
		obj["internal"] = IRBool(true)
	}
	return obj
}

// ThreadRecord is a persisted execution thread.
type ThreadRecord struct {
	ID             string `json:"id"`
	Program        string `json:"program"`
	Seq            int64  `json:"seq"`
	RuntimeVersion string `json:"runtime_version"`
	IRVersion      string `json:"ir_version"`
}

// CaptureRecord is a persisted stack capture.
type CaptureRecord struct {
	ID       string        `json:"id"` // Content-addressed (CaptureID)
	ThreadID string        `json:"thread_id"`
	Error    string        `json:"error"`
	Frames   []FrameRecord `json:"frames"`
	Seq      int64         `json:"seq"`
}

// InvalidationRecord is a persisted speculation invalidation.
type InvalidationRecord struct {
	Flag   string `json:"flag"`
	Reason string `json:"reason,omitempty"`
	Seq    int64  `json:"seq"`
}
