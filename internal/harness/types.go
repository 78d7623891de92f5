package harness

import (
	"github.com/roach88/assume/internal/ir"
)

// Trace event types.
const (
	EventInvoke     = "invoke"
	EventInvalidate = "invalidate"
)

// TraceEvent is the observed outcome of one flow step.
type TraceEvent struct {
	Step int    `json:"step"`
	Type string `json:"type"` // "invoke" or "invalidate"

	// invoke
	Target   string           `json:"target,omitempty"`
	Args     ir.IRArray       `json:"args,omitempty"`
	Result   ir.IRValue       `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Captured bool             `json:"captured,omitempty"` // a capture was attached to Error
	Frames   []ir.FrameRecord `json:"frames,omitempty"`

	// invalidate
	Flag   string `json:"flag,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Failed reports whether an invoke step returned an error.
func (e TraceEvent) Failed() bool {
	return e.Error != ""
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// ThreadID is the thread the flow ran on.
	ThreadID string `json:"thread_id"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Assumptions maps each declared flag to whether the assumption
	// taken when the scenario started still holds.
	Assumptions map[string]bool `json:"assumptions"`

	// Respecializations maps each declared flag to its guard
	// respecialization count.
	Respecializations map[string]int `json:"respecializations"`

	// Captures and Invalidations are what the recorder persisted.
	Captures      []ir.CaptureRecord      `json:"captures"`
	Invalidations []ir.InvalidationRecord `json:"invalidations"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:              true,
		Trace:             []TraceEvent{},
		Errors:            []string{},
		Assumptions:       make(map[string]bool),
		Respecializations: make(map[string]int),
		Captures:          []ir.CaptureRecord{},
		Invalidations:     []ir.InvalidationRecord{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
