package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/assume/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventInvoke:
				fmt.Fprintf(&buf, "  [%d] invoke %s", event.Step, event.Target)
				if event.Failed() {
					fmt.Fprintf(&buf, " -> %s", event.Error)
				}
				buf.WriteByte('\n')
				for _, f := range event.Frames {
					fmt.Fprintf(&buf, "        at %s\n", formatFrame(f))
				}
			case EventInvalidate:
				fmt.Fprintf(&buf, "  [%d] invalidate %s\n", event.Step, event.Flag)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceEquals:
		return assertTraceEquals(result.Trace, a)
	case AssertTraceAbsent:
		return assertTraceAbsent(result.Trace, a)
	case AssertTraceLength:
		return assertTraceLength(result.Trace, a)
	case AssertFlagValid:
		return assertFlagValid(result, a)
	case AssertRespecializations:
		return assertRespecializations(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// capturedEvent returns the step's event if its error carries a capture.
func capturedEvent(trace []TraceEvent, a Assertion) (TraceEvent, error) {
	if a.Step < 0 || a.Step >= len(trace) {
		return TraceEvent{}, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("flow step %d", a.Step),
			Actual:   fmt.Sprintf("trace has %d steps", len(trace)),
			Trace:    trace,
		}
	}
	event := trace[a.Step]
	if !event.Captured {
		actual := "step succeeded"
		if event.Failed() {
			actual = fmt.Sprintf("error %q carries no capture", event.Error)
		}
		return event, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("captured stack trace at step %d", a.Step),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return event, nil
}

// assertTraceEquals checks the step's capture frame by frame. An expected
// frame without a location matches any location.
func assertTraceEquals(trace []TraceEvent, a Assertion) error {
	event, err := capturedEvent(trace, a)
	if err != nil {
		return err
	}

	mismatch := len(event.Frames) != len(a.Frames)
	for i := 0; !mismatch && i < len(a.Frames); i++ {
		want, got := a.Frames[i], event.Frames[i]
		if want.Target != got.Target || (want.Location != "" && want.Location != got.Location) {
			mismatch = true
		}
	}
	if !mismatch {
		return nil
	}

	wantFrames := make([]string, len(a.Frames))
	for i, f := range a.Frames {
		wantFrames[i] = f.Target
		if f.Location != "" {
			wantFrames[i] += " (" + f.Location + ")"
		}
	}
	gotFrames := make([]string, len(event.Frames))
	for i, f := range event.Frames {
		gotFrames[i] = formatFrame(f)
	}

	return &AssertionError{
		Type:     AssertTraceEquals,
		Expected: fmt.Sprintf("frames [%s]", strings.Join(wantFrames, ", ")),
		Actual:   fmt.Sprintf("frames [%s]", strings.Join(gotFrames, ", ")),
		Trace:    trace,
	}
}

// assertTraceAbsent checks that the step did not produce a capture,
// either because it succeeded or because its error cannot carry one.
func assertTraceAbsent(trace []TraceEvent, a Assertion) error {
	event, ok := eventAt(trace, a.Step)
	if !ok || !event.Captured {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceAbsent,
		Expected: fmt.Sprintf("no capture at step %d", a.Step),
		Actual:   fmt.Sprintf("capture with %d frames", len(event.Frames)),
		Trace:    trace,
	}
}

// assertTraceLength checks the number of captured frames.
func assertTraceLength(trace []TraceEvent, a Assertion) error {
	event, err := capturedEvent(trace, a)
	if err != nil {
		return err
	}
	if len(event.Frames) != a.Count {
		return &AssertionError{
			Type:     AssertTraceLength,
			Expected: fmt.Sprintf("%d frames at step %d", a.Count, a.Step),
			Actual:   fmt.Sprintf("%d frames", len(event.Frames)),
			Trace:    trace,
		}
	}
	return nil
}

// assertFlagValid checks whether the assumption taken on the flag when
// the scenario started still holds.
func assertFlagValid(result *Result, a Assertion) error {
	valid, ok := result.Assumptions[a.Flag]
	if !ok {
		return &AssertionError{
			Type:     AssertFlagValid,
			Expected: fmt.Sprintf("declared flag %s", a.Flag),
			Actual:   "flag not declared by program",
		}
	}
	if valid != *a.Valid {
		return &AssertionError{
			Type:     AssertFlagValid,
			Expected: fmt.Sprintf("flag %s valid=%t", a.Flag, *a.Valid),
			Actual:   fmt.Sprintf("valid=%t", valid),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRespecializations checks the guard respecialization count.
func assertRespecializations(result *Result, a Assertion) error {
	count, ok := result.Respecializations[a.Flag]
	if !ok {
		return &AssertionError{
			Type:     AssertRespecializations,
			Expected: fmt.Sprintf("declared flag %s", a.Flag),
			Actual:   "flag not declared by program",
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertRespecializations,
			Expected: fmt.Sprintf("%d respecializations on %s", a.Count, a.Flag),
			Actual:   fmt.Sprintf("%d respecializations", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

func eventAt(trace []TraceEvent, step int) (TraceEvent, bool) {
	if step < 0 || step >= len(trace) {
		return TraceEvent{}, false
	}
	return trace[step], true
}

func formatFrame(f ir.FrameRecord) string {
	loc := f.Location
	if loc == "" {
		loc = "<unknown>"
	}
	s := fmt.Sprintf("%s (%s)", f.Target, loc)
	if f.Internal {
		s += " [internal]"
	}
	return s
}
