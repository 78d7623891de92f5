package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/assume/internal/ir"
)

// TraceSnapshot captures the observable outcome of a scenario execution.
// Serialized with canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName  string                  `json:"scenario_name"`
	ThreadID      string                  `json:"thread_id"`
	Trace         []TraceEvent            `json:"trace"`
	Captures      []ir.CaptureRecord      `json:"captures"`
	Invalidations []ir.InvalidationRecord `json:"invalidations"`
}

// NewTraceSnapshot builds the snapshot of a result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName:  name,
		ThreadID:      result.ThreadID,
		Trace:         result.Trace,
		Captures:      result.Captures,
		Invalidations: result.Invalidations,
	}
}

// toIR converts the snapshot for ir.MarshalCanonical.
// Capture IDs are omitted: they are hashes of the other fields.
func (s *TraceSnapshot) toIR() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"step": ir.IRInt(event.Step),
			"type": ir.IRString(event.Type),
		}
		switch event.Type {
		case EventInvoke:
			obj["target"] = ir.IRString(event.Target)
			if len(event.Args) > 0 {
				obj["args"] = event.Args
			}
			if event.Failed() {
				obj["error"] = ir.IRString(event.Error)
				obj["captured"] = ir.IRBool(event.Captured)
				if event.Captured {
					obj["frames"] = framesToIR(event.Frames)
				}
			} else if event.Result != nil {
				obj["result"] = event.Result
			}
		case EventInvalidate:
			obj["flag"] = ir.IRString(event.Flag)
			if event.Reason != "" {
				obj["reason"] = ir.IRString(event.Reason)
			}
		}
		trace[i] = obj
	}

	captures := make(ir.IRArray, len(s.Captures))
	for i, c := range s.Captures {
		captures[i] = ir.IRObject{
			"error":  ir.IRString(c.Error),
			"frames": framesToIR(c.Frames),
			"seq":    ir.IRInt(c.Seq),
		}
	}

	invalidations := make(ir.IRArray, len(s.Invalidations))
	for i, inv := range s.Invalidations {
		obj := ir.IRObject{
			"flag": ir.IRString(inv.Flag),
			"seq":  ir.IRInt(inv.Seq),
		}
		if inv.Reason != "" {
			obj["reason"] = ir.IRString(inv.Reason)
		}
		invalidations[i] = obj
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"thread_id":     ir.IRString(s.ThreadID),
		"trace":         trace,
		"captures":      captures,
		"invalidations": invalidations,
	}
}

func framesToIR(frames []ir.FrameRecord) ir.IRArray {
	out := make(ir.IRArray, len(frames))
	for i, f := range frames {
		out[i] = f.ToIR()
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarshalSnapshot renders a result's snapshot as canonical JSON, the
// golden file format.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := NewTraceSnapshot(scenarioName, result)
	return ir.MarshalCanonical(snapshot.toIR())
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
