package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios load a program, drive it through a flow of invocations and
// invalidations on one thread, and assert on the captured stack traces and
// the final speculation state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to the CUE program (file or package directory).
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program"`

	// MaxDepth overrides the runtime's frame depth limit when > 0.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// RespecializeLimit overrides the guard respecialize limit when > 0.
	RespecializeLimit int `yaml:"respecialize_limit,omitempty"`

	// Flow contains the steps to run, in order, on a single thread.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace and final state.
	// Supported types: trace_equals, trace_absent, trace_length,
	// flag_valid, respecializations
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one step of the flow. Exactly one of Invoke or Invalidate
// is set.
type FlowStep struct {
	// Invoke is the function to call from the thread's root.
	Invoke string `yaml:"invoke,omitempty"`

	// Args are passed to the invoked function.
	Args []interface{} `yaml:"args,omitempty"`

	// Expect specifies the expected outcome of an invocation.
	// If nil, the invocation must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Invalidate names a flag to invalidate from outside guest code.
	Invalidate string `yaml:"invalidate,omitempty"`

	// Reason is recorded with the invalidation.
	Reason string `yaml:"reason,omitempty"`
}

// ExpectClause specifies expected invocation behavior.
type ExpectClause struct {
	// Error is the expected error message. Empty means the invocation
	// must succeed.
	Error string `yaml:"error,omitempty"`

	// Trace is the expected captured frame targets, innermost first.
	// Requires Error. An empty list expects an empty capture.
	Trace []string `yaml:"trace,omitempty"`

	// Result is the expected return value. A YAML node so that an
	// explicit null can be expected.
	Result *yaml.Node `yaml:"result,omitempty"`
}

// FrameExpect is one expected frame of a trace_equals assertion.
type FrameExpect struct {
	Target   string `yaml:"target"`
	Location string `yaml:"location,omitempty"` // "" skips the location check
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_equals": the step's capture has exactly Frames
	// - "trace_absent": the step's error carries no capture
	// - "trace_length": the step's capture has Count frames
	// - "flag_valid": the flag's initial assumption is (in)valid
	// - "respecializations": guard sites respecialized Count times on Flag
	Type string `yaml:"type"`

	// Step is the flow index (used by trace_equals, trace_absent, trace_length).
	Step int `yaml:"step,omitempty"`

	// Frames are the expected frames (used by trace_equals).
	Frames []FrameExpect `yaml:"frames,omitempty"`

	// Count is the expected count (used by trace_length, respecializations).
	Count int `yaml:"count,omitempty"`

	// Flag is the flag name (used by flag_valid, respecializations).
	Flag string `yaml:"flag,omitempty"`

	// Valid is the expected validity (used by flag_valid).
	Valid *bool `yaml:"valid,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceEquals       = "trace_equals"
	AssertTraceAbsent       = "trace_absent"
	AssertTraceLength       = "trace_length"
	AssertFlagValid         = "flag_valid"
	AssertRespecializations = "respecializations"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// program path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the program path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) && basePath != "" {
		scenario.Program = filepath.Join(basePath, scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Program == "" {
		return fmt.Errorf("program is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	if s.RespecializeLimit < 0 {
		return fmt.Errorf("respecialize_limit must be non-negative")
	}

	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program not found: %s", s.Program)
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Flow); err != nil {
			return err
		}
	}

	return nil
}

func validateFlowStep(index int, step *FlowStep) error {
	switch {
	case step.Invoke == "" && step.Invalidate == "":
		return fmt.Errorf("flow[%d]: one of invoke or invalidate is required", index)
	case step.Invoke != "" && step.Invalidate != "":
		return fmt.Errorf("flow[%d]: invoke and invalidate are mutually exclusive", index)
	}

	if step.Invalidate != "" {
		if step.Expect != nil {
			return fmt.Errorf("flow[%d]: expect is only valid on invoke steps", index)
		}
		if len(step.Args) > 0 {
			return fmt.Errorf("flow[%d]: args are only valid on invoke steps", index)
		}
		return nil
	}

	if step.Reason != "" {
		return fmt.Errorf("flow[%d]: reason is only valid on invalidate steps", index)
	}
	if step.Expect != nil {
		if step.Expect.Trace != nil && step.Expect.Error == "" {
			return fmt.Errorf("flow[%d].expect: trace requires error", index)
		}
		if step.Expect.Result != nil && step.Expect.Error != "" {
			return fmt.Errorf("flow[%d].expect: result and error are mutually exclusive", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, flow []FlowStep) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	invokeStep := func() error {
		if a.Step < 0 || a.Step >= len(flow) {
			return fmt.Errorf("assertions[%d]: step %d out of range for %s", index, a.Step, a.Type)
		}
		if flow[a.Step].Invoke == "" {
			return fmt.Errorf("assertions[%d]: step %d is not an invoke step", index, a.Step)
		}
		return nil
	}

	switch a.Type {
	case AssertTraceEquals:
		if a.Frames == nil {
			return fmt.Errorf("assertions[%d]: frames list is required for trace_equals", index)
		}
		return invokeStep()
	case AssertTraceAbsent:
		return invokeStep()
	case AssertTraceLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_length", index)
		}
		return invokeStep()
	case AssertFlagValid:
		if a.Flag == "" {
			return fmt.Errorf("assertions[%d]: flag is required for flag_valid", index)
		}
		if a.Valid == nil {
			return fmt.Errorf("assertions[%d]: valid is required for flag_valid", index)
		}
	case AssertRespecializations:
		if a.Flag == "" {
			return fmt.Errorf("assertions[%d]: flag is required for respecializations", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for respecializations", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
