package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/assume/internal/compiler"
	"github.com/roach88/assume/internal/engine"
	"github.com/roach88/assume/internal/interp"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/speculation"
	"github.com/roach88/assume/internal/stacktrace"
	"github.com/roach88/assume/internal/store"
	"github.com/roach88/assume/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	store   *store.Store
	runtime *engine.Runtime
	thread  *engine.Thread
	logger  *slog.Logger

	// initial holds the flag generation current when the scenario started.
	initial map[string]*speculation.Flag
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential thread IDs and a logical clock starting at zero, so results
// are reproducible.
//
// Execution flow:
// 1. Load, compile and validate the program
// 2. Start the runtime and its recorder on a fresh in-memory store
// 3. Execute flow steps on one thread, checking expect clauses
// 4. Drain the recorder and read back what it persisted
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	prog, err := compiler.LoadProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if errs := compiler.Validate(prog); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid program %s: %s", prog.Name, strings.Join(msgs, "; "))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := testutil.DiscardLogger()
	opts := []engine.Option{
		engine.WithStore(st),
		engine.WithLogger(logger),
		engine.WithThreadIDGenerator(testutil.NewSequentialThreadIDs("thread")),
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(scenario.MaxDepth))
	}
	if scenario.RespecializeLimit > 0 {
		opts = append(opts, engine.WithRespecializeLimit(scenario.RespecializeLimit))
	}

	rt := engine.New(opts...)
	if err := interp.Load(rt, prog); err != nil {
		return nil, err
	}

	h := &Harness{
		store:   st,
		runtime: rt,
		thread:  rt.NewThread(prog.Name),
		logger:  logger,
		initial: make(map[string]*speculation.Flag),
	}
	for _, name := range prog.Flags {
		c, err := rt.Flag(name)
		if err != nil {
			return nil, err
		}
		h.initial[name] = c.Flag()
	}

	ctx := context.Background()
	recorderDone := make(chan error, 1)
	go func() {
		recorderDone <- rt.Run(ctx)
	}()

	result := NewResult()
	result.ThreadID = h.thread.ID()

	flowErr := h.executeFlow(scenario.Flow, result)

	rt.Stop()
	if err := <-recorderDone; err != nil {
		return nil, fmt.Errorf("recorder failed: %w", err)
	}
	if flowErr != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", flowErr)
	}

	if err := h.collectState(ctx, prog, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs all flow steps on the harness thread and validates
// expect clauses against what actually happened.
func (h *Harness) executeFlow(flow []FlowStep, result *Result) error {
	for i, step := range flow {
		if step.Invalidate != "" {
			if err := h.runtime.Invalidate(step.Invalidate, step.Reason); err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			result.Trace = append(result.Trace, TraceEvent{
				Step:   i,
				Type:   EventInvalidate,
				Flag:   step.Invalidate,
				Reason: step.Reason,
			})
			h.logger.Info("flow step invalidated", "step", i, "flag", step.Invalidate)
			continue
		}

		args, err := convertArgs(step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d: failed to convert args: %w", i, err)
		}

		value, callErr := interp.Invoke(h.thread, step.Invoke, args...)

		event := TraceEvent{
			Step:   i,
			Type:   EventInvoke,
			Target: step.Invoke,
			Args:   args,
		}
		if callErr != nil {
			event.Error = callErr.Error()
			if trace, ok := stacktrace.Find(callErr); ok {
				event.Captured = true
				event.Frames = engine.FrameRecords(trace)
			}
		} else {
			event.Result = value
		}
		result.Trace = append(result.Trace, event)

		if err := checkExpect(i, step, event, result); err != nil {
			return err
		}

		h.logger.Info("flow step completed",
			"step", i,
			"target", step.Invoke,
			"error", event.Error,
			"frames", len(event.Frames),
		)
	}
	return nil
}

// checkExpect compares an invoke event against the step's expect clause,
// recording mismatches on result. Returns an error only if the clause
// itself cannot be evaluated.
func checkExpect(i int, step FlowStep, event TraceEvent, result *Result) error {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	if expect.Error == "" {
		if event.Failed() {
			result.AddError(fmt.Sprintf("flow[%d]: %s failed unexpectedly: %s", i, step.Invoke, event.Error))
			return nil
		}
	} else {
		if !event.Failed() {
			result.AddError(fmt.Sprintf("flow[%d]: %s succeeded, expected error %q", i, step.Invoke, expect.Error))
			return nil
		}
		if event.Error != expect.Error {
			result.AddError(fmt.Sprintf("flow[%d]: expected error %q, got %q", i, expect.Error, event.Error))
		}
	}

	if expect.Trace != nil {
		if !event.Captured {
			result.AddError(fmt.Sprintf("flow[%d]: expected trace %v, error carries no capture", i, expect.Trace))
		} else if got := frameTargets(event.Frames); !slices.Equal(got, expect.Trace) {
			result.AddError(fmt.Sprintf("flow[%d]: expected trace %v, got %v", i, expect.Trace, got))
		}
	}

	if expect.Result != nil {
		want, err := convertNode(expect.Result)
		if err != nil {
			return fmt.Errorf("flow step %d: failed to convert expected result: %w", i, err)
		}
		if !equalValues(want, event.Result) {
			result.AddError(fmt.Sprintf("flow[%d]: expected result %s, got %s",
				i, ir.Format(want), ir.Format(event.Result)))
		}
	}
	return nil
}

// collectState records final flag state and reads back the recorder's
// persisted captures and invalidations.
func (h *Harness) collectState(ctx context.Context, prog *ir.Program, result *Result) error {
	for _, name := range prog.Flags {
		result.Assumptions[name] = h.initial[name].IsValid()
		result.Respecializations[name] = h.runtime.Respecializations(name)
	}

	captures, err := h.store.ReadCaptures(ctx, h.thread.ID())
	if err != nil {
		return fmt.Errorf("failed to read captures: %w", err)
	}
	result.Captures = captures

	invalidations, err := h.store.ReadInvalidations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read invalidations: %w", err)
	}
	result.Invalidations = invalidations
	return nil
}

// convertArgs converts YAML-parsed arguments to guest values.
func convertArgs(args []interface{}) (ir.IRArray, error) {
	out := make(ir.IRArray, len(args))
	for i, arg := range args {
		v, err := ir.FromGo(arg)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// convertNode decodes a YAML node to a guest value. An explicit null
// becomes IRNull.
func convertNode(node *yaml.Node) (ir.IRValue, error) {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.FromGo(raw)
}

func equalValues(a, b ir.IRValue) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, err := ir.MarshalCanonical(a)
	if err != nil {
		return false
	}
	bb, err := ir.MarshalCanonical(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

func frameTargets(frames []ir.FrameRecord) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Target
	}
	return out
}
