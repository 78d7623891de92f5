package engine

import (
	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/stacktrace"
)

// frame is one live guest invocation. pc is the call site the frame is
// currently executing: the throw site for the innermost frame, the
// outgoing call site for every frame below it.
type frame struct {
	target boundary.Target
	pc     *boundary.Location
}

func (f *frame) CallSite() *boundary.Location { return f.pc }
func (f *frame) Target() boundary.Target      { return f.target }

// Thread is the execution context of one guest computation.
//
// A Thread implements boundary.Context for call-site resolution and
// stacktrace.FrameWalker for failure capture. It is not safe for
// concurrent use: one goroutine drives a thread at a time.
type Thread struct {
	id      string
	program string
	rt      *Runtime
	frames  []*frame
	root    *boundary.Location // pc when no frame is live
}

// ID returns the thread's unique ID.
func (th *Thread) ID() string {
	return th.id
}

// Program returns the name of the program the thread runs.
func (th *Thread) Program() string {
	return th.program
}

// Runtime returns the runtime the thread belongs to.
func (th *Thread) Runtime() *Runtime {
	return th.rt
}

// Depth returns the number of live frames.
func (th *Thread) Depth() int {
	return len(th.frames)
}

// CurrentLocation implements boundary.Context.
func (th *Thread) CurrentLocation() *boundary.Location {
	if n := len(th.frames); n > 0 {
		return th.frames[n-1].pc
	}
	return th.root
}

// SetLocation records the call site the innermost frame is executing.
func (th *Thread) SetLocation(loc *boundary.Location) {
	if n := len(th.frames); n > 0 {
		th.frames[n-1].pc = loc
		return
	}
	th.root = loc
}

// WalkFrames implements stacktrace.FrameWalker, innermost first.
func (th *Thread) WalkFrames(visit func(stacktrace.FrameRef) bool) {
	for i := len(th.frames) - 1; i >= 0; i-- {
		if !visit(th.frames[i]) {
			return
		}
	}
}

// Call invokes the named target from the thread's current location.
func (th *Thread) Call(name string, args ...ir.IRValue) (ir.IRValue, error) {
	t, err := th.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Call(th, args...)
}

// CallAt invokes the named target from an explicit call site.
func (th *Thread) CallAt(name string, loc *boundary.Location, args ...ir.IRValue) (ir.IRValue, error) {
	t, err := th.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.CallAt(th, loc, args...)
}

func (th *Thread) lookup(name string) (boundary.Target, error) {
	t, ok := th.rt.Lookup(name)
	if !ok {
		return nil, NewUnknownTargetError(th.id, name)
	}
	return t, nil
}

// invoke runs body in a new frame for t, called from site.
//
// A failure is captured before the frame is popped. Frames are popped even
// if body panics, so push and pop stay balanced.
func (th *Thread) invoke(t boundary.Target, site *boundary.Location, body Body, args []ir.IRValue) (ir.IRValue, error) {
	th.SetLocation(site)

	if len(th.frames) >= th.rt.maxDepth {
		err := &StackOverflowError{
			ThreadID: th.id,
			Target:   t.Name(),
			Depth:    len(th.frames),
			Limit:    th.rt.maxDepth,
		}
		th.rt.logger.Warn("stack overflow",
			"thread_id", th.id,
			"target", t.Name(),
			"depth", len(th.frames),
		)
		return nil, th.capture(err)
	}

	th.frames = append(th.frames, &frame{target: t})
	defer th.pop()

	result, err := body(th, args)
	if err != nil {
		return nil, th.capture(err)
	}
	return result, nil
}

func (th *Thread) pop() {
	n := len(th.frames)
	th.frames[n-1] = nil
	th.frames = th.frames[:n-1]
}

// capture fills in err's stack trace from the live frames and records it
// if this call attached it. A chain without a carrier comes back wrapped
// in one, so plain Go errors from bodies are captured too.
func (th *Thread) capture(err error) error {
	err = stacktrace.Carry(err)
	if !th.rt.captureOnThrow {
		return err
	}
	trace, attached := stacktrace.Capture(th, err)
	if attached {
		th.rt.recordCapture(th, err, trace)
	}
	return err
}
