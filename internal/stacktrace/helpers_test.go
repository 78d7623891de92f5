package stacktrace

import (
	"fmt"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/ir"
)

// fakeTarget is a boundary.Target that is never actually called.
type fakeTarget struct {
	name     string
	internal bool
}

func (t *fakeTarget) Name() string   { return t.name }
func (t *fakeTarget) Internal() bool { return t.internal }

func (t *fakeTarget) Call(ec boundary.Context, args ...ir.IRValue) (ir.IRValue, error) {
	return ir.IRNull{}, nil
}

func (t *fakeTarget) CallAt(ec boundary.Context, loc *boundary.Location, args ...ir.IRValue) (ir.IRValue, error) {
	return ir.IRNull{}, nil
}

type fakeFrame struct {
	loc    *boundary.Location
	target boundary.Target
}

func (f fakeFrame) CallSite() *boundary.Location { return f.loc }
func (f fakeFrame) Target() boundary.Target      { return f.target }

// panickyFrame cannot report its call site.
type panickyFrame struct {
	target boundary.Target
}

func (f panickyFrame) CallSite() *boundary.Location { panic("frame gone") }
func (f panickyFrame) Target() boundary.Target      { return f.target }

// fakeStack lists frames innermost first and counts walks.
type fakeStack struct {
	frames []FrameRef
	walks  int
}

func (s *fakeStack) WalkFrames(visit func(FrameRef) bool) {
	s.walks++
	for _, f := range s.frames {
		if !visit(f) {
			return
		}
	}
}

// stackOf builds a stack from target names, innermost first. Names with a
// leading "~" are internal targets.
func stackOf(names ...string) *fakeStack {
	s := &fakeStack{}
	for i, name := range names {
		internal := false
		if len(name) > 0 && name[0] == '~' {
			internal = true
			name = name[1:]
		}
		s.frames = append(s.frames, fakeFrame{
			loc:    boundary.NewLocation("prog", len(names)-i, 1),
			target: &fakeTarget{name: name, internal: internal},
		})
	}
	return s
}

func deepStack(n int) *fakeStack {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("f%d", i)
	}
	return stackOf(names...)
}
