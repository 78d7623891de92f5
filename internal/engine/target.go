package engine

import (
	"fmt"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/ir"
)

// Body is the code behind a call target. It runs inside the target's
// frame on th.
type Body func(th *Thread, args []ir.IRValue) (ir.IRValue, error)

// TargetOption configures a Function or Native target.
type TargetOption func(*targetInfo)

// AsInternal marks a target as runtime plumbing. Its frames appear in
// captures but do not count against an error's frame limit.
func AsInternal() TargetOption {
	return func(t *targetInfo) {
		t.internal = true
	}
}

type targetInfo struct {
	name     string
	internal bool
}

func newTargetInfo(name string, opts []TargetOption) targetInfo {
	t := targetInfo{name: name}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t targetInfo) Name() string   { return t.name }
func (t targetInfo) Internal() bool { return t.internal }

// Function is a target on the full backend: it supports both ambient and
// explicit-location calls.
type Function struct {
	targetInfo
	body Body
}

// NewFunction creates a Function target.
func NewFunction(name string, body Body, opts ...TargetOption) *Function {
	return &Function{targetInfo: newTargetInfo(name, opts), body: body}
}

// Call implements boundary.Target.
func (f *Function) Call(ec boundary.Context, args ...ir.IRValue) (ir.IRValue, error) {
	th, err := threadOf(ec, f.name)
	if err != nil {
		return nil, err
	}
	return th.invoke(f, th.CurrentLocation(), f.body, args)
}

// CallAt implements boundary.Target.
func (f *Function) CallAt(ec boundary.Context, loc *boundary.Location, args ...ir.IRValue) (ir.IRValue, error) {
	th, err := threadOf(ec, f.name)
	if err != nil {
		return nil, err
	}
	return th.invoke(f, loc, f.body, args)
}

// Native is a target on a backend that resolves call sites only from the
// execution context. CallAt always fails with UnsupportedCallFormError.
type Native struct {
	targetInfo
	body Body
}

// NewNative creates a Native target.
func NewNative(name string, body Body, opts ...TargetOption) *Native {
	return &Native{targetInfo: newTargetInfo(name, opts), body: body}
}

// Call implements boundary.Target.
func (n *Native) Call(ec boundary.Context, args ...ir.IRValue) (ir.IRValue, error) {
	th, err := threadOf(ec, n.name)
	if err != nil {
		return nil, err
	}
	return th.invoke(n, th.CurrentLocation(), n.body, args)
}

// CallAt implements boundary.Target.
func (n *Native) CallAt(ec boundary.Context, loc *boundary.Location, args ...ir.IRValue) (ir.IRValue, error) {
	return nil, &boundary.UnsupportedCallFormError{Target: n.name, Backend: "native"}
}

func threadOf(ec boundary.Context, target string) (*Thread, error) {
	th, ok := ec.(*Thread)
	if !ok || th == nil {
		return nil, fmt.Errorf("target %s: execution context %T is not a runtime thread", target, ec)
	}
	return th, nil
}
