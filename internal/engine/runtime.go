package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/assume/internal/boundary"
	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/speculation"
	"github.com/roach88/assume/internal/stacktrace"
	"github.com/roach88/assume/internal/store"
)

// Runtime owns the call targets and speculation flags of a loaded program,
// creates threads, and records what happens on them.
//
// Thread-safety model:
//   - Register, DeclareFlag, Invalidate, Guard, NewThread: safe from any goroutine
//   - Thread methods: one goroutine per thread
//   - Run: must be called from exactly one goroutine
type Runtime struct {
	store          *store.Store
	clock          *Clock
	queue          *recordQueue
	threadGen      ThreadIDGenerator
	logger         *slog.Logger
	maxDepth       int
	captureOnThrow bool
	tracker        *RespecializationTracker

	mu      sync.RWMutex
	targets map[string]boundary.Target
	flags   map[string]*speculation.Cyclic
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithMaxDepth sets the maximum frame depth per thread.
// Default: DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		rt.maxDepth = n
	}
}

// WithRespecializeLimit sets how often a guard site may respecialize
// before going generic. Default: DefaultRespecializeLimit.
func WithRespecializeLimit(n int) Option {
	return func(rt *Runtime) {
		rt.tracker = NewRespecializationTracker(n)
	}
}

// WithCaptureOnThrow controls whether failures get their stack trace
// filled in as they are thrown. Default: true. When disabled, callers
// fill traces in themselves with stacktrace.FillIn while frames are live.
func WithCaptureOnThrow(enabled bool) Option {
	return func(rt *Runtime) {
		rt.captureOnThrow = enabled
	}
}

// WithStore enables the recorder. Without a store nothing is persisted.
func WithStore(s *store.Store) Option {
	return func(rt *Runtime) {
		rt.store = s
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithThreadIDGenerator sets the thread ID source.
// Default: UUIDv7Generator.
func WithThreadIDGenerator(g ThreadIDGenerator) Option {
	return func(rt *Runtime) {
		rt.threadGen = g
	}
}

// WithClock sets the logical clock, e.g. one resumed with NewClockAt.
func WithClock(c *Clock) Option {
	return func(rt *Runtime) {
		rt.clock = c
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		clock:          NewClock(),
		queue:          newRecordQueue(),
		threadGen:      UUIDv7Generator{},
		logger:         slog.Default(),
		maxDepth:       DefaultMaxDepth,
		captureOnThrow: true,
		tracker:        NewRespecializationTracker(DefaultRespecializeLimit),
		targets:        make(map[string]boundary.Target),
		flags:          make(map[string]*speculation.Cyclic),
	}

	for _, opt := range opts {
		opt(rt)
	}

	return rt
}

// Register adds a call target. Target names are unique per runtime.
func (rt *Runtime) Register(t boundary.Target) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, exists := rt.targets[t.Name()]; exists {
		return &RuntimeError{
			Code:    ErrCodeDuplicateTarget,
			Message: "target already registered",
			Target:  t.Name(),
		}
	}
	rt.targets[t.Name()] = t
	return nil
}

// Lookup returns the target registered under name.
func (rt *Runtime) Lookup(name string) (boundary.Target, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	t, ok := rt.targets[name]
	return t, ok
}

// DeclareFlag declares a speculation flag and returns it. Declaring an
// existing name returns the existing flag.
func (rt *Runtime) DeclareFlag(name string) *speculation.Cyclic {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if c, ok := rt.flags[name]; ok {
		return c
	}
	c := speculation.NewCyclic(name, speculation.WithObserver(rt.recordInvalidation))
	rt.flags[name] = c
	return c
}

// Flag returns the declared flag with the given name.
func (rt *Runtime) Flag(name string) (*speculation.Cyclic, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	c, ok := rt.flags[name]
	if !ok {
		return nil, NewUnknownFlagError(name)
	}
	return c, nil
}

// Invalidate breaks the current generation of the named flag.
func (rt *Runtime) Invalidate(name, reason string) error {
	c, err := rt.Flag(name)
	if err != nil {
		return err
	}
	c.Invalidate(reason)
	return nil
}

// Guard checks the named flag at th's current location.
//
// Guards never fail guest code because an assumption broke: the site
// respecializes, or past the limit falls back to generic execution.
func (rt *Runtime) Guard(th *Thread, name string) (GuardOutcome, error) {
	c, err := rt.Flag(name)
	if err != nil {
		return 0, err
	}

	site := th.CurrentLocation()
	outcome, count, err := rt.tracker.Guard(site, c)
	if err != nil {
		return 0, err
	}

	switch outcome {
	case GuardRespecialized:
		rt.logger.Debug("guard respecialized",
			"thread_id", th.id,
			"flag", name,
			"site", site.String(),
			"count", count,
		)
	case GuardGeneric:
		if count == rt.tracker.Limit()+1 {
			rt.logger.Warn("guard site went generic",
				"thread_id", th.id,
				"flag", name,
				"error", NewRespecializationLimitError(site.String(), name, count, rt.tracker.Limit()),
			)
		}
	}
	return outcome, nil
}

// Respecializations returns how often guard sites respecialized on flag.
func (rt *Runtime) Respecializations(flag string) int {
	return rt.tracker.Count(flag)
}

// NewThread creates a thread for running program.
// Safe from any goroutine.
func (rt *Runtime) NewThread(program string) *Thread {
	th := &Thread{
		id:      rt.threadGen.Generate(),
		program: program,
		rt:      rt,
	}

	rt.logger.Debug("thread started", "thread_id", th.id, "program", program)
	rt.record(threadEvent{ir.ThreadRecord{
		ID:             th.id,
		Program:        program,
		Seq:            rt.clock.Next(),
		RuntimeVersion: ir.RuntimeVersion,
		IRVersion:      ir.IRVersion,
	}})
	return th
}

// FrameRecords converts a capture to its persisted form.
func FrameRecords(t *stacktrace.Trace) []ir.FrameRecord {
	if t == nil {
		return nil
	}
	frames := make([]ir.FrameRecord, t.Len())
	for i := range frames {
		el := t.At(i)
		frames[i] = ir.FrameRecord{
			Target:   el.Target().Name(),
			Internal: el.Target().Internal(),
		}
		if loc := el.Location(); loc != nil {
			frames[i].Location = loc.String()
		}
	}
	return frames
}

func (rt *Runtime) recordCapture(th *Thread, err error, t *stacktrace.Trace) {
	frames := FrameRecords(t)
	seq := rt.clock.Next()

	rt.logger.Debug("stack captured",
		"thread_id", th.id,
		"error", err.Error(),
		"frames", len(frames),
		"seq", seq,
	)

	if rt.store == nil {
		return
	}

	id, idErr := ir.CaptureID(th.id, err.Error(), frames, seq)
	if idErr != nil {
		rt.logger.Error("capture id failed", "thread_id", th.id, "error", idErr)
		return
	}
	rt.record(captureEvent{ir.CaptureRecord{
		ID:       id,
		ThreadID: th.id,
		Error:    err.Error(),
		Frames:   frames,
		Seq:      seq,
	}})
}

// recordInvalidation is the observer installed on every declared flag.
// Runs on the invalidating goroutine.
func (rt *Runtime) recordInvalidation(inv speculation.Invalidation) {
	seq := rt.clock.Next()
	rt.logger.Info("speculation invalidated",
		"flag", inv.Flag,
		"reason", inv.Reason,
		"seq", seq,
	)
	rt.record(invalidationEvent{ir.InvalidationRecord{
		Flag:   inv.Flag,
		Reason: inv.Reason,
		Seq:    seq,
	}})
}
