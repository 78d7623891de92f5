package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/assume/internal/ir"
	"github.com/roach88/assume/internal/store"
)

// recordEvent is one entry bound for the recorder log.
type recordEvent interface {
	write(ctx context.Context, s *store.Store) error
	// attrs identifies the event in log lines.
	attrs() []any
}

type threadEvent struct{ rec ir.ThreadRecord }

func (e threadEvent) write(ctx context.Context, s *store.Store) error {
	return s.WriteThread(ctx, e.rec)
}

func (e threadEvent) attrs() []any {
	return []any{"kind", "thread", "thread_id", e.rec.ID, "seq", e.rec.Seq}
}

type captureEvent struct{ rec ir.CaptureRecord }

func (e captureEvent) write(ctx context.Context, s *store.Store) error {
	return s.WriteCapture(ctx, e.rec)
}

func (e captureEvent) attrs() []any {
	return []any{"kind", "capture", "capture_id", e.rec.ID, "thread_id", e.rec.ThreadID, "seq", e.rec.Seq}
}

type invalidationEvent struct{ rec ir.InvalidationRecord }

func (e invalidationEvent) write(ctx context.Context, s *store.Store) error {
	return s.WriteInvalidation(ctx, e.rec)
}

func (e invalidationEvent) attrs() []any {
	return []any{"kind", "invalidation", "flag", e.rec.Flag, "seq", e.rec.Seq}
}

// recordQueue buffers events between guest threads, which push without
// blocking, and the single Run goroutine, which drains them in batches.
type recordQueue struct {
	mu      sync.Mutex
	pending []recordEvent
	done    bool
	wake    chan struct{} // cap 1; closed on stop
}

func newRecordQueue() *recordQueue {
	return &recordQueue{wake: make(chan struct{}, 1)}
}

// push appends ev. It reports false once the queue is stopped.
func (q *recordQueue) push(ev recordEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done {
		return false
	}
	q.pending = append(q.pending, ev)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// drain hands over everything pending, oldest first.
func (q *recordQueue) drain() []recordEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.pending
	q.pending = nil
	return batch
}

func (q *recordQueue) ready() <-chan struct{} {
	return q.wake
}

func (q *recordQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// stop rejects further pushes. Pending events stay drainable.
func (q *recordQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.done {
		q.done = true
		close(q.wake)
	}
}

func (q *recordQueue) stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

func (rt *Runtime) record(ev recordEvent) {
	if rt.store == nil {
		return
	}
	if !rt.queue.push(ev) {
		rt.logger.Warn("recorder stopped, event dropped", ev.attrs()...)
	}
}

// Run starts the single-writer recorder loop.
// Blocks until the context is cancelled or Stop is called; after Stop,
// events already queued are written before Run returns.
//
// On a write failure the error is logged with the event and recording
// continues.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.logger.Info("recorder starting")

	for {
		if batch := rt.queue.drain(); len(batch) > 0 {
			rt.writeBatch(ctx, batch)
			continue
		}

		select {
		case <-ctx.Done():
			rt.logger.Info("recorder stopping: context cancelled")
			rt.queue.stop()
			return ctx.Err()

		case <-rt.queue.ready():
			if rt.queue.stopped() && rt.queue.len() == 0 {
				rt.logger.Info("recorder stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the recorder queue, causing Run to return once drained.
func (rt *Runtime) Stop() {
	rt.queue.stop()
}

func (rt *Runtime) writeBatch(ctx context.Context, batch []recordEvent) {
	if rt.store == nil {
		return
	}
	for _, ev := range batch {
		if err := ev.write(ctx, rt.store); err != nil {
			rt.logger.Error("record failed", append(ev.attrs(), "error", err)...)
			continue
		}
		if rt.logger.Enabled(ctx, slog.LevelDebug) {
			rt.logger.Debug("recorded", ev.attrs()...)
		}
	}
}
