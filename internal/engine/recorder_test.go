package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assume/internal/ir"
)

func threadAt(id string, seq int64) recordEvent {
	return threadEvent{ir.ThreadRecord{ID: id, Seq: seq}}
}

func TestRecordQueue_DrainKeepsOrder(t *testing.T) {
	q := newRecordQueue()

	require.True(t, q.push(threadAt("a", 1)))
	require.True(t, q.push(invalidationEvent{ir.InvalidationRecord{Flag: "stock#0", Seq: 2}}))
	require.True(t, q.push(threadAt("b", 3)))
	assert.Equal(t, 3, q.len())

	batch := q.drain()
	require.Len(t, batch, 3)
	assert.Equal(t, "a", batch[0].(threadEvent).rec.ID)
	assert.Equal(t, "stock#0", batch[1].(invalidationEvent).rec.Flag)
	assert.Equal(t, "b", batch[2].(threadEvent).rec.ID)

	assert.Empty(t, q.drain())
	assert.Equal(t, 0, q.len())
}

func TestRecordQueue_StopKeepsPending(t *testing.T) {
	q := newRecordQueue()
	q.push(threadAt("before", 1))

	q.stop()
	q.stop()

	assert.True(t, q.stopped())
	assert.False(t, q.push(threadAt("after", 2)))

	batch := q.drain()
	require.Len(t, batch, 1)
	assert.Equal(t, "before", batch[0].(threadEvent).rec.ID)

	_, open := <-q.ready()
	assert.False(t, open, "ready channel closed on stop")
}

func TestRecordQueue_ReadyWakesOnPush(t *testing.T) {
	q := newRecordQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.push(threadAt("late", 1))
	}()

	select {
	case <-q.ready():
	case <-time.After(time.Second):
		t.Fatal("no wakeup after push")
	}
	assert.Len(t, q.drain(), 1)
}

func TestRecordQueue_ConcurrentPush(t *testing.T) {
	q := newRecordQueue()
	const n = 200

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(seq int64) {
			defer wg.Done()
			q.push(threadAt("t", seq))
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, q.drain(), n)
}

func TestRecordEvent_Attrs(t *testing.T) {
	ev := captureEvent{ir.CaptureRecord{ID: "c1", ThreadID: "t-1", Seq: 4}}
	assert.Equal(t,
		[]any{"kind", "capture", "capture_id", "c1", "thread_id", "t-1", "seq", int64(4)},
		ev.attrs())
}
