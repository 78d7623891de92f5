package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/assume/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestThread creates a thread record with minimal required fields.
func createTestThread(id string, seq int64) ir.ThreadRecord {
	return ir.ThreadRecord{
		ID:             id,
		Program:        "test",
		Seq:            seq,
		RuntimeVersion: ir.RuntimeVersion,
		IRVersion:      ir.IRVersion,
	}
}

// createTestCapture creates a capture with a content-addressed ID.
func createTestCapture(threadID, errMsg string, seq int64, frames ...ir.FrameRecord) ir.CaptureRecord {
	if frames == nil {
		frames = []ir.FrameRecord{}
	}
	return ir.CaptureRecord{
		ID:       ir.MustCaptureID(threadID, errMsg, frames, seq),
		ThreadID: threadID,
		Error:    errMsg,
		Frames:   frames,
		Seq:      seq,
	}
}
