package store

import (
	"context"
	"fmt"

	"github.com/roach88/assume/internal/ir"
)

// WriteThread inserts a thread record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteThread(ctx context.Context, th ir.ThreadRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (id, program, seq, runtime_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		th.ID,
		th.Program,
		th.Seq,
		th.RuntimeVersion,
		th.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write thread: %w", err)
	}
	return nil
}

// WriteCapture inserts a capture record.
// Uses ON CONFLICT(id) DO NOTHING: capture IDs are content-addressed, so a
// duplicate write is the same capture.
//
// Note: the thread referenced by ThreadID must exist (foreign key constraint).
func (s *Store) WriteCapture(ctx context.Context, c ir.CaptureRecord) error {
	framesJSON, err := marshalFrames(c.Frames)
	if err != nil {
		return fmt.Errorf("write capture: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captures (id, thread_id, error, frames, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.ThreadID,
		c.Error,
		framesJSON,
		c.Seq,
	)
	if err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

// WriteInvalidation appends an invalidation record.
// Seq is unique; a second write at the same seq is ignored.
func (s *Store) WriteInvalidation(ctx context.Context, inv ir.InvalidationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invalidations (flag, reason, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		inv.Flag,
		inv.Reason,
		inv.Seq,
	)
	if err != nil {
		return fmt.Errorf("write invalidation: %w", err)
	}
	return nil
}
