package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/assume/internal/ir"
)

// ListThreads returns all threads ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListThreads(ctx context.Context) ([]ir.ThreadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, seq, runtime_version, ir_version
		FROM threads
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()

	threads := []ir.ThreadRecord{}
	for rows.Next() {
		var th ir.ThreadRecord
		if err := rows.Scan(&th.ID, &th.Program, &th.Seq, &th.RuntimeVersion, &th.IRVersion); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return threads, nil
}

// ReadCaptures returns the captures recorded on a thread, ordered by
// seq ASC, id ASC. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadCaptures(ctx context.Context, threadID string) ([]ir.CaptureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, error, frames, seq
		FROM captures
		WHERE thread_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	captures := []ir.CaptureRecord{}
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return captures, nil
}

// ReadCapture retrieves a single capture by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCapture(ctx context.Context, id string) (ir.CaptureRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, error, frames, seq
		FROM captures
		WHERE id = ?
	`, id)
	return scanCapture(row)
}

// ReadInvalidations returns every invalidation ordered by seq ASC.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadInvalidations(ctx context.Context) ([]ir.InvalidationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flag, reason, seq
		FROM invalidations
		ORDER BY seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query invalidations: %w", err)
	}
	defer rows.Close()

	invalidations := []ir.InvalidationRecord{}
	for rows.Next() {
		var inv ir.InvalidationRecord
		if err := rows.Scan(&inv.Flag, &inv.Reason, &inv.Seq); err != nil {
			return nil, fmt.Errorf("scan invalidation: %w", err)
		}
		invalidations = append(invalidations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invalidations: %w", err)
	}
	return invalidations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (ir.CaptureRecord, error) {
	var (
		c          ir.CaptureRecord
		framesJSON string
	)
	if err := row.Scan(&c.ID, &c.ThreadID, &c.Error, &framesJSON, &c.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.CaptureRecord{}, err
		}
		return ir.CaptureRecord{}, fmt.Errorf("scan capture: %w", err)
	}

	frames, err := unmarshalFrames(framesJSON)
	if err != nil {
		return ir.CaptureRecord{}, fmt.Errorf("capture %s: %w", c.ID, err)
	}
	c.Frames = frames
	return c, nil
}

// LastSeq returns the highest seq recorded in any table, or 0 for an empty
// database. A runtime appending to this store resumes its clock after it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM threads), 0),
			COALESCE((SELECT MAX(seq) FROM captures), 0),
			COALESCE((SELECT MAX(seq) FROM invalidations), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}
