package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops everything. Runtime tests pass
// it via engine.WithLogger to keep test output readable.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
