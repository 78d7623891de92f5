// Package store provides SQLite-backed durable storage for the runtime's
// recorder log.
//
// The store is append-only and holds:
//   - Threads: one row per execution thread
//   - Captures: stack traces captured when a guest error was thrown
//   - Invalidations: speculation flags that stopped holding
//
// All ordering uses the seq column (logical clock), never timestamps.
// Queries order by seq ASC, id ASC so results are identical across runs.
//
// Capture IDs are content-addressed via ir.CaptureID (RFC 8785 canonical
// JSON, SHA-256 with domain separation), so writing the same capture twice
// stores it once.
package store
