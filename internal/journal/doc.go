// Package journal implements a batch writer that persists connection
// events to PostgreSQL. Events are buffered in memory, transformed to
// rows, and flushed either when a batch fills or on a timer.
//
// The journal is append-only. Rows are never updated after insert.
package journal
