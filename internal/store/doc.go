// Package store provides SQLite-backed durable storage for the dispatch
// journal.
//
// The store is append-only:
//   - tables: compiled table versions, keyed by content hash
//   - dispatches: one row per journaled dispatch
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Every query
// that returns multiple dispatches uses ORDER BY seq ASC, id COLLATE BINARY
// ASC so results are identical across runs and replays.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Values are stored as RFC 8785 canonical JSON produced by internal/ir.
package store
