// Package journal provides a SQLite-backed append-only log of delivered
// change notifications.
//
// The journal is an observer. It records what observers were told, never
// the store's column values, so it cannot restore a store and is not a
// persistence layer. Its uses are diagnostics, the `ontostore trace`
// command, and comparing the notification streams of two runs.
//
// # Layout
//
//   - sessions: one row per store lifetime (id, schema fingerprint, label)
//   - entries: one row per delivered Change, ordered by seq within a session
//
// # Ordering
//
// Entries are ordered by their per-session seq, assigned in delivery
// order, NEVER by timestamp. Queries always include ORDER BY seq ASC so
// results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
