// Package store implements the in-memory, schema-typed record store.
//
// A Store owns three things:
//
//   - record identity: ids from an identity.Allocator, existence tracked
//     independently of column values, and an optional unique name
//   - column storage: one container per registered column, chosen by the
//     column's cardinality when the store is built
//   - change queueing: every successful write queues (owner, property)
//     with a txn.Coordinator, which decides when the notify.Notifier
//     delivers it
//
// Schema violations (unknown table or column, wrong value type, an
// operation the cardinality does not support) are programmer errors. The
// store logs them and panics with a *schema.Error. Relational outcomes
// (pair already present, nothing to remove, unknown owner) are reported as
// a Result.
//
// Reads never fail. Reading a record that does not exist behaves exactly
// like reading a column that was never written.
//
// CRITICAL: a Store has no internal locking. All calls, including reads,
// must come from the goroutine that owns it.
package store
