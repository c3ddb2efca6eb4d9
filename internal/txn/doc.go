// Package txn batches change notifications in nested scopes.
//
// Two scope kinds share one LIFO frame stack:
//
//   - Change scope (StartChange/StopChange): a composite domain operation.
//     Each (owner, property) pair is reported once, however often it is
//     written inside the scope.
//   - Query scope (QueryBegin/QueryCommit): groups a handful of column
//     writes on one record. All properties written on an owner collapse
//     into a single aggregate Change.
//
// Closing a frame merges its pending changes into the enclosing frame, or
// delivers them in first-write order when it was the outermost. Writes made
// with no open scope are delivered immediately.
//
// Scopes govern notification delivery only. Writes take effect in the store
// immediately and there is no rollback.
//
// CRITICAL: the coordinator is a plain counter stack with no
// synchronization. It must only be used from the goroutine that owns the
// store.
package txn
