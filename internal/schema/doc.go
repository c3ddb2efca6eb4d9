// Package schema declares and registers the table shapes of domain types.
//
// A table is owned by exactly one domain type and holds an ordered list of
// columns. Each column has a declared value type, a cardinality and, for ref
// columns, an explicit link annotation:
//
//   - Unique: at most one value; absent reads as the type's zero value
//   - Nullable: at most one value; Null is a stored, distinguishable state
//   - Intermediate: an ordered set of (owner, value) relation pairs
//
// Ref columns are annotated LinkReference (weak link) or LinkOwned (the
// owner owns the target). The store never infers ownership from
// cardinality; domain code uses the annotation to drive graph cascade.
//
// Tables are registered once, before the first record is created, either
// from Go code (Registry.MustRegister) or from CUE files (LoadDir). After
// warm-up the registry is frozen and read without locking.
package schema
