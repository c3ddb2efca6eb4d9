package store

import (
	"iter"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// Scalar is the set of value types a typed handle can carry.
type Scalar interface {
	ir.String | ir.Int | ir.Float | ir.Bool | ir.Ref
}

// typeOf returns the ValueType of T.
func typeOf[T Scalar]() ir.ValueType {
	var zero T
	return any(zero).(ir.Value).Type()
}

func asValue[T Scalar](v T) ir.Value {
	return any(v).(ir.Value)
}

// bind resolves (table, column) once and checks it against T and the
// expected cardinality. Panics on mismatch.
func bind[T Scalar](s *Store, table, column string, want schema.Cardinality, op string) *column {
	col := s.resolve(table, column)
	if got := typeOf[T](); col.def.Type != got {
		s.violate(schema.NewTypeMismatch(col.def, string(got)))
	}
	if col.def.Cardinality != want {
		s.violate(schema.NewCardinalityMismatch(col.def, op))
	}
	return col
}

// UniqueOf is a typed accessor for a Unique column.
//
// Handles are resolved and checked when bound, typically in a domain
// package's setup. Reads then go straight to the column's storage without
// name lookups or runtime type checks; writes go through the Store so they
// are validated and queued like any other write.
type UniqueOf[T Scalar] struct {
	s   *Store
	col *column
}

// BindUnique returns a handle for a Unique column holding T.
// Panics with a *schema.Error if the column is unknown, holds another
// type, or is not Unique.
func BindUnique[T Scalar](s *Store, table, column string) UniqueOf[T] {
	return UniqueOf[T]{s: s, col: bind[T](s, table, column, schema.Unique, "BindUnique")}
}

// Get returns the stored value, or T's zero value if absent.
func (h UniqueOf[T]) Get(id ir.ID) T {
	if v, ok := h.col.scalar().lookup(id); ok {
		return v.(T)
	}
	var zero T
	return zero
}

// Set overwrites the value. See Store.Update.
func (h UniqueOf[T]) Set(id ir.ID, v T) Result {
	return h.s.Update(id, h.col.def.Table, h.col.def.Name, asValue(v))
}

// Clear drops the value. See Store.RemoveColumn.
func (h UniqueOf[T]) Clear(id ir.ID) Result {
	return h.s.RemoveColumn(id, h.col.def.Table, h.col.def.Name)
}

// Column returns the bound definition.
func (h UniqueOf[T]) Column() *schema.Column {
	return h.col.def
}

// NullableOf is a typed accessor for a Nullable column.
type NullableOf[T Scalar] struct {
	s   *Store
	col *column
}

// BindNullable returns a handle for a Nullable column holding T.
func BindNullable[T Scalar](s *Store, table, column string) NullableOf[T] {
	return NullableOf[T]{s: s, col: bind[T](s, table, column, schema.Nullable, "BindNullable")}
}

// Get returns the stored value. ok is false when the column is null or was
// never set.
func (h NullableOf[T]) Get(id ir.ID) (value T, ok bool) {
	v, present := h.col.scalar().lookup(id)
	if !present || ir.IsNull(v) {
		return value, false
	}
	return v.(T), true
}

// IsNull reports whether the column holds an explicit null.
func (h NullableOf[T]) IsNull(id ir.ID) bool {
	v, present := h.col.scalar().lookup(id)
	return present && ir.IsNull(v)
}

// IsSet reports whether anything, null included, is stored.
func (h NullableOf[T]) IsSet(id ir.ID) bool {
	return h.col.cells.has(id)
}

// Set stores a non-null value.
func (h NullableOf[T]) Set(id ir.ID, v T) Result {
	return h.s.Update(id, h.col.def.Table, h.col.def.Name, asValue(v))
}

// SetNull stores an explicit null.
func (h NullableOf[T]) SetNull(id ir.ID) Result {
	return h.s.Update(id, h.col.def.Table, h.col.def.Name, ir.Null{})
}

// Clear returns the column to "never set".
func (h NullableOf[T]) Clear(id ir.ID) Result {
	return h.s.RemoveColumn(id, h.col.def.Table, h.col.def.Name)
}

// Column returns the bound definition.
func (h NullableOf[T]) Column() *schema.Column {
	return h.col.def
}

// RelationOf is a typed accessor for an Intermediate column.
type RelationOf[T Scalar] struct {
	s   *Store
	col *column
}

// BindRelation returns a handle for an Intermediate column holding T.
func BindRelation[T Scalar](s *Store, table, column string) RelationOf[T] {
	return RelationOf[T]{s: s, col: bind[T](s, table, column, schema.Intermediate, "BindRelation")}
}

// All returns the values paired with id in insertion order.
func (h RelationOf[T]) All(id ir.ID) []T {
	values := h.col.cells.get(id)
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = v.(T)
	}
	return out
}

// Values returns a restartable iterator over the values paired with id.
func (h RelationOf[T]) Values(id ir.ID) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range h.col.cells.get(id) {
			if !yield(v.(T)) {
				return
			}
		}
	}
}

// Len returns the number of pairs held by id.
func (h RelationOf[T]) Len(id ir.ID) int {
	return h.col.relation().size(id)
}

// Contains reports whether (id, v) is present.
func (h RelationOf[T]) Contains(id ir.ID, v T) bool {
	return h.col.relation().contains(id, asValue(v))
}

// Insert adds (id, v). See Store.Insert.
func (h RelationOf[T]) Insert(id ir.ID, v T) Result {
	return h.s.Insert(id, h.col.def.Table, h.col.def.Name, asValue(v))
}

// Remove drops (id, v). See Store.Remove.
func (h RelationOf[T]) Remove(id ir.ID, v T) Result {
	return h.s.Remove(id, h.col.def.Table, h.col.def.Name, asValue(v))
}

// Clear drops every pair held by id.
func (h RelationOf[T]) Clear(id ir.ID) Result {
	return h.s.RemoveColumn(id, h.col.def.Table, h.col.def.Name)
}

// Column returns the bound definition.
func (h RelationOf[T]) Column() *schema.Column {
	return h.col.def
}
