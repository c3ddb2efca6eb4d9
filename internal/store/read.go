package store

import (
	"iter"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// Select returns the value of a Unique or Nullable column.
//
// An absent Unique value reads as the column type's zero value; an absent
// Nullable value reads as ir.Null. Panics on schema mismatch, including
// Select on an Intermediate column.
func (s *Store) Select(id ir.ID, table, column string) ir.Value {
	col := s.resolve(table, column)
	cells := s.requireScalar(col, "Select")
	if v, ok := cells.lookup(id); ok {
		return v
	}
	return absent(col.def)
}

// Lookup is Select that also reports whether a value is stored.
//
// For a Nullable column this distinguishes "explicitly null" (Null, true)
// from "never set" (Null, false).
func (s *Store) Lookup(id ir.ID, table, column string) (ir.Value, bool) {
	col := s.resolve(table, column)
	cells := s.requireScalar(col, "Lookup")
	if v, ok := cells.lookup(id); ok {
		return v, true
	}
	return absent(col.def), false
}

// SelectAll returns every value id holds in the column, in insertion order.
//
// Valid for every cardinality: a scalar column yields zero or one value.
// The returned slice is a copy.
func (s *Store) SelectAll(id ir.ID, table, column string) []ir.Value {
	col := s.resolve(table, column)
	return col.cells.get(id)
}

// Values is SelectAll as an iterator. Each range over the returned
// sequence re-reads the store, so it is restartable and reflects writes
// made since the previous range.
func (s *Store) Values(id ir.ID, table, column string) iter.Seq[ir.Value] {
	col := s.resolve(table, column)
	return func(yield func(ir.Value) bool) {
		for _, v := range col.cells.get(id) {
			if !yield(v) {
				return
			}
		}
	}
}

// Count returns how many values id holds in the column.
func (s *Store) Count(id ir.ID, table, column string) int {
	col := s.resolve(table, column)
	if rel := col.relation(); rel != nil {
		return rel.size(id)
	}
	if col.cells.has(id) {
		return 1
	}
	return 0
}

// Contains reports whether id holds v in the column.
// For a scalar column this compares against the stored value.
func (s *Store) Contains(id ir.ID, table, column string, v ir.Value) bool {
	col := s.resolve(table, column)
	s.checkType(col, v)
	if rel := col.relation(); rel != nil {
		return rel.contains(id, v)
	}
	stored, ok := col.scalar().lookup(id)
	return ok && stored == v
}

// Has reports whether id holds any value in the column.
func (s *Store) Has(id ir.ID, table, column string) bool {
	return s.resolve(table, column).cells.has(id)
}

func absent(def *schema.Column) ir.Value {
	if def.Cardinality == schema.Nullable {
		return ir.Null{}
	}
	return def.Type.Zero()
}
