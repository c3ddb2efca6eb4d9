package store

import (
	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// Update overwrites a Unique or Nullable column.
//
// Writing ir.Null (or nil) is valid only on a Nullable column, where it is
// stored as an explicit null. Returns Failed for an owner that does not
// exist and for a NaN float. Every successful Update queues a change, even
// when the value is unchanged.
func (s *Store) Update(id ir.ID, table, column string, v ir.Value) Result {
	col := s.resolve(table, column)
	cells := s.requireScalar(col, "Update")
	s.checkType(col, v)

	if ir.IsNull(v) {
		if col.def.Cardinality != schema.Nullable {
			s.violate(schema.NewTypeMismatch(col.def, string(ir.TypeNull)))
		}
		v = ir.Null{}
	}
	if !s.Exists(id) || ir.IsNaN(v) {
		return s.done("update", col, id, Failed)
	}

	cells.set(id, v)
	return s.done("update", col, id, Success)
}

// Insert adds the pair (id, v) to an Intermediate column.
//
// Returns AlreadyExists if the pair is present, and Failed for an owner
// that does not exist or a null target (ir.Null, or a Ref to ir.NoID).
func (s *Store) Insert(id ir.ID, table, column string, v ir.Value) Result {
	col := s.resolve(table, column)
	cells := s.requireRelation(col, "Insert")
	s.checkType(col, v)

	if !s.Exists(id) || nullTarget(v) || ir.IsNaN(v) {
		return s.done("insert", col, id, Failed)
	}
	if !cells.insert(id, v) {
		return s.done("insert", col, id, AlreadyExists)
	}
	return s.done("insert", col, id, Success)
}

// Remove drops the single pair (id, v) from an Intermediate column.
// Returns Failed if the pair is not present.
func (s *Store) Remove(id ir.ID, table, column string, v ir.Value) Result {
	col := s.resolve(table, column)
	cells := s.requireRelation(col, "Remove")
	s.checkType(col, v)

	if nullTarget(v) || !cells.remove(id, v) {
		return s.done("remove", col, id, Failed)
	}
	return s.done("remove", col, id, Success)
}

// RemoveColumn drops every value id holds in one column, of any
// cardinality. Returns Failed if there was nothing to drop.
func (s *Store) RemoveColumn(id ir.ID, table, column string) Result {
	col := s.resolve(table, column)
	if !col.cells.clear(id) {
		return s.done("remove_column", col, id, Failed)
	}
	return s.done("remove_column", col, id, Success)
}

// RemoveAll drops every column entry id holds in one table. This is the
// per-type teardown step; it does not touch other tables or the record's
// existence. Returns Failed if id held nothing in the table.
//
// Observers see one change per distinct property that held a value,
// delivered after the whole table is cleared.
func (s *Store) RemoveAll(id ir.ID, tableName string) Result {
	t := s.resolveTable(tableName)
	res := Failed
	s.coord.StartChange()
	if s.clearTable(t, id) {
		res = Success
	}
	s.coord.StopChange()
	s.recordOp("remove_all", tableName, res)
	return res
}

// RemoveRecord tears down id: every column entry in every table, its name
// and its existence. The id is never reissued.
//
// RemoveRecord does not follow references. Records reached through owned
// links (see Owned) are the domain layer's to remove. Returns Failed if id
// is not a live record.
func (s *Store) RemoveRecord(id ir.ID) Result {
	if !s.Exists(id) {
		s.recordOp("remove_record", "", Failed)
		return Failed
	}

	s.coord.StartChange()
	for _, t := range s.order {
		s.clearTable(t, id)
	}
	s.coord.StopChange()

	if name, ok := s.nameOf[id]; ok {
		delete(s.names, name)
		delete(s.nameOf, id)
	}
	delete(s.records, id)
	s.removed[id] = struct{}{}

	s.recordOp("remove_record", "", Success)
	s.logger.Debug().Uint32("id", uint32(id)).Msg("record removed")
	return Success
}

func (s *Store) clearTable(t *table, id ir.ID) bool {
	removed := false
	for _, col := range t.columns {
		if col.cells.clear(id) {
			removed = true
			s.coord.Queue(id, col.def.Property)
		}
	}
	return removed
}

// done records the outcome of a single-column write and queues the change
// on success.
func (s *Store) done(op string, col *column, id ir.ID, res Result) Result {
	if res == Success {
		s.coord.Queue(id, col.def.Property)
	}
	s.recordOp(op, col.def.Table, res)
	return res
}

func nullTarget(v ir.Value) bool {
	if ir.IsNull(v) {
		return true
	}
	ref, ok := v.(ir.Ref)
	return ok && ref.ID() == ir.NoID
}
