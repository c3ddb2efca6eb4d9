package store

import (
	"slices"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// cells is the storage behind one column. Its implementation is picked
// from the column's cardinality when the store is built, so no call
// inspects value types at runtime.
type cells interface {
	// get returns the values held by owner in stored order.
	get(owner ir.ID) []ir.Value

	// has reports whether owner holds any value.
	has(owner ir.ID) bool

	// clear drops every value held by owner and reports whether there was
	// anything to drop.
	clear(owner ir.ID) bool

	// owners returns every owner holding at least one value, ascending.
	owners() []ir.ID
}

// scalarCells backs Unique and Nullable columns.
type scalarCells struct {
	values map[ir.ID]ir.Value
}

func newScalarCells() *scalarCells {
	return &scalarCells{values: make(map[ir.ID]ir.Value)}
}

func (c *scalarCells) get(owner ir.ID) []ir.Value {
	v, ok := c.values[owner]
	if !ok {
		return nil
	}
	return []ir.Value{v}
}

func (c *scalarCells) has(owner ir.ID) bool {
	_, ok := c.values[owner]
	return ok
}

func (c *scalarCells) clear(owner ir.ID) bool {
	if _, ok := c.values[owner]; !ok {
		return false
	}
	delete(c.values, owner)
	return true
}

func (c *scalarCells) owners() []ir.ID {
	return sortedKeys(c.values)
}

func (c *scalarCells) lookup(owner ir.ID) (ir.Value, bool) {
	v, ok := c.values[owner]
	return v, ok
}

func (c *scalarCells) set(owner ir.ID, v ir.Value) {
	c.values[owner] = v
}

// relation is the ordered set of values paired with one owner.
type relation struct {
	values []ir.Value
	index  map[ir.Value]int
}

// relationCells backs Intermediate columns.
type relationCells struct {
	pairs map[ir.ID]*relation
}

func newRelationCells() *relationCells {
	return &relationCells{pairs: make(map[ir.ID]*relation)}
}

func (c *relationCells) get(owner ir.ID) []ir.Value {
	rel, ok := c.pairs[owner]
	if !ok {
		return nil
	}
	return slices.Clone(rel.values)
}

func (c *relationCells) has(owner ir.ID) bool {
	_, ok := c.pairs[owner]
	return ok
}

func (c *relationCells) clear(owner ir.ID) bool {
	if _, ok := c.pairs[owner]; !ok {
		return false
	}
	delete(c.pairs, owner)
	return true
}

func (c *relationCells) owners() []ir.ID {
	return sortedKeys(c.pairs)
}

func (c *relationCells) contains(owner ir.ID, v ir.Value) bool {
	rel, ok := c.pairs[owner]
	if !ok {
		return false
	}
	_, ok = rel.index[v]
	return ok
}

func (c *relationCells) size(owner ir.ID) int {
	rel, ok := c.pairs[owner]
	if !ok {
		return 0
	}
	return len(rel.values)
}

// insert appends (owner, v). Returns false if the pair is already present.
func (c *relationCells) insert(owner ir.ID, v ir.Value) bool {
	rel, ok := c.pairs[owner]
	if !ok {
		rel = &relation{index: make(map[ir.Value]int)}
		c.pairs[owner] = rel
	}
	if _, dup := rel.index[v]; dup {
		return false
	}
	rel.index[v] = len(rel.values)
	rel.values = append(rel.values, v)
	return true
}

// remove drops (owner, v), preserving the order of the remaining values.
// An owner whose last pair is removed holds no entry at all.
func (c *relationCells) remove(owner ir.ID, v ir.Value) bool {
	rel, ok := c.pairs[owner]
	if !ok {
		return false
	}
	i, ok := rel.index[v]
	if !ok {
		return false
	}

	rel.values = slices.Delete(rel.values, i, i+1)
	delete(rel.index, v)
	for j := i; j < len(rel.values); j++ {
		rel.index[rel.values[j]] = j
	}

	if len(rel.values) == 0 {
		delete(c.pairs, owner)
	}
	return true
}

// column binds a registered definition to its storage.
type column struct {
	def   *schema.Column
	cells cells
}

func newColumn(def *schema.Column) *column {
	col := &column{def: def}
	if def.Cardinality.Scalar() {
		col.cells = newScalarCells()
	} else {
		col.cells = newRelationCells()
	}
	return col
}

func (c *column) scalar() *scalarCells {
	s, _ := c.cells.(*scalarCells)
	return s
}

func (c *column) relation() *relationCells {
	r, _ := c.cells.(*relationCells)
	return r
}

// table holds the columns of one registered table in declaration order.
type table struct {
	def     *schema.Table
	columns []*column
	byName  map[string]*column
}

func newTable(def *schema.Table) *table {
	t := &table{
		def:     def,
		columns: make([]*column, len(def.Columns)),
		byName:  make(map[string]*column, len(def.Columns)),
	}
	for i := range def.Columns {
		col := newColumn(&def.Columns[i])
		t.columns[i] = col
		t.byName[col.def.Name] = col
	}
	return t
}

func sortedKeys[V any](m map[ir.ID]V) []ir.ID {
	ids := make([]ir.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
