package schema

import (
	"fmt"
	"sort"

	"github.com/roach88/ontostore/internal/ir"
)

// Registry maps table names to their definitions.
//
// Registration happens once at process warm-up. After Freeze the registry
// is read-only, so any number of goroutines may call Lookup and Column
// without synchronization. Register itself is NOT safe for concurrent use.
type Registry struct {
	tables map[string]*Table
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
	}
}

// Register validates and registers a table definition.
//
// Registering a name a second time with an identical definition is a no-op,
// so domain packages may register idempotently. A different definition
// under an existing name returns ErrCodeDuplicateTable.
func (r *Registry) Register(def Table) error {
	if r.frozen {
		return newError(ErrCodeFrozen, def.Name, "", "registry is frozen")
	}

	t, err := normalize(def)
	if err != nil {
		return err
	}

	if existing, ok := r.tables[t.Name]; ok {
		if existing.Fingerprint() == t.Fingerprint() {
			return nil
		}
		return newError(ErrCodeDuplicateTable, t.Name, "", "table already registered by %q with a different column set", existing.Owner)
	}

	r.tables[t.Name] = t
	return nil
}

// MustRegister is like Register but panics on error, and returns the
// registered definition. Use from domain setup code, where a bad schema
// must stop the process before any record exists.
func (r *Registry) MustRegister(def Table) *Table {
	if err := r.Register(def); err != nil {
		panic(err)
	}
	return r.tables[def.Name]
}

// Freeze ends warm-up. Subsequent Register calls fail.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Lookup returns the named table definition.
func (r *Registry) Lookup(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// Column resolves a (table, column) pair.
// Returns ErrCodeUnknownTable or ErrCodeUnknownColumn.
func (r *Registry) Column(table, column string) (*Column, error) {
	t, ok := r.tables[table]
	if !ok {
		return nil, NewUnknownTable(table)
	}
	c, ok := t.Column(column)
	if !ok {
		return nil, NewUnknownColumn(table, column)
	}
	return c, nil
}

// Tables returns all registered tables sorted by name.
func (r *Registry) Tables() []*Table {
	tables := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	return len(r.tables)
}

// Fingerprint hashes the whole schema. Journals record it so that entries
// written under different schemas can be told apart.
func (r *Registry) Fingerprint() string {
	tables := r.Tables()
	hashes := make(map[string]any, len(tables))
	for _, t := range tables {
		hashes[t.Name] = t.Fingerprint()
	}
	fp, err := ir.Fingerprint(ir.DomainSchema, hashes)
	if err != nil {
		panic(fmt.Sprintf("schema: fingerprint: %v", err))
	}
	return fp
}
