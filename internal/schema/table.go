package schema

import (
	"fmt"

	"github.com/roach88/ontostore/internal/ir"
)

// Cardinality defines how many values a column holds per owner.
type Cardinality string

const (
	// Unique holds at most one value; a write overwrites unconditionally.
	Unique Cardinality = "unique"

	// Nullable is Unique where Null is a valid stored value, distinguishable
	// from "never set".
	Nullable Cardinality = "nullable"

	// Intermediate holds a set of (owner, value) relation pairs.
	Intermediate Cardinality = "intermediate"
)

// ParseCardinality converts a cardinality name into a Cardinality.
func ParseCardinality(name string) (Cardinality, error) {
	switch Cardinality(name) {
	case Unique, Nullable, Intermediate:
		return Cardinality(name), nil
	default:
		return "", fmt.Errorf("invalid cardinality %q: must be unique, nullable, or intermediate", name)
	}
}

// Scalar reports whether the cardinality holds at most one value.
func (c Cardinality) Scalar() bool {
	return c == Unique || c == Nullable
}

// Link annotates what a ref column's value means to its owner.
type Link string

const (
	// LinkNone marks a plain data column (every non-ref column).
	LinkNone Link = ""

	// LinkReference marks a weak link: the target lives independently.
	LinkReference Link = "reference"

	// LinkOwned marks an ownership link: removing the owner should remove
	// the target. The store reports owned targets but never cascades.
	LinkOwned Link = "owned"
)

// ParseLink converts a link name into a Link.
func ParseLink(name string) (Link, error) {
	switch Link(name) {
	case LinkNone, LinkReference, LinkOwned:
		return Link(name), nil
	default:
		return "", fmt.Errorf("invalid link %q: must be reference or owned", name)
	}
}

// Column is one column definition.
type Column struct {
	// Name is the column name, unique within its table.
	Name string

	// Type is the declared value type.
	Type ir.ValueType

	// Cardinality is Unique, Nullable or Intermediate.
	Cardinality Cardinality

	// Link is the ownership annotation for ref columns.
	// Defaults to LinkReference for ref columns.
	Link Link

	// Property is the logical property name used for change notifications.
	// Defaults to Name. Several columns may share one property.
	Property string

	// Table is the owning table's name. Set at registration.
	Table string
}

// Table is a table definition.
// Registered tables are immutable; do not modify a *Table returned by the
// registry.
type Table struct {
	// Name identifies the table.
	Name string

	// Owner names the domain type that declares the table.
	// Defaults to Name.
	Owner string

	// Columns in declaration order.
	Columns []Column

	index map[string]int
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.Columns[i], true
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Fingerprint returns a content hash of the definition.
// Two definitions are interchangeable exactly when their fingerprints match.
func (t *Table) Fingerprint() string {
	fp, err := ir.Fingerprint(ir.DomainTable, t.canonical())
	if err != nil {
		// canonical() only produces strings, slices and maps
		panic(fmt.Sprintf("schema: fingerprint %s: %v", t.Name, err))
	}
	return fp
}

func (t *Table) canonical() map[string]any {
	cols := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = map[string]any{
			"name":        c.Name,
			"type":        string(c.Type),
			"cardinality": string(c.Cardinality),
			"link":        string(c.Link),
			"property":    c.Property,
		}
	}
	return map[string]any{
		"name":    t.Name,
		"owner":   t.Owner,
		"columns": cols,
	}
}

// normalize validates a definition and fills defaults, returning a private
// copy safe to store in the registry.
func normalize(def Table) (*Table, error) {
	if def.Name == "" {
		return nil, newError(ErrCodeInvalidDefinition, "", "", "table name is required")
	}
	if len(def.Columns) == 0 {
		return nil, newError(ErrCodeInvalidDefinition, def.Name, "", "at least one column is required")
	}

	t := &Table{
		Name:    def.Name,
		Owner:   def.Owner,
		Columns: make([]Column, len(def.Columns)),
		index:   make(map[string]int, len(def.Columns)),
	}
	if t.Owner == "" {
		t.Owner = def.Name
	}

	for i, c := range def.Columns {
		if c.Name == "" {
			return nil, newError(ErrCodeInvalidDefinition, def.Name, "", "column %d has no name", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, newError(ErrCodeInvalidDefinition, def.Name, c.Name, "column declared twice")
		}
		if !c.Type.Valid() {
			return nil, newError(ErrCodeInvalidDefinition, def.Name, c.Name, "invalid value type %q", c.Type)
		}
		if _, err := ParseCardinality(string(c.Cardinality)); err != nil {
			return nil, newError(ErrCodeInvalidDefinition, def.Name, c.Name, "%v", err)
		}
		if _, err := ParseLink(string(c.Link)); err != nil {
			return nil, newError(ErrCodeInvalidDefinition, def.Name, c.Name, "%v", err)
		}

		switch {
		case c.Type == ir.TypeRef && c.Link == LinkNone:
			c.Link = LinkReference
		case c.Type != ir.TypeRef && c.Link != LinkNone:
			return nil, newError(ErrCodeInvalidDefinition, def.Name, c.Name, "link %q is only valid on ref columns", c.Link)
		}
		if c.Property == "" {
			c.Property = c.Name
		}
		c.Table = def.Name

		t.Columns[i] = c
		t.index[c.Name] = i
	}

	return t, nil
}
