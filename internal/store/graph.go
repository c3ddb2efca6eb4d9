package store

import (
	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

// RefSite is one place a ref column points at a record.
type RefSite struct {
	Table  string
	Column string
	Owner  ir.ID
}

// Owned returns the ids id links to through columns annotated
// schema.LinkOwned, in table order then column order then insertion order,
// without duplicates.
//
// The store never cascades on its own. Domain teardown removes the owned
// records (Owned, then RemoveRecord for each) before removing the owner.
func (s *Store) Owned(id ir.ID) []ir.ID {
	var out []ir.ID
	seen := make(map[ir.ID]struct{})
	for _, t := range s.order {
		for _, col := range t.columns {
			if col.def.Link != schema.LinkOwned {
				continue
			}
			for _, v := range col.cells.get(id) {
				ref, ok := v.(ir.Ref)
				if !ok || ref.ID() == ir.NoID {
					continue
				}
				if _, dup := seen[ref.ID()]; dup {
					continue
				}
				seen[ref.ID()] = struct{}{}
				out = append(out, ref.ID())
			}
		}
	}
	return out
}

// Referrers returns every site still linking to target through a ref
// column of either link kind, ordered by table, column and owner.
//
// A non-empty result after target was removed means a dangling link.
func (s *Store) Referrers(target ir.ID) []RefSite {
	if target == ir.NoID {
		return nil
	}
	want := ir.Ref(target)

	var out []RefSite
	for _, t := range s.order {
		for _, col := range t.columns {
			if col.def.Type != ir.TypeRef {
				continue
			}
			for _, owner := range col.cells.owners() {
				if !holds(col, owner, want) {
					continue
				}
				out = append(out, RefSite{Table: t.def.Name, Column: col.def.Name, Owner: owner})
			}
		}
	}
	return out
}

func holds(col *column, owner ir.ID, v ir.Value) bool {
	if rel := col.relation(); rel != nil {
		return rel.contains(owner, v)
	}
	stored, ok := col.scalar().lookup(owner)
	return ok && stored == v
}
