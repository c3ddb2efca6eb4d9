// Package identity issues process-unique record IDs.
package identity

import (
	"fmt"
	"math"

	"github.com/roach88/ontostore/internal/ir"
)

// Allocator is a strictly increasing ID counter.
//
// IDs are never decremented and never reused, even after the record that
// held them is removed. A removed record and a newly created one can
// therefore never alias each other.
//
// Thread-safety: Allocator is NOT safe for concurrent use. It belongs to the
// single goroutine that owns the store.
type Allocator struct {
	last ir.ID
}

// NewAllocator creates an allocator whose first ID is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// NewAllocatorAt creates an allocator that resumes after start.
// The next call to Next returns start+1.
func NewAllocatorAt(start ir.ID) *Allocator {
	return &Allocator{last: start}
}

// Next returns the next ID.
//
// Panics when the 32-bit ID space is exhausted; continuing would reuse IDs.
func (a *Allocator) Next() ir.ID {
	if a.last == math.MaxUint32 {
		panic(fmt.Sprintf("identity: id space exhausted after %d", a.last))
	}
	a.last++
	return a.last
}

// Current returns the most recently issued (or observed) ID without
// advancing. Returns ir.NoID before the first allocation.
func (a *Allocator) Current() ir.ID {
	return a.last
}

// Observe records an ID that was supplied from outside (a record loaded by
// id). Later calls to Next return values strictly greater than id.
func (a *Allocator) Observe(id ir.ID) {
	if id > a.last {
		a.last = id
	}
}
