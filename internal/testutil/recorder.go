// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/notify"
)

// Recorder captures delivered changes in delivery order.
//
// Attach it with notifier.SubscribeAll(rec.Handler()) or to one owner with
// notifier.Subscribe(id, property, rec.Handler()).
type Recorder struct {
	changes []notify.Change
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handler returns a notify.Handler that appends to the recorder.
func (r *Recorder) Handler() notify.Handler {
	return func(c notify.Change) error {
		r.changes = append(r.changes, notify.Change{
			Owner:      c.Owner,
			Properties: append([]string(nil), c.Properties...),
		})
		return nil
	}
}

// Changes returns every recorded change.
func (r *Recorder) Changes() []notify.Change {
	return r.changes
}

// Len returns the number of recorded changes.
func (r *Recorder) Len() int {
	return len(r.changes)
}

// Count returns how many recorded changes for owner carry property.
func (r *Recorder) Count(owner ir.ID, property string) int {
	n := 0
	for _, c := range r.changes {
		if c.Owner == owner && c.Has(property) {
			n++
		}
	}
	return n
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.changes = nil
}
