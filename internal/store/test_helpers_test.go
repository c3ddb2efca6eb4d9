package store

import (
	"testing"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
	"github.com/roach88/ontostore/internal/testutil"
)

// testRegistry registers the tables used across store tests.
func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	reg.MustRegister(schema.Table{
		Name: "Counter",
		Columns: []schema.Column{
			{Name: "Value", Type: ir.TypeInt, Cardinality: schema.Unique},
			{Name: "Label", Type: ir.TypeString, Cardinality: schema.Nullable},
			{Name: "Items", Type: ir.TypeString, Cardinality: schema.Intermediate},
			{Name: "Ratio", Type: ir.TypeFloat, Cardinality: schema.Unique},
			{Name: "Enabled", Type: ir.TypeBool, Cardinality: schema.Unique},
		},
	})
	reg.MustRegister(schema.Table{
		Name:  "Effect",
		Owner: "Effect",
		Columns: []schema.Column{
			{Name: "Chance", Type: ir.TypeRef, Cardinality: schema.Unique, Link: schema.LinkOwned},
			{Name: "Targets", Type: ir.TypeRef, Cardinality: schema.Intermediate},
			{Name: "Parts", Type: ir.TypeRef, Cardinality: schema.Intermediate, Link: schema.LinkOwned},
			{Name: "Label", Type: ir.TypeString, Cardinality: schema.Nullable, Property: "Name"},
			{Name: "Title", Type: ir.TypeString, Cardinality: schema.Unique, Property: "Name"},
		},
	})
	reg.MustRegister(schema.Table{
		Name: "Chance",
		Columns: []schema.Column{
			{Name: "Probability", Type: ir.TypeFloat, Cardinality: schema.Unique},
		},
	})
	return reg
}

// newTestStore creates a store over testRegistry with a recorder attached
// to every delivered change.
func newTestStore(t *testing.T, opts ...Option) (*Store, *testutil.Recorder) {
	t.Helper()
	s := New(testRegistry(t), opts...)
	rec := testutil.NewRecorder()
	s.Notifier().SubscribeAll(rec.Handler())
	return s, rec
}

// schemaPanic runs fn and returns the *schema.Error it panicked with.
func schemaPanic(t *testing.T, fn func()) (err *schema.Error) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected a schema panic")
		}
		se, ok := r.(*schema.Error)
		if !ok {
			t.Fatalf("panic value is %T, want *schema.Error: %v", r, r)
		}
		err = se
	}()
	fn()
	return nil
}
