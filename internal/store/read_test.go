package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontostore/internal/ir"
	"github.com/roach88/ontostore/internal/schema"
)

func TestSelectAbsentReturnsZeroValue(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	assert.Equal(t, ir.Int(0), s.Select(id, "Counter", "Value"))
	assert.Equal(t, ir.Float(0), s.Select(id, "Counter", "Ratio"))
	assert.Equal(t, ir.Bool(false), s.Select(id, "Counter", "Enabled"))
	assert.Equal(t, ir.Ref(ir.NoID), s.Select(id, "Effect", "Chance"))
	assert.Equal(t, ir.String(""), s.Select(id, "Effect", "Title"))
	assert.Equal(t, ir.Null{}, s.Select(id, "Counter", "Label"), "absent nullable reads as null")
}

func TestReadsOfMissingRecordAreEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	missing := ir.ID(999)

	assert.Equal(t, ir.Int(0), s.Select(missing, "Counter", "Value"))
	assert.Empty(t, s.SelectAll(missing, "Counter", "Items"))
	assert.False(t, s.Contains(missing, "Counter", "Items", ir.String("x")))
	assert.False(t, s.Has(missing, "Counter", "Value"))
	assert.Equal(t, 0, s.Count(missing, "Counter", "Items"))

	_, ok := s.Lookup(missing, "Counter", "Label")
	assert.False(t, ok)
}

func TestLookupDistinguishesNullFromUnset(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	v, ok := s.Lookup(id, "Counter", "Label")
	assert.False(t, ok)
	assert.Equal(t, ir.Null{}, v)

	require.Equal(t, Success, s.Update(id, "Counter", "Label", ir.Null{}))
	v, ok = s.Lookup(id, "Counter", "Label")
	assert.True(t, ok, "explicit null is stored")
	assert.Equal(t, ir.Null{}, v)

	require.Equal(t, Success, s.Update(id, "Counter", "Label", ir.String("x")))
	v, ok = s.Lookup(id, "Counter", "Label")
	assert.True(t, ok)
	assert.Equal(t, ir.String("x"), v)
}

func TestSelectAllScalarColumn(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	assert.Empty(t, s.SelectAll(id, "Counter", "Value"))
	s.Update(id, "Counter", "Value", ir.Int(3))
	assert.Equal(t, []ir.Value{ir.Int(3)}, s.SelectAll(id, "Counter", "Value"))
	assert.Equal(t, 1, s.Count(id, "Counter", "Value"))
}

func TestSelectAllPreservesInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	for _, v := range []string{"c", "a", "b"} {
		require.Equal(t, Success, s.Insert(id, "Counter", "Items", ir.String(v)))
	}

	assert.Equal(t, []ir.Value{ir.String("c"), ir.String("a"), ir.String("b")},
		s.SelectAll(id, "Counter", "Items"))
}

func TestSelectAllReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()
	s.Insert(id, "Counter", "Items", ir.String("a"))

	got := s.SelectAll(id, "Counter", "Items")
	got[0] = ir.String("mutated")

	assert.Equal(t, []ir.Value{ir.String("a")}, s.SelectAll(id, "Counter", "Items"))
}

func TestValuesIsRestartable(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()
	s.Insert(id, "Counter", "Items", ir.String("a"))

	seq := s.Values(id, "Counter", "Items")

	collect := func() []ir.Value {
		var out []ir.Value
		for v := range seq {
			out = append(out, v)
		}
		return out
	}

	assert.Equal(t, []ir.Value{ir.String("a")}, collect())
	assert.Equal(t, []ir.Value{ir.String("a")}, collect(), "second range re-enumerates")

	s.Insert(id, "Counter", "Items", ir.String("b"))
	assert.Equal(t, []ir.Value{ir.String("a"), ir.String("b")}, collect(), "range reflects later writes")

	for v := range seq {
		assert.Equal(t, ir.String("a"), v)
		break
	}
}

func TestContains(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	s.Insert(id, "Counter", "Items", ir.String("a"))
	s.Update(id, "Counter", "Value", ir.Int(7))

	assert.True(t, s.Contains(id, "Counter", "Items", ir.String("a")))
	assert.False(t, s.Contains(id, "Counter", "Items", ir.String("b")))
	assert.True(t, s.Contains(id, "Counter", "Value", ir.Int(7)))
	assert.False(t, s.Contains(id, "Counter", "Value", ir.Int(8)))
}

func TestReadSchemaViolations(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.Create()

	tests := []struct {
		name string
		fn   func()
		code schema.ErrorCode
	}{
		{"unknown table", func() { s.Select(id, "Nope", "Value") }, schema.ErrCodeUnknownTable},
		{"unknown column", func() { s.Select(id, "Counter", "Nope") }, schema.ErrCodeUnknownColumn},
		{"select on relation", func() { s.Select(id, "Counter", "Items") }, schema.ErrCodeCardinalityMismatch},
		{"lookup on relation", func() { s.Lookup(id, "Counter", "Items") }, schema.ErrCodeCardinalityMismatch},
		{"selectAll unknown column", func() { s.SelectAll(id, "Counter", "Nope") }, schema.ErrCodeUnknownColumn},
		{"values unknown table", func() { s.Values(id, "Nope", "Items") }, schema.ErrCodeUnknownTable},
		{"contains wrong type", func() { s.Contains(id, "Counter", "Items", ir.Int(1)) }, schema.ErrCodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemaPanic(t, tt.fn)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}
