package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTypes(t *testing.T) {
	tests := []struct {
		value    Value
		expected ValueType
	}{
		{Null{}, TypeNull},
		{String("x"), TypeString},
		{Int(1), TypeInt},
		{Float(1.5), TypeFloat},
		{Bool(true), TypeBool},
		{Ref(3), TypeRef},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.Type())
		})
	}
}

func TestValueTypeZero(t *testing.T) {
	assert.Equal(t, String(""), TypeString.Zero())
	assert.Equal(t, Int(0), TypeInt.Zero())
	assert.Equal(t, Float(0), TypeFloat.Zero())
	assert.Equal(t, Bool(false), TypeBool.Zero())
	assert.Equal(t, Ref(NoID), TypeRef.Zero())
	assert.Equal(t, Null{}, TypeNull.Zero())
}

func TestValueTypeAccepts(t *testing.T) {
	assert.True(t, TypeInt.Accepts(Int(4)))
	assert.False(t, TypeInt.Accepts(Float(4)))
	assert.False(t, TypeInt.Accepts(Null{}))
	assert.False(t, TypeInt.Accepts(nil))
	assert.True(t, TypeRef.Accepts(Ref(1)))
}

func TestParseValueType(t *testing.T) {
	for _, vt := range ValueTypes {
		parsed, err := ParseValueType(string(vt))
		require.NoError(t, err)
		assert.Equal(t, vt, parsed)
		assert.True(t, parsed.Valid())
	}

	_, err := ParseValueType("null")
	assert.Error(t, err)
	_, err = ParseValueType("decimal")
	assert.Error(t, err)
	assert.False(t, TypeNull.Valid())
}

func TestValuesAreComparable(t *testing.T) {
	var a, b Value = Ref(7), Ref(7)
	assert.True(t, a == b)
	assert.False(t, Value(Int(7)) == Value(Ref(7)), "same payload, different variant")
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
}

func TestIsNaN(t *testing.T) {
	assert.True(t, IsNaN(Float(math.NaN())))
	assert.False(t, IsNaN(Float(1)))
	assert.False(t, IsNaN(Int(0)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `"a b"`, Format(String("a b")))
	assert.Equal(t, "-3", Format(Int(-3)))
	assert.Equal(t, "0.5", Format(Float(0.5)))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "#12", Format(Ref(12)))
	assert.Equal(t, "null", Format(Null{}))
	assert.Equal(t, "null", Format(nil))
}

func TestNative(t *testing.T) {
	assert.Nil(t, Native(Null{}))
	assert.Equal(t, "s", Native(String("s")))
	assert.Equal(t, int64(2), Native(Int(2)))
	assert.Equal(t, 2.5, Native(Float(2.5)))
	assert.Equal(t, true, Native(Bool(true)))
	assert.Equal(t, uint32(9), Native(Ref(9)))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		typ      ValueType
		raw      any
		expected Value
	}{
		{"string", TypeString, "abc", String("abc")},
		{"int", TypeInt, 5, Int(5)},
		{"int64", TypeInt, int64(-5), Int(-5)},
		{"uint64", TypeInt, uint64(10), Int(10)},
		{"float", TypeFloat, 1.25, Float(1.25)},
		{"int widens to float", TypeFloat, 2, Float(2)},
		{"bool", TypeBool, true, Bool(true)},
		{"ref", TypeRef, 4, Ref(4)},
		{"nil is null", TypeString, nil, Null{}},
		{"value passthrough", TypeInt, Int(8), Int(8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Coerce(tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestCoerceErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  ValueType
		raw  any
	}{
		{"float into int", TypeInt, 1.5},
		{"float into ref", TypeRef, 2.0},
		{"string into int", TypeInt, "5"},
		{"int into string", TypeString, 5},
		{"negative ref", TypeRef, -1},
		{"ref overflow", TypeRef, int64(math.MaxUint32) + 1},
		{"uint64 overflow", TypeInt, uint64(math.MaxUint64)},
		{"NaN", TypeFloat, math.NaN()},
		{"wrong variant", TypeInt, Ref(1)},
		{"null type", TypeNull, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce(tt.typ, tt.raw)
			assert.Error(t, err)
		})
	}
}
