package ir

import (
	"fmt"
	"strconv"
)

// ID identifies a record for the whole process lifetime.
// IDs are allocated by identity.Allocator and never reused.
type ID uint32

// NoID is the zero ID. It is never allocated and marks "no record".
const NoID ID = 0

// String renders the ID in decimal.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Valid reports whether the ID can refer to a record.
func (id ID) Valid() bool {
	return id != NoID
}

// ValueType is the declared type of a column.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
	TypeRef    ValueType = "ref"

	// TypeNull is the type of Null. It is never a valid column type.
	TypeNull ValueType = "null"
)

// ValueTypes lists the valid column types in declaration order.
var ValueTypes = []ValueType{TypeString, TypeInt, TypeFloat, TypeBool, TypeRef}

// ParseValueType converts a type name into a ValueType.
// Returns error for unknown names and for "null".
func ParseValueType(name string) (ValueType, error) {
	for _, t := range ValueTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown value type %q: must be one of %v", name, ValueTypes)
}

// Valid reports whether t may be declared as a column type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeRef:
		return true
	default:
		return false
	}
}

// Zero returns the empty value read from a column of this type that was
// never written.
func (t ValueType) Zero() Value {
	switch t {
	case TypeString:
		return String("")
	case TypeInt:
		return Int(0)
	case TypeFloat:
		return Float(0)
	case TypeBool:
		return Bool(false)
	case TypeRef:
		return Ref(NoID)
	default:
		return Null{}
	}
}

// Accepts reports whether v is a non-null value of type t.
func (t ValueType) Accepts(v Value) bool {
	if v == nil {
		return false
	}
	return v.Type() == t
}
