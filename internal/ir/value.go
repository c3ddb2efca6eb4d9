package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface representing a stored column value.
// Only Null, String, Int, Float, Bool, and Ref implement this.
//
// All variants are comparable, so two values are equal exactly when
// == reports true. Float NaN is rejected at the store boundary for that
// reason.
type Value interface {
	irValue() // Sealed - only these types implement it

	// Type returns the variant's ValueType (TypeNull for Null).
	Type() ValueType
}

// Null is the explicit empty value of a Nullable column.
type Null struct{}

func (Null) irValue()        {}
func (Null) Type() ValueType { return TypeNull }
func (Null) String() string  { return "null" }

// String is a text value.
type String string

func (String) irValue()        {}
func (String) Type() ValueType { return TypeString }

// Int is a 64-bit integer value.
type Int int64

func (Int) irValue()        {}
func (Int) Type() ValueType { return TypeInt }

// Float is a 64-bit floating point value.
type Float float64

func (Float) irValue()        {}
func (Float) Type() ValueType { return TypeFloat }

// Bool is a boolean value.
type Bool bool

func (Bool) irValue()        {}
func (Bool) Type() ValueType { return TypeBool }

// Ref is a link to another record by ID.
// Whether the link owns its target is a column annotation, not a property
// of the value.
type Ref ID

func (Ref) irValue()        {}
func (Ref) Type() ValueType { return TypeRef }

// ID returns the referenced record ID.
func (r Ref) ID() ID { return ID(r) }

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsNaN reports whether v is a Float holding NaN.
func IsNaN(v Value) bool {
	f, ok := v.(Float)
	return ok && math.IsNaN(float64(f))
}

// Format renders a value for logs and text output.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Ref:
		return "#" + ID(val).String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Native converts a value to its plain Go representation
// (nil, string, int64, float64, bool, uint32).
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Ref:
		return uint32(val)
	default:
		return nil
	}
}

// Coerce converts a decoded YAML or JSON scalar into a value of type t.
//
// nil becomes Null; the caller decides whether Null is permitted for the
// target column. Integers widen to Float and Ref, but floats never narrow to
// Int or Ref, and NaN is rejected.
func Coerce(t ValueType, raw any) (Value, error) {
	if raw == nil {
		return Null{}, nil
	}
	if v, ok := raw.(Value); ok {
		if v.Type() != t && v.Type() != TypeNull {
			return nil, fmt.Errorf("cannot use %s value as %s", v.Type(), t)
		}
		return v, nil
	}

	switch t {
	case TypeString:
		if s, ok := raw.(string); ok {
			return String(s), nil
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case TypeInt:
		n, ok, err := integer(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			return Int(n), nil
		}
	case TypeFloat:
		switch f := raw.(type) {
		case float64:
			if math.IsNaN(f) {
				return nil, fmt.Errorf("NaN is not a storable float")
			}
			return Float(f), nil
		case float32:
			return Float(f), nil
		}
		n, ok, err := integer(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			return Float(n), nil
		}
	case TypeRef:
		n, ok, err := integer(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			if n < 0 || n > math.MaxUint32 {
				return nil, fmt.Errorf("ref %d out of range", n)
			}
			return Ref(ID(n)), nil
		}
	default:
		return nil, fmt.Errorf("cannot coerce into %q", t)
	}
	return nil, fmt.Errorf("cannot use %T (%v) as %s", raw, raw, t)
}

// integer extracts an int64 from the integer kinds produced by decoders.
// ok is false when raw is not an integer kind at all.
func integer(raw any) (n int64, ok bool, err error) {
	switch v := raw.(type) {
	case int:
		return int64(v), true, nil
	case int32:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case uint32:
		return int64(v), true, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, false, fmt.Errorf("integer %d out of int64 range", v)
		}
		return int64(v), true, nil
	case float64, float32:
		return 0, false, fmt.Errorf("floats are not allowed here: %v", v)
	default:
		return 0, false, nil
	}
}
