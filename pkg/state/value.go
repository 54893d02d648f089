package state

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
)

// String returns the kind name used in type errors
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is a script value. The zero Value is null.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Null returns the null value
func Null() Value {
	return Value{}
}

// Number creates a new numeric Value
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// String creates a new string Value
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Bool creates a new boolean Value
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String renders the value the way interpolation shows it: null is empty,
// numbers use their shortest decimal form.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Debug renders the value for traces and diagnostics, quoting strings
func (v Value) Debug() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindNull:
		return "null"
	default:
		return v.String()
	}
}

// AsNumber returns the numeric payload or an error naming the actual kind
func (v Value) AsNumber() (float64, error) {
	if v.Kind != KindNumber {
		return 0, fmt.Errorf("expected number, got %s", v.Kind)
	}

	return v.Num, nil
}

// Truthy applies the truthiness rule: booleans pass through, numbers are true when nonzero,
// strings when nonempty, null is false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindNull:
		return false
	default:
		return true
	}
}

// Equal compares by kind and payload without coercion
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	default:
		return true
	}
}

// MarshalJSON encodes the value as the matching JSON scalar
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a Value
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case string:
		*v = String(x)
	case bool:
		*v = Bool(x)
	default:
		return fmt.Errorf("unsupported value %s", string(data))
	}

	return nil
}

// FormatNumber renders a float in its natural decimal form (30, 2.5, -0.125)
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
