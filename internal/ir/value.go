package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface representing a literal usable in a condition.
// Only Null, String, Int, Bool, List and Object implement it.
// There is no Float: floats do not round-trip through SQL text reliably.
type Value interface {
	irValue()
}

// Null is the SQL NULL literal.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text literal.
type String string

func (String) irValue() {}

// Int is an integer literal. Always int64.
type Int int64

func (Int) irValue() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) irValue() {}

// List is an ordered collection of values. Lists appear in fingerprints,
// never directly inside a rendered predicate.
type List []Value

func (List) irValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// Strings converts plain Go strings into String values.
func Strings(ss ...string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// Ints converts plain Go integers into Int values.
func Ints(ns ...int64) []Value {
	out := make([]Value, len(ns))
	for i, n := range ns {
		out[i] = Int(n)
	}
	return out
}

// FromAny converts a decoded YAML/JSON scalar into a Value.
// Whole floats are accepted as Int (YAML and JSON decoders produce them for
// plain numbers); fractional floats are rejected.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not an integer literal", val)
		}
		return Int(n), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("fractional number %v is not a supported literal; quote it as a string", val)
		}
		return Int(int64(val)), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = item
		}
		return list, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			item, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = item
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

// ToAny converts a scalar Value into the Go type a database/sql driver
// accepts as a statement argument.
func ToAny(v Value) (any, error) {
	switch val := v.(type) {
	case nil, Null:
		return nil, nil
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Bool:
		return bool(val), nil
	case List:
		return nil, fmt.Errorf("List cannot be used as a statement argument directly")
	case Object:
		return nil, fmt.Errorf("Object cannot be used as a statement argument directly")
	default:
		return nil, fmt.Errorf("unsupported value type for statement argument: %T", v)
	}
}

// Display renders a value for diagnostics (not for SQL).
func Display(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case String:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		data, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 order, which differs for astral characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
