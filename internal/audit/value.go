package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON values an auditor may put in a
// clause's `expected` slot or an action's `compare_to`.
//
// Only Null, String, Number, Bool, Array and Object implement it. Numbers keep
// their literal text so that integers and decimals survive a round trip.
type Value interface {
	// Display renders the value the way the audit viewer prints it.
	Display() string
	value() // Sealed - only these types implement it
}

// Null is a JSON null.
type Null struct{}

func (Null) value() {}

// Display renders null as nothing.
func (Null) Display() string { return "" }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// String is a JSON string.
type String string

func (String) value() {}

// Display renders the string verbatim.
func (s String) Display() string { return string(s) }

// Number is a JSON number, stored as its literal text.
type Number string

func (Number) value() {}

// Float returns the numeric value.
func (n Number) Float() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

// Display renders the number in shortest round-trip form, so 2.0 prints as 2.
func (n Number) Display() string {
	f, err := n.Float()
	if err != nil {
		return string(n)
	}
	return formatNumber(f)
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if _, err := n.Float(); err != nil {
		return nil, fmt.Errorf("invalid number literal %q", string(n))
	}
	return []byte(n), nil
}

// Bool is a JSON boolean.
type Bool bool

func (Bool) value() {}

// Display renders a bare boolean as nothing, matching how the viewer drops
// boolean children. Inside an Array booleans print as true/false.
func (Bool) Display() string { return "" }

// Array is a JSON array.
type Array []Value

func (Array) value() {}

// Display joins the elements with ", ".
func (a Array) Display() string {
	return a.join(", ")
}

// join renders the elements the way a list join does: nulls become empty,
// nested arrays are joined with ",".
func (a Array) join(sep string) string {
	parts := make([]string, len(a))
	for i, elem := range a {
		switch v := elem.(type) {
		case nil, Null:
			parts[i] = ""
		case Bool:
			parts[i] = strconv.FormatBool(bool(v))
		case Array:
			parts[i] = v.join(",")
		default:
			parts[i] = v.Display()
		}
	}
	return strings.Join(parts, sep)
}

// Object is a JSON object.
type Object map[string]Value

func (Object) value() {}

// Display renders the object as compact JSON with sorted keys.
func (o Object) Display() string {
	data, err := o.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(o[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes. A nil Value marshals as null.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		return val.MarshalJSON()
	case Bool:
		return json.Marshal(bool(val))
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemBytes, err := MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(elemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// UnmarshalValue decodes JSON into a Value. Empty input decodes to Null.
func UnmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Null{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return convertToValue(raw)
}

// convertToValue recursively converts a decoded JSON tree into a Value.
func convertToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val.String()), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := convertToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := convertToValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// IsNumber reports whether v is a number equal to n.
func IsNumber(v Value, n float64) bool {
	num, ok := v.(Number)
	if !ok {
		return false
	}
	f, err := num.Float()
	return err == nil && f == n
}

// formatNumber renders f in shortest round-trip form, switching to exponent
// notation outside [1e-6, 1e21) like ECMAScript's Number#toString.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
