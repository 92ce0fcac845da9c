package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the primitive held by a Value
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a persisted primitive: a boolean, an integer or a string.
type Value struct {
	Kind Kind   `json:"kind"`
	Str  string `json:"s,omitempty"`
	Int  int64  `json:"i,omitempty"`
	Bool bool   `json:"b,omitempty"`
}

// StringValue wraps s
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue wraps n
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// BoolValue wraps b
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// AsString returns the string form of the value. Integers and booleans are
// formatted so that values written by older schemas stay readable.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// AsInt returns the integer held by the value
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindString:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer: %w", v.Str, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot read %s value as int", v.Kind)
	}
}

// AsBool returns the boolean held by the value
func (v Value) AsBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindString:
		b, err := strconv.ParseBool(v.Str)
		if err != nil {
			return false, fmt.Errorf("value %q is not a boolean: %w", v.Str, err)
		}
		return b, nil
	case KindInt:
		return v.Int != 0, nil
	default:
		return false, fmt.Errorf("cannot read %s value as bool", v.Kind)
	}
}

// EncodeValue serializes a value for byte-oriented backends
func EncodeValue(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeValue deserializes bytes written by EncodeValue
func DecodeValue(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, fmt.Errorf("failed to decode value: %w", err)
	}
	if v.Kind < KindString || v.Kind > KindBool {
		return Value{}, fmt.Errorf("failed to decode value: unknown kind %d", v.Kind)
	}
	return v, nil
}
