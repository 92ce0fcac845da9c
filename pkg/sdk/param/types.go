// Package param holds the typed parameters of an outgoing hit and the buffer merging them.
package param

import (
	"encoding/json"
	"strconv"
)

// Type tags how a parameter's values are encoded when a hit is flattened
type Type int

const (
	TypeString Type = iota
	TypeNumber
	TypeBool
	TypeJSON
	TypeArray
	TypeCommaSeparatedArray
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeJSON:
		return "json"
	case TypeArray:
		return "array"
	case TypeCommaSeparatedArray:
		return "csa"
	default:
		return "unknown"
	}
}

// Relative positions a parameter at the edges of a flattened hit
type Relative int

const (
	RelativeNone Relative = iota
	RelativeFirst
	RelativeLast
)

// Default separators
const (
	DefaultSeparator = "::"
	ArraySeparator   = ","
)

// Options controls merge and encoding of one parameter
type Options struct {
	Append    bool
	Encode    bool
	Type      Type
	Separator string
	Relative  Relative
}

func (o Options) separator() string {
	if o.Type == TypeArray || o.Type == TypeCommaSeparatedArray {
		return ArraySeparator
	}
	if o.Separator == "" {
		return DefaultSeparator
	}
	return o.Separator
}

// Collection selects the volatile or the persistent parameters of a Buffer
type Collection int

const (
	// Volatile parameters are sent with the next hit only
	Volatile Collection = iota
	// Persistent parameters are sent with every hit until unset
	Persistent
)

func (c Collection) String() string {
	if c == Persistent {
		return "persistent"
	}
	return "volatile"
}

// Closure produces a parameter value when the hit is flattened, not when it is set
type Closure func() (string, error)

// Static returns a closure always producing s
func Static(s string) Closure {
	return func() (string, error) { return s, nil }
}

// Int returns a closure producing the decimal form of n
func Int(n int64) Closure {
	return Static(strconv.FormatInt(n, 10))
}

// Float returns a closure producing f with no exponent and no locale formatting
func Float(f float64) Closure {
	return Static(strconv.FormatFloat(f, 'f', -1, 64))
}

// Bool returns a closure producing "true" or "false"
func Bool(b bool) Closure {
	return Static(strconv.FormatBool(b))
}

// JSON returns a closure marshalling v at flatten time
func JSON(v any) Closure {
	return func() (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// Lazy adapts a plain producer that cannot fail
func Lazy(fn func() string) Closure {
	return func() (string, error) { return fn(), nil }
}

// Parameter is one named entry of a collection
type Parameter struct {
	Name    string
	Values  []Closure
	Options Options
}

func (p *Parameter) clone() *Parameter {
	values := make([]Closure, len(p.Values))
	copy(values, p.Values)
	return &Parameter{Name: p.Name, Values: values, Options: p.Options}
}

// Pair is one flattened parameter, ready for the transport
type Pair struct {
	Name  string
	Value string
}
