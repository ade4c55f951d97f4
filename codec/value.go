package codec

import (
	"fmt"
	"math"
	"strconv"
)

// Value is one of Null, Bool, Int, Float, String, Array, List, Tuple, Map,
// Uncertain or Opaque.
type Value interface {
	isValue()
}

// Null is the absence of a value.
type Null struct{}

// Bool is a scalar boolean.
type Bool bool

// Int is a scalar integer.
type Int int64

// Float is a scalar float.
type Float float64

// String is a scalar string.
type String string

// List is an ordered sequence of values.
type List []Value

// Tuple is an ordered sequence that decodes back as a Tuple rather than a
// List.
type Tuple []Value

// Map is a mapping with string or integer keys.
type Map map[Key]Value

// Uncertain is a nominal value with a standard deviation. It is stored as a
// group holding "nominal_value" and "std_dev", and decodes as that Map.
type Uncertain struct {
	Nominal float64
	StdDev  float64
}

// Opaque wraps any other Go value. It is stored as its fmt.Sprint form and
// reported with a warning.
type Opaque struct {
	V any
}

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (Float) isValue()     {}
func (String) isValue()    {}
func (*Array) isValue()    {}
func (List) isValue()      {}
func (Tuple) isValue()     {}
func (Map) isValue()       {}
func (Uncertain) isValue() {}
func (Opaque) isValue()    {}

func (u Uncertain) String() string { return fmt.Sprintf("%v+/-%v", u.Nominal, u.StdDev) }

// Key is a Map key, either a string or an integer. The zero Key is the
// empty string.
type Key struct {
	name  string
	index int64
	isInt bool
}

// StringKey returns a string key. It does not parse s; use ParseKey for
// names read from a file.
func StringKey(s string) Key { return Key{name: s} }

// IntKey returns an integer key.
func IntKey(i int64) Key { return Key{index: i, isInt: true} }

// ParseKey returns an integer key when name is a decimal integer, and a
// string key otherwise.
func ParseKey(name string) Key {
	if i, err := strconv.ParseInt(name, 10, 64); err == nil {
		return IntKey(i)
	}
	return StringKey(name)
}

// IsInt reports whether k is an integer key.
func (k Key) IsInt() bool { return k.isInt }

// Int returns the integer of an integer key, or 0.
func (k Key) Int() int64 { return k.index }

// String returns the name under which k is stored.
func (k Key) String() string {
	if k.isInt {
		return strconv.FormatInt(k.index, 10)
	}
	return k.name
}

// Compare orders integer keys before string keys, integers numerically and
// strings lexically.
func (k Key) Compare(o Key) int {
	switch {
	case k.isInt && o.isInt:
		return cmpInt(k.index, o.index)
	case k.isInt:
		return -1
	case o.isInt:
		return 1
	case k.name < o.name:
		return -1
	case k.name > o.name:
		return 1
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Kind names the variant of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindList
	KindTuple
	KindMap
	KindUncertain
	KindOpaque
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindNull:      "null",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindArray:     "array",
	KindList:      "list",
	KindTuple:     "tuple",
	KindMap:       "map",
	KindUncertain: "uncertain",
	KindOpaque:    "opaque",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// IsScalar reports whether k is stored as a single attribute.
func (k Kind) IsScalar() bool {
	return k == KindBool || k == KindInt || k == KindFloat || k == KindString
}

// KindOf returns the variant of v. A nil Value, or a nil *Array, is
// KindInvalid.
func KindOf(v Value) Kind {
	switch v := v.(type) {
	case Null:
		return KindNull
	case Bool:
		return KindBool
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case String:
		return KindString
	case *Array:
		if v == nil {
			return KindInvalid
		}
		return KindArray
	case List:
		return KindList
	case Tuple:
		return KindTuple
	case Map:
		return KindMap
	case Uncertain:
		return KindUncertain
	case Opaque:
		return KindOpaque
	}
	return KindInvalid
}

// Equal reports whether a and b are the same value. Floats compare equal
// when both are NaN. A nil List equals an empty one.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Int:
		bb, ok := b.(Int)
		return ok && a == bb
	case Float:
		bb, ok := b.(Float)
		return ok && floatEqual(float64(a), float64(bb))
	case String:
		bb, ok := b.(String)
		return ok && a == bb
	case *Array:
		bb, ok := b.(*Array)
		return ok && a.Equal(bb)
	case List:
		bb, ok := b.(List)
		return ok && equalSeq(a, bb)
	case Tuple:
		bb, ok := b.(Tuple)
		return ok && equalSeq(a, bb)
	case Map:
		bb, ok := b.(Map)
		if !ok || len(a) != len(bb) {
			return false
		}
		for k, v := range a {
			w, ok := bb[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case Uncertain:
		bb, ok := b.(Uncertain)
		return ok && floatEqual(a.Nominal, bb.Nominal) && floatEqual(a.StdDev, bb.StdDev)
	case Opaque:
		bb, ok := b.(Opaque)
		return ok && fmt.Sprint(a.V) == fmt.Sprint(bb.V)
	}
	return a == nil && b == nil
}

func equalSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func floatEqual(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
