package codec

import (
	"fmt"
	"slices"
)

// Array is an n-dimensional array of ints, floats, bools or strings, stored
// flat in row-major order.
type Array struct {
	elem  Kind
	shape []int

	ints    []int64
	floats  []float64
	bools   []bool
	strings []string
}

// IntArray returns an array holding data. With no shape the array is 1-D;
// otherwise the product of shape must equal len(data).
func IntArray(data []int64, shape ...int) *Array {
	return &Array{elem: KindInt, shape: checkShape(shape, len(data)), ints: data}
}

// FloatArray is like IntArray for floats.
func FloatArray(data []float64, shape ...int) *Array {
	return &Array{elem: KindFloat, shape: checkShape(shape, len(data)), floats: data}
}

// BoolArray is like IntArray for bools.
func BoolArray(data []bool, shape ...int) *Array {
	return &Array{elem: KindBool, shape: checkShape(shape, len(data)), bools: data}
}

// StringArray is like IntArray for strings.
func StringArray(data []string, shape ...int) *Array {
	return &Array{elem: KindString, shape: checkShape(shape, len(data)), strings: data}
}

func checkShape(shape []int, n int) []int {
	if len(shape) == 0 {
		return []int{n}
	}
	size := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("codec: negative dimension in shape %v", shape))
		}
		size *= d
	}
	if size != n {
		panic(fmt.Sprintf("codec: shape %v does not hold %d elements", shape, n))
	}
	return slices.Clone(shape)
}

// ElemKind returns KindInt, KindFloat, KindBool or KindString.
func (a *Array) ElemKind() Kind { return a.elem }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Len returns the number of elements.
func (a *Array) Len() int {
	switch a.elem {
	case KindInt:
		return len(a.ints)
	case KindFloat:
		return len(a.floats)
	case KindBool:
		return len(a.bools)
	case KindString:
		return len(a.strings)
	}
	return 0
}

// Ints returns the elements of an Int array, or nil for other kinds.
func (a *Array) Ints() []int64 { return a.ints }

// Floats returns the elements of a Float array, or nil for other kinds.
func (a *Array) Floats() []float64 { return a.floats }

// Bools returns the elements of a Bool array, or nil for other kinds.
func (a *Array) Bools() []bool { return a.bools }

// Strings returns the elements of a String array, or nil for other kinds.
func (a *Array) Strings() []string { return a.strings }

// Data returns the flat element slice.
func (a *Array) Data() any {
	switch a.elem {
	case KindInt:
		return a.ints
	case KindFloat:
		return a.floats
	case KindBool:
		return a.bools
	case KindString:
		return a.strings
	}
	return nil
}

// Elem returns element i of the flat data as a scalar.
func (a *Array) Elem(i int) Value {
	switch a.elem {
	case KindInt:
		return Int(a.ints[i])
	case KindFloat:
		return Float(a.floats[i])
	case KindBool:
		return Bool(a.bools[i])
	case KindString:
		return String(a.strings[i])
	}
	panic("codec: Elem of an empty Array")
}

// Rows splits a along its first axis. The rows of a 1-D array are scalars;
// otherwise each row is an *Array of rank one less.
func (a *Array) Rows() []Value {
	if len(a.shape) == 0 {
		return nil
	}
	n := a.shape[0]
	rows := make([]Value, n)
	if len(a.shape) == 1 {
		for i := range n {
			rows[i] = a.Elem(i)
		}
		return rows
	}
	size := 1
	for _, d := range a.shape[1:] {
		size *= d
	}
	for i := range n {
		lo, hi := i*size, (i+1)*size
		r := &Array{elem: a.elem, shape: slices.Clone(a.shape[1:])}
		switch a.elem {
		case KindInt:
			r.ints = a.ints[lo:hi:hi]
		case KindFloat:
			r.floats = a.floats[lo:hi:hi]
		case KindBool:
			r.bools = a.bools[lo:hi:hi]
		case KindString:
			r.strings = a.strings[lo:hi:hi]
		}
		rows[i] = r
	}
	return rows
}

// Equal reports whether a and b have the same element kind, shape and
// elements. NaNs compare equal.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.elem != b.elem || !slices.Equal(a.shape, b.shape) {
		return false
	}
	switch a.elem {
	case KindInt:
		return slices.Equal(a.ints, b.ints)
	case KindFloat:
		return slices.EqualFunc(a.floats, b.floats, floatEqual)
	case KindBool:
		return slices.Equal(a.bools, b.bools)
	case KindString:
		return slices.Equal(a.strings, b.strings)
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("%s%v%v", a.elem, a.shape, a.Data())
}
