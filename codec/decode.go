package codec

import (
	"fmt"
	"math"

	"github.com/creachadair/mds/mapset"
	"github.com/robert-malhotra/h5dict/hdf5"
)

// Decode reads the tree under g back into a Map. It fails with
// ErrNotMapping when g itself holds a generic list or tuple.
func Decode(g *hdf5.Group) (Map, error) {
	v, err := DecodeValue(g)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Map)
	if !ok {
		return nil, fmt.Errorf("%s: %w (list_type %s)", g.Path(), ErrNotMapping, KindOf(v))
	}
	return m, nil
}

// DecodeValue reads the tree under g. Groups tagged generic_list or
// generic_tuple decode to a List or Tuple; other groups decode to a Map.
//
// Names that parse as decimal integers become integer keys. Attributes are
// read after child objects, so an attribute wins over a child of the same
// name. A group reached again through a soft link while it is being decoded,
// or nesting deeper than DefaultMaxDepth, fails with a CyclicValueError.
func DecodeValue(g *hdf5.Group) (Value, error) {
	d := &decoder{max: DefaultMaxDepth, active: mapset.New[*hdf5.Group]()}
	return d.group(g, 0)
}

// decoder tracks the groups on the path from the top of a decode.
type decoder struct {
	max    int
	active mapset.Set[*hdf5.Group]
}

func (d *decoder) group(g *hdf5.Group, depth int) (Value, error) {
	if depth > d.max || d.active.Has(g) {
		return nil, &CyclicValueError{Path: g.Path(), Depth: depth}
	}
	d.active.Add(g)
	defer d.active.Remove(g)

	names, err := g.Members()
	if err != nil {
		return nil, err
	}
	m := make(Map, len(names)+len(g.Attrs()))
	for _, name := range names {
		child, err := g.Child(name)
		if err != nil {
			return nil, err
		}
		var v Value
		switch c := child.(type) {
		case *hdf5.Group:
			v, err = d.group(c, depth+1)
		case *hdf5.Dataset:
			v, err = decodeDataset(c)
		}
		if err != nil {
			return nil, err
		}
		m[ParseKey(name)] = v
	}
	for _, name := range g.Attrs() {
		v, err := decodeAttr(g.Attr(name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", hdf5.JoinAttrPath(g.Path(), name), err)
		}
		m[ParseKey(name)] = v
	}

	if !g.HasAttr(ListTypeAttr) {
		return m, nil
	}
	switch tag := m[StringKey(ListTypeAttr)]; tag {
	case String(TagGenericList):
		seq, err := assemble(g, m)
		return List(seq), err
	case String(TagGenericTup):
		seq, err := assemble(g, m)
		return Tuple(seq), err
	default:
		return nil, &UnknownListTagError{Path: g.Path(), Tag: tagString(tag)}
	}
}

func tagString(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return fmt.Sprint(v)
}

// assemble collects list_idx_0 .. list_idx_{n-1} from the decoded members of
// a sequence group.
func assemble(g *hdf5.Group, m Map) ([]Value, error) {
	n, ok := m[StringKey(ListLengthAttr)].(Int)
	if !ok || n < 0 {
		return nil, fmt.Errorf("%s: %w: list_length is %v", g.Path(), ErrMalformedSequence, m[StringKey(ListLengthAttr)])
	}
	seq := make([]Value, n)
	for i := range seq {
		v, ok := m[StringKey(listIndex(i))]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s missing", g.Path(), ErrMalformedSequence, listIndex(i))
		}
		seq[i] = v
	}
	return seq, nil
}

// decodeAttr is RawAttr with the sentinels of string attributes translated
// back to Null and the empty List.
func decodeAttr(a *hdf5.Attribute) (Value, error) {
	v, err := RawAttr(a)
	if err != nil {
		return nil, err
	}
	switch v {
	case String(NoneSentinel):
		return Null{}, nil
	case String(EmptyListSentinel):
		return List{}, nil
	}
	return v, nil
}

// RawAttr returns the value of a as stored: a scalar for a scalar
// attribute and an Array otherwise. An attribute with no dataspace is Null.
func RawAttr(a *hdf5.Attribute) (Value, error) {
	raw, err := a.Value()
	if err != nil {
		return nil, err
	}
	switch {
	case raw == nil:
		return Null{}, nil
	case a.IsScalar():
		return scalarValue(raw), nil
	}
	return arrayValue(raw, a.Shape()), nil
}

// RawDataset returns the payload of d as stored, ignoring any list_type
// tag.
func RawDataset(d *hdf5.Dataset) (Value, error) {
	raw, err := d.Value()
	if err != nil {
		return nil, err
	}
	switch {
	case raw == nil:
		return Null{}, nil
	case d.IsScalar():
		return scalarValue(raw), nil
	}
	return arrayValue(raw, d.Shape()), nil
}

func decodeDataset(d *hdf5.Dataset) (Value, error) {
	if !d.HasAttr(ListTypeAttr) {
		return RawDataset(d)
	}
	raw, err := d.Read()
	if err != nil {
		return nil, err
	}

	tag, _ := d.Attr(ListTypeAttr).Value()
	if d.IsScalar() {
		return nil, fmt.Errorf("%s: %w: list_type %v on a scalar dataset", d.Path(), ErrMalformedSequence, tag)
	}
	a, ok := arrayValue(raw, d.Shape()).(*Array)
	if !ok {
		return nil, fmt.Errorf("%s: %w: list_type %v on %s data", d.Path(), ErrMalformedSequence, tag, d.TypeName())
	}
	rows := a.Rows()
	if tag != TagStr {
		return List(rows), nil
	}
	// Column form: keep the first element of each row.
	for i, r := range rows {
		if sub, ok := r.(*Array); ok {
			first := sub.Rows()
			if len(first) == 0 {
				return nil, fmt.Errorf("%s: %w: row %d is empty", d.Path(), ErrMalformedSequence, i)
			}
			rows[i] = first[0]
		}
	}
	return List(rows), nil
}

// scalarValue converts one element read from the container.
func scalarValue(x any) Value {
	switch x := x.(type) {
	case int64:
		return Int(x)
	case uint64:
		if x <= math.MaxInt64 {
			return Int(x)
		}
	case float64:
		return Float(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	}
	return Opaque{V: x}
}

// arrayValue converts a flat slice read from the container into an Array of
// the given shape. Element types with no Array form become Opaque.
func arrayValue(raw any, dims []uint64) Value {
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	switch raw := raw.(type) {
	case []int64:
		return IntArray(raw, shape...)
	case []uint64:
		ints := make([]int64, len(raw))
		for i, x := range raw {
			if x > math.MaxInt64 {
				return Opaque{V: raw}
			}
			ints[i] = int64(x)
		}
		return IntArray(ints, shape...)
	case []float64:
		return FloatArray(raw, shape...)
	case []bool:
		return BoolArray(raw, shape...)
	case []string:
		return StringArray(raw, shape...)
	}
	return Opaque{V: raw}
}
