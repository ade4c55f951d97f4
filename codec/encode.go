package codec

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/creachadair/mds/mapset"
	"github.com/robert-malhotra/h5dict/hdf5"
)

// On-disk names shared by the encoder and decoder.
const (
	NoneSentinel      = "NoneType:__None__"
	EmptyListSentinel = "NoneType:__emptylist__"

	ListTypeAttr   = "list_type"
	ListLengthAttr = "list_length"

	TagArray       = "array"
	TagStr         = "str"
	TagGenericList = "generic_list"
	TagGenericTup  = "generic_tuple"

	NominalKey = "nominal_value"
	StdDevKey  = "std_dev"
)

// Unlimited is an overwrite depth that never replaces existing groups.
const Unlimited = math.MaxInt

// DefaultMaxDepth bounds the nesting of an encoded value.
const DefaultMaxDepth = 512

// An EncodeOption configures an Encoder.
type EncodeOption func(*Encoder)

// WithOverwriteDepth sets the depth below which existing groups are
// replaced. The depth drops by one per nesting level; an existing child
// group met at a depth under 1 is deleted and recreated, otherwise it is
// merged into. Zero replaces every group the map names directly.
func WithOverwriteDepth(n int) EncodeOption {
	return func(e *Encoder) { e.overwriteDepth = n }
}

// WithMaxDepth sets the deepest nesting Encode accepts before failing with
// a CyclicValueError.
func WithMaxDepth(n int) EncodeOption {
	return func(e *Encoder) { e.maxDepth = n }
}

// WithCompression writes datasets deflate-compressed at level 0-9.
func WithCompression(level int) EncodeOption {
	return func(e *Encoder) { e.compression = level }
}

// An Encoder writes Maps into groups. The zero Encoder is not usable; call
// NewEncoder.
type Encoder struct {
	overwriteDepth int
	maxDepth       int
	compression    int
}

// NewEncoder returns an Encoder with the given options applied over the
// defaults: unlimited overwrite depth, DefaultMaxDepth and no compression.
func NewEncoder(opts ...EncodeOption) *Encoder {
	e := &Encoder{overwriteDepth: Unlimited, maxDepth: DefaultMaxDepth, compression: -1}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Encode writes m into g with a new Encoder.
func Encode(g *hdf5.Group, m Map, opts ...EncodeOption) ([]Warning, error) {
	return NewEncoder(opts...).Encode(g, m)
}

// Encode writes one child per key of m into g. Keys are written in
// Key.Compare order.
//
// Attributes the container rejects and values with no encoding rule are
// reported as warnings and do not stop the call. Failing to create a group
// or dataset does, and so does a value that contains itself; cycles are
// detected before anything is written.
func (e *Encoder) Encode(g *hdf5.Group, m Map) ([]Warning, error) {
	if err := e.checkAcyclic(m); err != nil {
		return nil, err
	}
	s := &encodeState{Encoder: e}
	err := s.encodeMap(g, m, e.overwriteDepth)
	return s.warnings, err
}

type encodeState struct {
	*Encoder
	warnings []Warning
}

func (s *encodeState) warn(path string, err error) {
	s.warnings = append(s.warnings, Warning{Path: path, Err: err})
}

func (s *encodeState) encodeMap(g *hdf5.Group, m Map, depth int) error {
	for _, k := range slices.SortedFunc(maps.Keys(m), Key.Compare) {
		if err := s.encodeItem(g, k.String(), m[k], depth); err != nil {
			return err
		}
	}
	return nil
}

func (s *encodeState) encodeItem(g *hdf5.Group, key string, v Value, depth int) error {
	switch v := v.(type) {
	case Null:
		return s.setAttr(g, key, NoneSentinel)
	case Bool:
		return s.setAttr(g, key, bool(v))
	case Int:
		return s.setAttr(g, key, int64(v))
	case Float:
		return s.setAttr(g, key, float64(v))
	case String:
		return s.setAttr(g, key, string(v))
	case *Array:
		if v != nil {
			return s.writeArray(g, key, v, "")
		}
	case Map:
		sub, err := s.ensureGroup(g, key, depth, false)
		if err != nil {
			return err
		}
		return s.encodeMap(sub, v, depth-1)
	case Uncertain:
		sub, err := s.ensureGroup(g, key, depth, false)
		if err != nil {
			return err
		}
		return s.encodeMap(sub, Map{
			StringKey(NominalKey): Float(v.Nominal),
			StringKey(StdDevKey):  Float(v.StdDev),
		}, depth-1)
	case List:
		return s.encodeSeq(g, key, v, TagGenericList, depth)
	case Tuple:
		return s.encodeSeq(g, key, v, TagGenericTup, depth)
	}
	return s.fallback(g, key, v)
}

// fallback stores the string form of a value with no encoding rule.
func (s *encodeState) fallback(g *hdf5.Group, key string, v Value) error {
	var text string
	var typ any = v
	if o, ok := v.(Opaque); ok {
		text, typ = fmt.Sprint(o.V), o.V
	} else {
		text = fmt.Sprint(v)
	}
	s.warn(hdf5.JoinAttrPath(g.Path(), key), fmt.Errorf("%w: %T stored as string", ErrUnsupportedValueKind, typ))
	return s.setAttr(g, key, text)
}

// setAttr writes an attribute, replacing any child object of the same name
// so the key maps to one node.
func (s *encodeState) setAttr(g *hdf5.Group, key string, v any) error {
	if g.Has(key) {
		if err := g.Delete(key); err != nil {
			return fmt.Errorf("replace %s: %w", hdf5.JoinAttrPath(g.Path(), key), err)
		}
	}
	if err := g.SetAttr(key, v); err != nil {
		s.warn(hdf5.JoinAttrPath(g.Path(), key), fmt.Errorf("%w: %w", ErrAttributeWrite, err))
	}
	return nil
}

// clearKey removes an attribute that a new child object named key would
// shadow.
func clearKey(g *hdf5.Group, key string) error {
	if !g.HasAttr(key) {
		return nil
	}
	return g.DeleteAttr(key)
}

// ensureGroup returns the child group named key, creating it if needed. An
// existing group is reused when depth is at least 1 and it holds the same
// shape of value, a sequence or a map; otherwise, or if the child is not a
// group, it is deleted and created afresh.
func (s *encodeState) ensureGroup(g *hdf5.Group, key string, depth int, seq bool) (*hdf5.Group, error) {
	if err := clearKey(g, key); err != nil {
		return nil, err
	}
	if g.Has(key) {
		child, err := g.Child(key)
		if err == nil {
			if sub, ok := child.(*hdf5.Group); ok && depth >= 1 && isSeqGroup(sub) == seq {
				return sub, nil
			}
		}
		if err := g.Delete(key); err != nil {
			return nil, err
		}
	}
	return g.CreateGroup(key)
}

func isSeqGroup(g *hdf5.Group) bool {
	a := g.Attr(ListTypeAttr)
	if a == nil {
		return false
	}
	tag, _ := a.Value()
	return tag == TagGenericList || tag == TagGenericTup
}

func (s *encodeState) encodeSeq(g *hdf5.Group, key string, seq []Value, tag string, depth int) error {
	if len(seq) == 0 {
		return s.setAttr(g, key, EmptyListSentinel)
	}
	if tag == TagGenericList {
		if a := uniformArray(seq); a != nil {
			if a.elem == KindString {
				return s.writeArray(g, key, a, TagStr)
			}
			return s.writeArray(g, key, a, TagArray)
		}
	}

	sub, err := s.ensureGroup(g, key, depth, true)
	if err != nil {
		return err
	}
	if err := s.setAttr(sub, ListTypeAttr, tag); err != nil {
		return err
	}
	if err := s.setAttr(sub, ListLengthAttr, int64(len(seq))); err != nil {
		return err
	}
	for i, v := range seq {
		if err := s.encodeItem(sub, listIndex(i), v, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func listIndex(i int) string { return fmt.Sprintf("list_idx_%d", i) }

// uniformArray returns seq as an array when every element is an Int, every
// one a Float, every one a Bool or every one a String, and nil otherwise.
// Strings form a column of shape (N, 1).
func uniformArray(seq []Value) *Array {
	switch KindOf(seq[0]) {
	case KindInt:
		data := make([]int64, len(seq))
		for i, v := range seq {
			x, ok := v.(Int)
			if !ok {
				return nil
			}
			data[i] = int64(x)
		}
		return IntArray(data)
	case KindFloat:
		data := make([]float64, len(seq))
		for i, v := range seq {
			x, ok := v.(Float)
			if !ok {
				return nil
			}
			data[i] = float64(x)
		}
		return FloatArray(data)
	case KindBool:
		data := make([]bool, len(seq))
		for i, v := range seq {
			x, ok := v.(Bool)
			if !ok {
				return nil
			}
			data[i] = bool(x)
		}
		return BoolArray(data)
	case KindString:
		data := make([]string, len(seq))
		for i, v := range seq {
			x, ok := v.(String)
			if !ok {
				return nil
			}
			data[i] = string(x)
		}
		return StringArray(data, len(data), 1)
	}
	return nil
}

// writeArray replaces any child named key with a dataset holding a. A
// non-empty tag is stored as the dataset's list_type.
func (s *encodeState) writeArray(g *hdf5.Group, key string, a *Array, tag string) error {
	if err := clearKey(g, key); err != nil {
		return err
	}
	if g.Has(key) {
		if err := g.Delete(key); err != nil {
			return err
		}
	}
	dims := make([]uint64, len(a.shape))
	for i, d := range a.shape {
		dims[i] = uint64(d)
	}
	opts := []hdf5.DatasetOption{hdf5.WithShape(dims...)}
	if tag != "" {
		opts = append(opts, hdf5.WithAttribute(ListTypeAttr, tag))
	}
	if s.compression >= 0 && a.Len() > 0 {
		opts = append(opts, hdf5.WithCompression(s.compression))
	}
	_, err := g.CreateDataset(key, a.Data(), opts...)
	return err
}

// checkAcyclic reports a value that contains itself or nests deeper than
// maxDepth.
func (e *Encoder) checkAcyclic(m Map) error {
	c := &cycleCheck{max: e.maxDepth, active: mapset.New[identity]()}
	return c.check(m, "", 0)
}

type identity struct {
	kind Kind
	ptr  uintptr
	n    int
}

type cycleCheck struct {
	max    int
	active mapset.Set[identity]
}

func (c *cycleCheck) check(v Value, path string, depth int) error {
	var id identity
	var children func(yield func(string, Value) bool)
	switch v := v.(type) {
	case Map:
		id = identity{KindMap, reflect.ValueOf(v).Pointer(), 0}
		children = func(yield func(string, Value) bool) {
			for k, x := range v {
				if !yield(k.String(), x) {
					return
				}
			}
		}
	case List:
		id = identity{KindList, reflect.ValueOf(v).Pointer(), len(v)}
		children = seqChildren(v)
	case Tuple:
		id = identity{KindTuple, reflect.ValueOf(v).Pointer(), len(v)}
		children = seqChildren(v)
	default:
		return nil
	}
	if depth > c.max || c.active.Has(id) {
		return &CyclicValueError{Path: path, Depth: depth}
	}
	if id.ptr == 0 {
		return nil
	}
	c.active.Add(id)
	defer c.active.Remove(id)
	var err error
	children(func(name string, x Value) bool {
		err = c.check(x, path+"/"+name, depth+1)
		return err == nil
	})
	return err
}

func seqChildren(seq []Value) func(yield func(string, Value) bool) {
	return func(yield func(string, Value) bool) {
		for i, x := range seq {
			if !yield(listIndex(i), x) {
				return
			}
		}
	}
}
