// Package valuefmt reads and writes codec values as text: YAML documents
// for input and output, JSON, a Go-syntax dump and line diffs of dumps.
//
// Plain YAML scalars, sequences and mappings map to the matching codec
// kinds. Three local tags cover the rest:
//
//	!tuple      a sequence read as a codec.Tuple
//	!array      nested sequences of numbers, bools or strings read as a
//	            codec.Array; the nesting gives the shape
//	!uncertain  a mapping with nominal and std (or nominal_value and
//	            std_dev) read as a codec.Uncertain
package valuefmt

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/mds/mapset"
	"github.com/robert-malhotra/h5dict/codec"
	"gopkg.in/yaml.v3"
)

const (
	TupleTag     = "!tuple"
	ArrayTag     = "!array"
	UncertainTag = "!uncertain"
)

// DecodeYAML reads one YAML document whose top level is a mapping. An
// empty document is an empty Map.
func DecodeYAML(r io.Reader) (codec.Map, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return codec.Map{}, nil
		}
		return nil, err
	}
	v, err := FromNode(&doc)
	if err != nil {
		return nil, err
	}
	m, ok := v.(codec.Map)
	if !ok {
		return nil, fmt.Errorf("yaml: top level is a %s, want a mapping", codec.KindOf(v))
	}
	return m, nil
}

// FromNode converts a decoded YAML node. An alias met again while its
// anchor is being expanded is an error.
func FromNode(n *yaml.Node) (codec.Value, error) {
	r := &nodeReader{expanding: mapset.New[*yaml.Node]()}
	return r.value(n)
}

// nodeReader holds the anchors whose aliases are being expanded.
type nodeReader struct {
	expanding mapset.Set[*yaml.Node]
}

// enter marks the anchor of alias n as being expanded. The caller must
// call the returned func when done.
func (r *nodeReader) enter(n *yaml.Node) (func(), error) {
	if r.expanding.Has(n.Alias) {
		return nil, nodeError(n, "alias *%s refers to itself", n.Value)
	}
	r.expanding.Add(n.Alias)
	return func() { r.expanding.Remove(n.Alias) }, nil
}

func (r *nodeReader) value(n *yaml.Node) (codec.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return codec.Null{}, nil
		}
		return r.value(n.Content[0])
	case yaml.AliasNode:
		leave, err := r.enter(n)
		if err != nil {
			return nil, err
		}
		defer leave()
		return r.value(n.Alias)
	}

	switch n.Tag {
	case TupleTag:
		if n.Kind != yaml.SequenceNode {
			return nil, nodeError(n, "%s needs a sequence", TupleTag)
		}
		seq, err := r.seq(n)
		return codec.Tuple(seq), err
	case ArrayTag:
		return r.array(n)
	case UncertainTag:
		return fromUncertain(n)
	}
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		return nil, nodeError(n, "unknown tag %s", n.Tag)
	}

	switch n.Kind {
	case yaml.SequenceNode:
		seq, err := r.seq(n)
		return codec.List(seq), err
	case yaml.MappingNode:
		return r.mapping(n)
	}
	return fromScalar(n)
}

func nodeError(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("yaml line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func (r *nodeReader) seq(n *yaml.Node) ([]codec.Value, error) {
	seq := make([]codec.Value, len(n.Content))
	for i, c := range n.Content {
		v, err := r.value(c)
		if err != nil {
			return nil, err
		}
		seq[i] = v
	}
	return seq, nil
}

func (r *nodeReader) mapping(n *yaml.Node) (codec.Map, error) {
	m := make(codec.Map, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Kind != yaml.ScalarNode {
			return nil, nodeError(kn, "mapping keys must be scalars")
		}
		key := codec.StringKey(kn.Value)
		if kn.ShortTag() == "!!int" {
			var i int64
			if err := kn.Decode(&i); err != nil {
				return nil, nodeError(kn, "%v", err)
			}
			key = codec.IntKey(i)
		}
		if _, dup := m[key]; dup {
			return nil, nodeError(kn, "duplicate key %q", kn.Value)
		}
		v, err := r.value(vn)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

func fromScalar(n *yaml.Node) (codec.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return codec.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		return codec.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		return codec.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeError(n, "%v", err)
		}
		return codec.Float(f), nil
	case "!!str":
		return codec.String(n.Value), nil
	}
	return nil, nodeError(n, "unsupported scalar tag %s", n.ShortTag())
}

func fromUncertain(n *yaml.Node) (codec.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, "%s needs a mapping", UncertainTag)
	}
	var u struct {
		Nominal      *float64 `yaml:"nominal"`
		Std          *float64 `yaml:"std"`
		NominalValue *float64 `yaml:"nominal_value"`
		StdDev       *float64 `yaml:"std_dev"`
	}
	// Decode ignores the local tag on a copy of the node.
	plain := *n
	plain.Tag = "!!map"
	if err := plain.Decode(&u); err != nil {
		return nil, nodeError(n, "%v", err)
	}
	nom, std := cmpOr(u.Nominal, u.NominalValue), cmpOr(u.Std, u.StdDev)
	if nom == nil || std == nil {
		return nil, nodeError(n, "%s needs nominal and std", UncertainTag)
	}
	return codec.Uncertain{Nominal: *nom, StdDev: *std}, nil
}

func cmpOr(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

// array reads nested sequences into a rectangular array. Ints are widened
// to floats when the two are mixed.
func (r *nodeReader) array(n *yaml.Node) (codec.Value, error) {
	var shape []int
	var leaves []codec.Value
	var walk func(n *yaml.Node, axis int) error
	walk = func(n *yaml.Node, axis int) error {
		if n.Kind == yaml.AliasNode {
			leave, err := r.enter(n)
			if err != nil {
				return err
			}
			defer leave()
			n = n.Alias
		}
		if n.Kind != yaml.SequenceNode {
			if axis != len(shape) {
				return nodeError(n, "%s is ragged", ArrayTag)
			}
			v, err := fromScalar(n)
			if err != nil {
				return err
			}
			leaves = append(leaves, v)
			return nil
		}
		if axis == len(shape) {
			if len(leaves) > 0 {
				return nodeError(n, "%s is ragged", ArrayTag)
			}
			shape = append(shape, len(n.Content))
		} else if shape[axis] != len(n.Content) {
			return nodeError(n, "%s is ragged", ArrayTag)
		}
		for _, c := range n.Content {
			if err := walk(c, axis+1); err != nil {
				return err
			}
		}
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "%s needs a sequence", ArrayTag)
	}
	if err := walk(n, 0); err != nil {
		return nil, err
	}
	a, err := arrayOf(leaves, shape)
	if err != nil {
		return nil, nodeError(n, "%v", err)
	}
	return a, nil
}

func arrayOf(leaves []codec.Value, shape []int) (*codec.Array, error) {
	kinds := make([]codec.Kind, len(leaves))
	for i, v := range leaves {
		kinds[i] = codec.KindOf(v)
	}
	slices.Sort(kinds)
	kinds = slices.Compact(kinds)
	switch {
	case len(kinds) == 0:
		return codec.FloatArray([]float64{}, shape...), nil
	case len(kinds) == 1 && kinds[0] == codec.KindInt:
		data := make([]int64, len(leaves))
		for i, v := range leaves {
			data[i] = int64(v.(codec.Int))
		}
		return codec.IntArray(data, shape...), nil
	case slices.Equal(kinds, []codec.Kind{codec.KindFloat}), slices.Equal(kinds, []codec.Kind{codec.KindInt, codec.KindFloat}):
		data := make([]float64, len(leaves))
		for i, v := range leaves {
			switch v := v.(type) {
			case codec.Int:
				data[i] = float64(v)
			case codec.Float:
				data[i] = float64(v)
			}
		}
		return codec.FloatArray(data, shape...), nil
	case len(kinds) == 1 && kinds[0] == codec.KindBool:
		data := make([]bool, len(leaves))
		for i, v := range leaves {
			data[i] = bool(v.(codec.Bool))
		}
		return codec.BoolArray(data, shape...), nil
	case len(kinds) == 1 && kinds[0] == codec.KindString:
		data := make([]string, len(leaves))
		for i, v := range leaves {
			data[i] = string(v.(codec.String))
		}
		return codec.StringArray(data, shape...), nil
	}
	return nil, fmt.Errorf("%s mixes %v elements", ArrayTag, kinds)
}

// EncodeYAML writes v as a YAML document that DecodeYAML reads back as an
// equal value. Map keys are written in codec.Key order.
func EncodeYAML(w io.Writer, v codec.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ToNode(v)); err != nil {
		return err
	}
	return enc.Close()
}

// ToNode converts v to a YAML node tree.
func ToNode(v codec.Value) *yaml.Node {
	switch v := v.(type) {
	case codec.Null:
		return scalar("!!null", "null")
	case codec.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(v)))
	case codec.Int:
		return scalar("!!int", strconv.FormatInt(int64(v), 10))
	case codec.Float:
		return scalar("!!float", formatFloat(float64(v)))
	case codec.String:
		return scalar("!!str", string(v))
	case *codec.Array:
		n := arrayNode(v)
		n.Tag = ArrayTag
		return n
	case codec.List:
		return seqNode("", v)
	case codec.Tuple:
		return seqNode(TupleTag, v)
	case codec.Map:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range slices.SortedFunc(maps.Keys(v), codec.Key.Compare) {
			kn := scalar("!!str", k.String())
			if k.IsInt() {
				kn.Tag = "!!int"
			}
			n.Content = append(n.Content, kn, ToNode(v[k]))
		}
		return n
	case codec.Uncertain:
		return &yaml.Node{Kind: yaml.MappingNode, Tag: UncertainTag, Content: []*yaml.Node{
			scalar("!!str", codec.NominalKey), scalar("!!float", formatFloat(v.Nominal)),
			scalar("!!str", codec.StdDevKey), scalar("!!float", formatFloat(v.StdDev)),
		}}
	case codec.Opaque:
		return scalar("!!str", fmt.Sprint(v.V))
	}
	return scalar("!!null", "null")
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func seqNode(tag string, seq []codec.Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag}
	for _, v := range seq {
		n.Content = append(n.Content, ToNode(v))
	}
	return n
}

// arrayNode nests the rows of a; the innermost rows use flow style.
func arrayNode(a *codec.Array) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode}
	if a.Rank() == 1 {
		n.Style = yaml.FlowStyle
	}
	for _, r := range a.Rows() {
		if sub, ok := r.(*codec.Array); ok {
			n.Content = append(n.Content, arrayNode(sub))
		} else {
			n.Content = append(n.Content, ToNode(r))
		}
	}
	return n
}

// formatFloat keeps a decimal point or exponent so the value reads back as
// a float.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
