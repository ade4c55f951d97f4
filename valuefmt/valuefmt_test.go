package valuefmt

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/robert-malhotra/h5dict/codec"
)

func k(s string) codec.Key { return codec.StringKey(s) }

func TestDecodeYAML(t *testing.T) {
	doc := `
name: rabi
count: 3
ratio: 0.5
on: true
none: null
tilde: ~
quoted: "12"
7: seven
steps: [1, 2, 3]
mixed: [1, a, {x: 1}]
pair: !tuple [1, 2]
empty: []
trace: !array [[1, 2.5], [3, 4]]
ints: !array [1, 2]
labels: !array [a, b]
t1: !uncertain {nominal: 5.0, std: 0.1}
t2: !uncertain {nominal_value: 1, std_dev: 0}
inf: .inf
`
	got, err := DecodeYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeYAML failed: %v", err)
	}
	want := codec.Map{
		k("name"):      codec.String("rabi"),
		k("count"):     codec.Int(3),
		k("ratio"):     codec.Float(0.5),
		k("on"):        codec.Bool(true),
		k("none"):      codec.Null{},
		k("tilde"):     codec.Null{},
		k("quoted"):    codec.String("12"),
		codec.IntKey(7): codec.String("seven"),
		k("steps"):     codec.List{codec.Int(1), codec.Int(2), codec.Int(3)},
		k("mixed"):     codec.List{codec.Int(1), codec.String("a"), codec.Map{k("x"): codec.Int(1)}},
		k("pair"):      codec.Tuple{codec.Int(1), codec.Int(2)},
		k("empty"):     codec.List{},
		k("trace"):     codec.FloatArray([]float64{1, 2.5, 3, 4}, 2, 2),
		k("ints"):      codec.IntArray([]int64{1, 2}),
		k("labels"):    codec.StringArray([]string{"a", "b"}),
		k("t1"):        codec.Uncertain{Nominal: 5, StdDev: 0.1},
		k("t2"):        codec.Uncertain{Nominal: 1, StdDev: 0},
		k("inf"):       codec.Float(math.Inf(1)),
	}
	if !codec.Equal(want, got) {
		t.Errorf("DecodeYAML mismatch (-want +got):\n%s", Diff(Text(want), Text(got)))
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"top list":      "- 1\n",
		"ragged array":  "a: !array [[1, 2], [3]]\n",
		"ragged depth":  "a: !array [1, [2]]\n",
		"mixed array":   "a: !array [1, x]\n",
		"map in array":  "a: !array [{x: 1}]\n",
		"unknown tag":   "a: !complex [1, 2]\n",
		"tuple of map":  "a: !tuple {x: 1}\n",
		"short uncert":  "a: !uncertain {nominal: 1}\n",
		"duplicate key": "a: 1\na: 2\n",
		"bad yaml":      "a: [1\n",
		"alias cycle":   "a: &x [1, *x]\n",
		"map cycle":     "a: &x {b: *x}\n",
		"array cycle":   "a: !array &x [*x]\n",
	}
	for name, doc := range tests {
		if _, err := DecodeYAML(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: DecodeYAML succeeded", name)
		}
	}
	if m, err := DecodeYAML(strings.NewReader("")); err != nil || len(m) != 0 {
		t.Errorf("empty document = %v, %v", m, err)
	}
}

func TestDecodeYAMLAliases(t *testing.T) {
	got, err := DecodeYAML(strings.NewReader("a: &x [1, 2]\nb: *x\nc: !array [*x, *x]\n"))
	if err != nil {
		t.Fatalf("DecodeYAML failed: %v", err)
	}
	pair := codec.List{codec.Int(1), codec.Int(2)}
	want := codec.Map{
		k("a"): pair,
		k("b"): pair,
		k("c"): codec.IntArray([]int64{1, 2, 1, 2}, 2, 2),
	}
	if !codec.Equal(got, want) {
		t.Errorf("DecodeYAML = %v, want %v", got, want)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	in := codec.Map{
		k("f"):          codec.Float(1),
		k("nan"):        codec.Float(math.NaN()),
		k("neg"):        codec.Float(math.Inf(-1)),
		k("s"):          codec.String("12"),
		k("n"):          codec.Null{},
		codec.IntKey(3): codec.Bool(false),
		k("grid"):       codec.IntArray([]int64{1, 2, 3, 4, 5, 6}, 3, 2),
		k("col"):        codec.StringArray([]string{"x", "y"}, 2, 1),
		k("t"):          codec.Tuple{codec.String("a"), codec.List{}},
		k("u"):          codec.Uncertain{Nominal: 2, StdDev: 0.25},
		k("sub"):        codec.Map{k("deep"): codec.List{codec.Map{}}},
	}
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, in); err != nil {
		t.Fatalf("EncodeYAML failed: %v", err)
	}
	out, err := DecodeYAML(&buf)
	if err != nil {
		t.Fatalf("DecodeYAML failed: %v\n%s", err, buf.String())
	}
	if !codec.Equal(in, out) {
		t.Errorf("round trip mismatch:\n%s", Diff(Text(in), Text(out)))
	}
}

func TestJSON(t *testing.T) {
	v := codec.Map{
		k("b"):          codec.List{codec.Int(1), codec.Null{}},
		k("a"):          codec.FloatArray([]float64{0.5, math.NaN()}),
		codec.IntKey(2): codec.Uncertain{Nominal: 1, StdDev: 0.5},
	}
	got, err := JSON(v)
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	want := `{
  "2": {
    "nominal_value": 1,
    "std_dev": 0.5
  },
  "a": [
    0.5,
    "NaN"
  ],
  "b": [
    1,
    null
  ]
}`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("JSON (-want +got):\n%s", diff)
	}
}

func TestNative(t *testing.T) {
	got := Native(codec.Map{
		k("m"): codec.IntArray([]int64{1, 2, 3, 4}, 2, 2),
		k("t"): codec.Tuple{codec.Bool(true)},
		k("o"): codec.Opaque{V: struct{ X int }{3}},
	})
	want := map[string]any{
		"m": []any{[]any{int64(1), int64(2)}, []any{int64(3), int64(4)}},
		"t": []any{true},
		"o": "{3}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Native (-want +got):\n%s", diff)
	}
}

func TestTextIsStable(t *testing.T) {
	v := codec.Map{k("z"): codec.Int(1), k("a"): codec.List{codec.String("x")}}
	first := Text(v)
	for range 5 {
		if got := Text(v); got != first {
			t.Fatalf("Text changed between calls:\n%s\n%s", first, got)
		}
	}
	if !strings.Contains(first, `"a"`) || strings.Index(first, `"a"`) > strings.Index(first, `"z"`) {
		t.Errorf("keys not sorted in:\n%s", first)
	}
}

func TestDiff(t *testing.T) {
	if d := Diff("a\nb\n", "a\nb\n"); d != "" {
		t.Errorf("Diff of equal text = %q", d)
	}
	d := Diff("a\nb\nc\n", "a\nB\nc\nd")
	want := "  a\n- b\n+ B\n  c\n+ d\n"
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("Diff (-want +got):\n%s", diff)
	}
	if added, removed := Changes(d); added != 2 || removed != 1 {
		t.Errorf("Changes = +%d -%d, want +2 -1", added, removed)
	}
}
