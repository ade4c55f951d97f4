package message

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

var sizes = binary.DefaultSizes

func roundTrip(t *testing.T, m Encodable) Message {
	t.Helper()
	data := Encode(m, sizes)
	got, err := Parse(m.Type(), 0, data, sizes)
	if err != nil {
		t.Fatalf("Parse(%T) failed: %v", m, err)
	}
	return got
}

func TestDataspaceRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		space *Dataspace
		n     uint64
	}{
		{"scalar", NewScalarSpace(), 1},
		{"null", NewNullSpace(), 0},
		{"vector", NewSimpleSpace(5), 5},
		{"matrix", NewSimpleSpace(3, 4), 12},
		{"empty", NewSimpleSpace(0), 0},
		{"maxdims", &Dataspace{Kind: SpaceSimple, Dims: []uint64{2}, MaxDims: []uint64{sizes.Undefined()}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.space).(*Dataspace)
			if got.Kind != tt.space.Kind || !reflect.DeepEqual(got.Dims, tt.space.Dims) {
				t.Errorf("got %+v, want %+v", got, tt.space)
			}
			if !reflect.DeepEqual(got.MaxDims, tt.space.MaxDims) {
				t.Errorf("MaxDims = %v, want %v", got.MaxDims, tt.space.MaxDims)
			}
			if got.NumElements() != tt.n {
				t.Errorf("NumElements = %d, want %d", got.NumElements(), tt.n)
			}
		})
	}
}

func TestDataspaceV1(t *testing.T) {
	e := binary.NewEncoder(sizes)
	e.Write([]byte{1, 2, 0, 0, 0, 0, 0, 0})
	e.Length(3)
	e.Length(7)
	ds, err := parseDataspace(e.Bytes(), sizes)
	if err != nil {
		t.Fatalf("parseDataspace failed: %v", err)
	}
	if ds.Kind != SpaceSimple || !reflect.DeepEqual(ds.Dims, []uint64{3, 7}) {
		t.Errorf("got %+v", ds)
	}

	scalar, err := parseDataspace([]byte{1, 0, 0, 0, 0, 0, 0, 0}, sizes)
	if err != nil || !scalar.IsScalar() {
		t.Errorf("v1 rank 0 = %+v, %v; want scalar", scalar, err)
	}
}

func TestVarStringEncoding(t *testing.T) {
	want := []byte{
		0x19, 0x01, 0x01, 0x00, 0x10, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x08, 0x00,
	}
	if got := Encode(NewVarString(), sizes); !bytes.Equal(got, want) {
		t.Errorf("NewVarString encodes to\n% x\nwant\n% x", got, want)
	}
	dt, err := ParseDatatype(want)
	if err != nil {
		t.Fatalf("ParseDatatype failed: %v", err)
	}
	if !dt.IsVarString() || dt.Charset != UTF8 || dt.Size != 16 {
		t.Errorf("parsed %+v", dt)
	}
}

func TestDatatypeRoundTrip(t *testing.T) {
	compound := &Datatype{
		Class: ClassCompound, Version: 3, Size: 16,
		Members: []Member{
			{Name: "r", Offset: 0, Type: NewFloat(8)},
			{Name: "i", Offset: 8, Type: NewFloat(8)},
		},
	}
	compoundV1 := *compound
	compoundV1.Version = 1

	tests := []struct {
		name string
		dt   *Datatype
		desc string
	}{
		{"int64", NewInt(8, true), "int64"},
		{"uint16", NewInt(2, false), "uint16"},
		{"float32", NewFloat(4), "float32"},
		{"float64", NewFloat(8), "float64"},
		{"fixed string", NewFixedString(12, ASCII), "string[12]"},
		{"vlen string", NewVarString(), "vlen string"},
		{"bool", NewBool(), "bool"},
		{"compound", compound, "compound{r:float64,i:float64}"},
		{"compound v1", &compoundV1, "compound{r:float64,i:float64}"},
		{"array", &Datatype{Class: ClassArray, Version: 3, Size: 24, ArrayDims: []uint32{3}, Base: NewInt(8, true)}, "array[3] int64"},
		{"opaque", &Datatype{Class: ClassOpaque, Version: 1, Size: 4, Tag: "blob"}, "opaque"},
		{"enum v3", &Datatype{Class: ClassEnum, Version: 3, Size: 4, Base: NewInt(4, true), Names: []string{"RED", "GREEN"}, Values: [][]byte{{0, 0, 0, 0}, {1, 0, 0, 0}}}, "enum(RED,GREEN)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.dt).(*Datatype)
			if !reflect.DeepEqual(got, tt.dt) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tt.dt)
			}
			if s := got.String(); s != tt.desc {
				t.Errorf("String() = %q, want %q", s, tt.desc)
			}
		})
	}
}

func TestIsBool(t *testing.T) {
	if !NewBool().IsBool() {
		t.Error("NewBool().IsBool() = false")
	}
	other := NewBool()
	other.Names = []string{"NO", "YES"}
	if other.IsBool() {
		t.Error("NO/YES enum reported as bool")
	}
	if NewInt(1, true).IsBool() {
		t.Error("int8 reported as bool")
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	a := &Attribute{
		Name:      "list_length",
		Datatype:  NewInt(8, true),
		Dataspace: NewScalarSpace(),
		Data:      []byte{3, 0, 0, 0, 0, 0, 0, 0},
	}
	got := roundTrip(t, a).(*Attribute)
	if got.Name != a.Name || !bytes.Equal(got.Data, a.Data) || got.Charset != ASCII {
		t.Errorf("got %+v", got)
	}
	if got.Datatype.String() != "int64" || !got.Dataspace.IsScalar() {
		t.Errorf("type/space = %s/%+v", got.Datatype, got.Dataspace)
	}

	utf := &Attribute{Name: "größe", Datatype: NewInt(1, false), Dataspace: NewSimpleSpace(2), Data: []byte{1, 2}}
	if got := roundTrip(t, utf).(*Attribute); got.Name != "größe" || got.Charset != UTF8 {
		t.Errorf("utf-8 name = %q charset %d", got.Name, got.Charset)
	}
}

func TestAttributeV1(t *testing.T) {
	dt := Encode(NewInt(4, true), sizes)
	ds := Encode(NewScalarSpace(), sizes)
	e := binary.NewEncoder(sizes)
	e.U8(1)
	e.U8(0)
	e.U16(3) // "ab\0"
	e.U16(uint16(len(dt)))
	e.U16(uint16(len(ds)))
	e.Write([]byte("ab\x00"))
	e.Pad(8)
	e.Write(dt)
	e.Pad(8)
	e.Write(ds)
	e.Pad(8)
	e.U32(42)

	m, err := Parse(TypeAttribute, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	a := m.(*Attribute)
	if a.Name != "ab" || binary.Uint(a.Data) != 42 {
		t.Errorf("got %q = %v", a.Name, a.Data)
	}
}

func TestAttributeTruncated(t *testing.T) {
	a := &Attribute{Name: "x", Datatype: NewInt(8, true), Dataspace: NewSimpleSpace(4), Data: make([]byte, 32)}
	data := Encode(a, sizes)
	if _, err := Parse(TypeAttribute, 0, data[:len(data)-8], sizes); !errors.Is(err, ErrMalformed) {
		t.Errorf("Parse(truncated) = %v, want ErrMalformed", err)
	}
}

func TestLinkRoundTrip(t *testing.T) {
	long := string(bytes.Repeat([]byte("n"), 300))
	tests := []*Link{
		NewHardLink("data", 0x1234),
		NewHardLink(long, 96),
		NewHardLink("ñame", 8),
		NewSoftLink("alias", "/a/b"),
		{Name: "ext", Kind: LinkExternal, File: "other.h5", Target: "/x"},
		{Name: "ordered", Address: 5, CreationOrder: 7, HasCreationOrder: true},
	}
	for _, l := range tests {
		got := roundTrip(t, l).(*Link)
		if !reflect.DeepEqual(got, l) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, l)
		}
	}
}

func TestLinkInfo(t *testing.T) {
	li := NewLinkInfo(sizes)
	got := roundTrip(t, li).(*LinkInfo)
	if got.Dense(sizes) {
		t.Error("fresh link info reports dense storage")
	}
	dense := &LinkInfo{TrackOrder: true, MaxCreationIndex: 9, HeapAddress: 100, NameIndexAddress: 200, OrderIndexAddress: sizes.Undefined()}
	if got := roundTrip(t, dense).(*LinkInfo); !got.Dense(sizes) || got.MaxCreationIndex != 9 {
		t.Errorf("got %+v", got)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	tests := []*Layout{
		NewCompactLayout([]byte{1, 2, 3}),
		NewContiguousLayout(4096, 80),
		NewChunkedLayout(8192, []uint64{10, 4}, 8),
	}
	for _, l := range tests {
		got := roundTrip(t, l).(*Layout)
		if got.Class != l.Class || got.Address != l.Address || !reflect.DeepEqual(got.ChunkDims, l.ChunkDims) || got.ElemSize != l.ElemSize {
			t.Errorf("%s: got %+v, want %+v", l.Class, got, l)
		}
		if l.Class != LayoutChunked && got.Size != l.Size {
			t.Errorf("%s: size %d, want %d", l.Class, got.Size, l.Size)
		}
	}
}

func TestLayoutV4SingleChunk(t *testing.T) {
	e := binary.NewEncoder(sizes)
	e.U8(4)
	e.U8(uint8(LayoutChunked))
	e.U8(0x02) // filtered single chunk
	e.U8(2)    // rank + 1
	e.U8(2)    // bytes per dimension
	e.U16(100)
	e.U16(8)
	e.U8(uint8(IndexSingle))
	e.Length(321)
	e.U32(0)
	e.Offset(2048)

	m, err := Parse(TypeDataLayout, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	l := m.(*Layout)
	if l.Index != IndexSingle || l.Address != 2048 || l.FilteredSize != 321 {
		t.Errorf("got %+v", l)
	}
	if !reflect.DeepEqual(l.ChunkDims, []uint64{100}) || l.ElemSize != 8 {
		t.Errorf("chunk dims %v elem %d", l.ChunkDims, l.ElemSize)
	}
}

func TestLayoutV1Contiguous(t *testing.T) {
	e := binary.NewEncoder(sizes)
	e.U8(1)
	e.U8(2)
	e.U8(uint8(LayoutContiguous))
	e.Zeros(5)
	e.Offset(512)
	e.U32(10)
	e.U32(4)
	m, err := Parse(TypeDataLayout, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if l := m.(*Layout); l.Address != 512 || l.Size != 0 {
		t.Errorf("got %+v", l)
	}
}

func TestFilterPipelineRoundTrip(t *testing.T) {
	p := &FilterPipeline{Filters: []Filter{
		{ID: FilterShuffle, ClientData: []uint32{8}},
		{ID: FilterDeflate, ClientData: []uint32{6}},
		{ID: 32001, Name: "blosc", Optional: true, ClientData: []uint32{1, 2, 3}},
	}}
	got := roundTrip(t, p).(*FilterPipeline)
	if !reflect.DeepEqual(got, p) {
		t.Errorf("got %+v, want %+v", got, p)
	}
	if !got.Has(FilterDeflate) || got.Has(FilterFletcher32) {
		t.Error("Has reports wrong membership")
	}
}

func TestFilterPipelineV1(t *testing.T) {
	e := binary.NewEncoder(sizes)
	e.U8(1)
	e.U8(1)
	e.Zeros(6)
	e.U16(FilterDeflate)
	e.U16(8) // "deflate\0"
	e.U16(0)
	e.U16(1)
	e.Write([]byte("deflate\x00"))
	e.U32(4)
	e.U32(0) // padding for odd client data count

	m, err := Parse(TypeFilterPipeline, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := m.(*FilterPipeline)
	if len(p.Filters) != 1 || p.Filters[0].Name != "deflate" || p.Filters[0].ClientData[0] != 4 {
		t.Errorf("got %+v", p)
	}
}

func TestFillValueRoundTrip(t *testing.T) {
	fv := NewFillValue(AllocLate)
	got := roundTrip(t, fv).(*FillValue)
	if got.AllocTime != AllocLate || got.FillTime != 2 || got.Defined {
		t.Errorf("got %+v", got)
	}
	set := &FillValue{Version: 3, AllocTime: AllocEarly, Defined: true, Value: []byte{9, 9}}
	if got := roundTrip(t, set).(*FillValue); !got.Defined || !bytes.Equal(got.Value, []byte{9, 9}) {
		t.Errorf("got %+v", got)
	}
}

func TestSharedAndUnknownKeepBytes(t *testing.T) {
	raw := []byte{1, 2, 3}
	m, err := Parse(TypeDatatype, FlagShared, raw, sizes)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := m.(*Unknown)
	if !ok || !bytes.Equal(Encode(u, sizes), raw) {
		t.Errorf("shared message = %#v", m)
	}
	m, err = Parse(TypeModTime, 0, raw, sizes)
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := m.(*Unknown); !ok || u.Kind != TypeModTime {
		t.Errorf("unknown message = %#v", m)
	}
}

func TestContinuationAndSymbolTable(t *testing.T) {
	e := binary.NewEncoder(sizes)
	e.Offset(1000)
	e.Length(256)
	m, err := Parse(TypeContinuation, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatal(err)
	}
	if c := m.(*Continuation); c.Address != 1000 || c.Length != 256 {
		t.Errorf("continuation = %+v", c)
	}

	m, err = Parse(TypeSymbolTable, 0, e.Bytes(), sizes)
	if err != nil {
		t.Fatal(err)
	}
	if s := m.(*SymbolTable); s.BTreeAddress != 1000 || s.HeapAddress != 256 {
		t.Errorf("symbol table = %+v", s)
	}
}
