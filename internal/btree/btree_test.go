package btree

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/heap"
)

var sizes = binary.DefaultSizes

// image is a sparse file image built at fixed addresses.
type image []byte

func (im *image) put(addr int, b []byte) {
	if end := addr + len(b); end > len(*im) {
		*im = append(*im, make([]byte, end-len(*im))...)
	}
	copy((*im)[addr:], b)
}

func (im image) reader() *binary.Reader {
	return binary.NewReader(bytes.NewReader(im), sizes, 0)
}

func localHeap(dataAddr uint64, data []byte) []byte {
	e := binary.NewEncoder(sizes)
	e.Write([]byte("HEAP"))
	e.U8(0)
	e.Zeros(3)
	e.Length(uint64(len(data)))
	e.Length(sizes.Undefined())
	e.Offset(dataAddr)
	return e.Bytes()
}

type sym struct {
	nameOff, addr uint64
	soft          bool
	linkOff       uint32
}

func symbolNode(entries []sym) []byte {
	e := binary.NewEncoder(sizes)
	e.Write([]byte("SNOD"))
	e.U8(1)
	e.U8(0)
	e.U16(uint16(len(entries)))
	for _, s := range entries {
		e.Offset(s.nameOff)
		e.Offset(s.addr)
		if s.soft {
			e.U32(cacheSoftLink)
			e.U32(0)
			e.U32(s.linkOff)
			e.Zeros(12)
		} else {
			e.U32(0)
			e.U32(0)
			e.Zeros(16)
		}
	}
	return e.Bytes()
}

func groupNode(level uint8, children []uint64) []byte {
	e := binary.NewEncoder(sizes)
	e.Write([]byte("TREE"))
	e.U8(typeGroup)
	e.U8(level)
	e.U16(uint16(len(children)))
	e.Undefined()
	e.Undefined()
	for _, c := range children {
		e.Length(0)
		e.Offset(c)
	}
	e.Length(0)
	return e.Bytes()
}

func TestReadGroupTwoLevels(t *testing.T) {
	heapData := []byte("\x00\x00\x00\x00\x00\x00\x00\x00alpha\x00\x00\x00beta\x00\x00\x00\x00link\x00\x00\x00\x00/alpha\x00\x00")
	var im image
	im.put(0, groupNode(1, []uint64{200, 300}))
	im.put(200, groupNode(0, []uint64{400}))
	im.put(300, groupNode(0, []uint64{600}))
	im.put(400, symbolNode([]sym{{nameOff: 8, addr: 0x1000}, {nameOff: 16, addr: 0x2000}}))
	im.put(600, symbolNode([]sym{{nameOff: 24, soft: true, linkOff: 32}}))
	im.put(800, localHeap(900, heapData))
	im.put(900, heapData)

	r := im.reader()
	names, err := heap.ReadLocal(r, 800)
	if err != nil {
		t.Fatalf("ReadLocal failed: %v", err)
	}
	got, err := ReadGroup(r, 0, names)
	if err != nil {
		t.Fatalf("ReadGroup failed: %v", err)
	}
	want := []Entry{
		{Name: "alpha", Address: 0x1000},
		{Name: "beta", Address: 0x2000},
		{Name: "link", Soft: true, Target: "/alpha"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadGroup =\n%+v\nwant\n%+v", got, want)
	}
}

func TestReadGroupBadSignature(t *testing.T) {
	im := image(make([]byte, 128))
	if _, err := ReadGroup(im.reader(), 0, nil); err == nil {
		t.Error("ReadGroup on zeros succeeded")
	}
}

func TestSingleChunkRoundTrip(t *testing.T) {
	for _, dims := range [][]uint64{{10}, {3, 4}, {2, 2, 5}} {
		c := Chunk{Address: 0x4000, Size: 77, FilterMask: 0}
		node := EncodeSingleChunk(c, dims, sizes)
		wantLen := 8 + 2*8 + 64*8 + 65*chunkKeySize(len(dims))
		if len(node) != wantLen {
			t.Errorf("rank %d: node is %d bytes, want %d", len(dims), len(node), wantLen)
		}

		var im image
		im.put(512, node)
		chunks, err := ReadChunks(im.reader(), 512, len(dims))
		if err != nil {
			t.Fatalf("ReadChunks failed: %v", err)
		}
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks", len(chunks))
		}
		got := chunks[0]
		if got.Address != 0x4000 || got.Size != 77 || !reflect.DeepEqual(got.Offset, make([]uint64, len(dims))) {
			t.Errorf("chunk = %+v", got)
		}
	}
}

func TestReadChunksInternalNode(t *testing.T) {
	rank := 1
	leaf := func(offset, addr uint64) []byte {
		e := binary.NewEncoder(sizes)
		e.Write([]byte("TREE"))
		e.U8(typeChunk)
		e.U8(0)
		e.U16(1)
		e.Undefined()
		e.Undefined()
		e.U32(16)
		e.U32(0)
		e.U64(offset)
		e.U64(0)
		e.Offset(addr)
		e.U32(0)
		e.U32(0)
		e.U64(offset + 2)
		e.U64(0)
		return e.Bytes()
	}
	root := binary.NewEncoder(sizes)
	root.Write([]byte("TREE"))
	root.U8(typeChunk)
	root.U8(1)
	root.U16(2)
	root.Undefined()
	root.Undefined()
	for _, child := range []uint64{200, 400} {
		root.Zeros(chunkKeySize(rank))
		root.Offset(child)
	}
	root.Zeros(chunkKeySize(rank))

	var im image
	im.put(0, root.Bytes())
	im.put(200, leaf(0, 0x1000))
	im.put(400, leaf(2, 0x1010))

	chunks, err := ReadChunks(im.reader(), 0, rank)
	if err != nil {
		t.Fatalf("ReadChunks failed: %v", err)
	}
	if len(chunks) != 2 || chunks[1].Offset[0] != 2 || chunks[1].Address != 0x1010 {
		t.Errorf("chunks = %+v", chunks)
	}
}
