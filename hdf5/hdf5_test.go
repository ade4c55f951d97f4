package hdf5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// newFile creates an empty file in a temporary directory.
func newFile(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.hdf5")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, path
}

func reopen(t *testing.T, path string, mode Mode) *File {
	t.Helper()
	f, err := OpenFile(path, mode)
	if err != nil {
		t.Fatalf("OpenFile(%v) failed: %v", mode, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// Layout of the version 0 fixture, the shape of files written by h5py with
// default settings: a symbol-table root group holding an int32 dataset
// "data" with a fixed-string attribute, and a soft link "link" to it.
const (
	v0RootAddr  = 96
	v0HeapAddr  = 136
	v0HeapData  = 168
	v0TreeAddr  = 200
	v0SnodAddr  = 248
	v0DataAddr  = 336
	v0RawAddr   = 480
	v0EOF       = 492
	v0UserBlock = 512
)

// writeV0Fixture writes the fixture, optionally behind a user block, and
// returns its path.
func writeV0Fixture(t *testing.T, userBlock bool) string {
	t.Helper()
	undef := binary.DefaultSizes.Undefined()
	e := binary.NewEncoder(binary.DefaultSizes)
	at := func(want int) {
		t.Helper()
		if e.Len() != want {
			t.Fatalf("fixture offset = %d, want %d", e.Len(), want)
		}
	}

	// Superblock.
	e.Write([]byte("\x89HDF\r\n\x1a\n"))
	e.Write([]byte{0, 0, 0, 0, 0, 8, 8, 0})
	e.U16(4)
	e.U16(16)
	e.U32(0)
	e.Offset(0)
	e.Offset(undef)
	e.Offset(v0EOF)
	e.Offset(undef)
	e.Offset(0)
	e.Offset(v0RootAddr)
	e.U32(1)
	e.U32(0)
	e.Offset(v0TreeAddr)
	e.Offset(v0HeapAddr)
	at(v0RootAddr)

	// Root group header with a symbol table message.
	v1Header(e, 1, 24)
	v1Message(e, 0x11, 16)
	e.Offset(v0TreeAddr)
	e.Offset(v0HeapAddr)
	at(v0HeapAddr)

	// Local heap with names at 8 and 16 and the soft link target at 24.
	e.Write([]byte("HEAP"))
	e.Write([]byte{0, 0, 0, 0})
	e.Length(32)
	e.Length(undef)
	e.Offset(v0HeapData)
	at(v0HeapData)
	e.Zeros(8)
	e.Write([]byte("data\x00\x00\x00\x00"))
	e.Write([]byte("link\x00\x00\x00\x00"))
	e.Write([]byte("/data\x00\x00\x00"))
	at(v0TreeAddr)

	// Group B-tree leaf with one child.
	e.Write([]byte("TREE"))
	e.Write([]byte{0, 0})
	e.U16(1)
	e.Offset(undef)
	e.Offset(undef)
	e.Length(0)
	e.Offset(v0SnodAddr)
	e.Length(16)
	at(v0SnodAddr)

	// Symbol node: "data" (hard) and "link" (soft).
	e.Write([]byte("SNOD"))
	e.Write([]byte{1, 0})
	e.U16(2)
	e.Offset(8)
	e.Offset(v0DataAddr)
	e.U32(0)
	e.U32(0)
	e.Zeros(16)
	e.Offset(16)
	e.Offset(undef)
	e.U32(2)
	e.U32(0)
	e.U32(24)
	e.Zeros(12)
	at(v0DataAddr)

	// Dataset header.
	v1Header(e, 4, 128)
	v1Message(e, 0x01, 16) // dataspace v1, dims [3]
	e.Write([]byte{1, 1, 0, 0, 0, 0, 0, 0})
	e.Length(3)
	v1Message(e, 0x03, 16) // int32 little-endian signed
	e.Write([]byte{0x10, 0x08, 0, 0})
	e.U32(4)
	e.U16(0)
	e.U16(32)
	e.Zeros(4)
	v1Message(e, 0x08, 24) // layout v3 contiguous
	e.Write([]byte{3, 1})
	e.Offset(v0RawAddr)
	e.Length(12)
	e.Zeros(6)
	v1Message(e, 0x0C, 40) // attribute v1 units="mV"
	e.Write([]byte{1, 0})
	e.U16(6)
	e.U16(8)
	e.U16(8)
	e.Write([]byte("units\x00\x00\x00"))
	e.Write([]byte{0x13, 0, 0, 0})
	e.U32(2)
	e.Write([]byte{1, 0, 0, 0, 0, 0, 0, 0})
	e.Write([]byte("mV"))
	e.Zeros(6)
	at(v0RawAddr)

	for _, v := range []uint32{1, 2, 3} {
		e.U32(v)
	}
	at(v0EOF)

	data := e.Bytes()
	if userBlock {
		data = append(make([]byte, v0UserBlock), data...)
		// Addresses are relative to the superblock; only the base moves.
		binary.PutUint(data[v0UserBlock+24:v0UserBlock+32], v0UserBlock)
	}
	path := filepath.Join(t.TempDir(), "v0.hdf5")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func v1Header(e *binary.Encoder, messages, size int) {
	e.U8(1)
	e.U8(0)
	e.U16(uint16(messages))
	e.U32(1)
	e.U32(uint32(size))
	e.Zeros(4)
}

func v1Message(e *binary.Encoder, typ, size int) {
	e.U16(uint16(typ))
	e.U16(uint16(size))
	e.Zeros(4)
}
