package message

import "github.com/robert-malhotra/h5dict/internal/binary"

// LayoutClass is the storage class of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return "unknown"
}

// ChunkIndex is the structure that maps chunk coordinates to addresses.
type ChunkIndex uint8

const (
	IndexBTreeV1    ChunkIndex = 0
	IndexSingle     ChunkIndex = 1
	IndexImplicit   ChunkIndex = 2
	IndexFixedArray ChunkIndex = 3
	IndexExtArray   ChunkIndex = 4
	IndexBTreeV2    ChunkIndex = 5
)

// Layout is a data layout message.
type Layout struct {
	Version uint8
	Class   LayoutClass

	// Address of contiguous data or of the chunk index.
	Address uint64

	// Size of contiguous data in bytes. Zero for version 1 and 2 messages,
	// which leave it to be derived from the dataspace.
	Size uint64

	// Data holds compact storage.
	Data []byte

	// ChunkDims excludes the trailing element-size dimension.
	ChunkDims []uint64
	ElemSize  uint32
	Index     ChunkIndex

	// Single-chunk index with filters.
	FilteredSize uint64
	FilterMask   uint32
}

func (m *Layout) Type() Type { return TypeDataLayout }

// NewCompactLayout stores data inside the object header.
func NewCompactLayout(data []byte) *Layout {
	return &Layout{Version: 3, Class: LayoutCompact, Data: data, Size: uint64(len(data))}
}

// NewContiguousLayout stores size bytes at addr.
func NewContiguousLayout(addr, size uint64) *Layout {
	return &Layout{Version: 3, Class: LayoutContiguous, Address: addr, Size: size}
}

// NewChunkedLayout stores data in chunks indexed by a version 1 B-tree at
// addr.
func NewChunkedLayout(addr uint64, chunk []uint64, elemSize uint32) *Layout {
	return &Layout{
		Version:   3,
		Class:     LayoutChunked,
		Address:   addr,
		ChunkDims: append([]uint64(nil), chunk...),
		ElemSize:  elemSize,
		Index:     IndexBTreeV1,
	}
}

func parseLayout(data []byte, sizes binary.Sizes) (*Layout, error) {
	d := binary.NewDecoder(data, sizes)
	m := &Layout{Version: d.U8()}
	switch m.Version {
	case 1, 2:
		parseLayoutV1(d, m)
	case 3, 4:
		m.Class = LayoutClass(d.U8())
		switch m.Class {
		case LayoutCompact:
			m.Size = uint64(d.U16())
			m.Data = d.Bytes(int(m.Size))
		case LayoutContiguous:
			m.Address = d.Offset()
			m.Size = d.Length()
		case LayoutChunked:
			if m.Version == 3 {
				ndims := int(d.U8())
				m.Address = d.Offset()
				dims := make([]uint64, ndims)
				for i := range dims {
					dims[i] = uint64(d.U32())
				}
				m.setChunkDims(dims)
			} else if err := parseChunkedV4(d, m); err != nil {
				return nil, err
			}
		case LayoutVirtual:
			m.Address = d.Offset()
			d.U32() // global heap index
		default:
			return nil, malformed("layout class %d", m.Class)
		}
	default:
		return nil, malformed("layout version %d", m.Version)
	}
	return m, d.Err()
}

func parseLayoutV1(d *binary.Decoder, m *Layout) {
	ndims := int(d.U8())
	m.Class = LayoutClass(d.U8())
	d.Skip(5)
	if m.Class != LayoutCompact {
		m.Address = d.Offset()
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = uint64(d.U32())
	}
	switch m.Class {
	case LayoutChunked:
		m.setChunkDims(dims)
	case LayoutCompact:
		m.Size = uint64(d.U32())
		m.Data = d.Bytes(int(m.Size))
	}
}

func parseChunkedV4(d *binary.Decoder, m *Layout) error {
	flags := d.U8()
	ndims := int(d.U8())
	width := int(d.U8())
	dims := make([]uint64, ndims)
	for i := range dims {
		dims[i] = d.Uint(width)
	}
	m.setChunkDims(dims)

	m.Index = ChunkIndex(d.U8())
	switch m.Index {
	case IndexSingle:
		if flags&0x02 != 0 {
			m.FilteredSize = d.Length()
			m.FilterMask = d.U32()
		}
	case IndexImplicit:
	case IndexFixedArray:
		d.Skip(1)
	case IndexExtArray:
		d.Skip(5)
	case IndexBTreeV2:
		d.Skip(6)
	default:
		return malformed("chunk index type %d", m.Index)
	}
	m.Address = d.Offset()
	return nil
}

// setChunkDims splits the stored dimensions into chunk shape and element size.
func (m *Layout) setChunkDims(dims []uint64) {
	if len(dims) == 0 {
		return
	}
	m.ChunkDims = dims[:len(dims)-1]
	m.ElemSize = uint32(dims[len(dims)-1])
}

// Encode writes a version 3 layout message.
func (m *Layout) Encode(e *binary.Encoder) {
	e.U8(3)
	e.U8(uint8(m.Class))
	switch m.Class {
	case LayoutCompact:
		e.U16(uint16(len(m.Data)))
		e.Write(m.Data)
	case LayoutContiguous:
		e.Offset(m.Address)
		e.Length(m.Size)
	case LayoutChunked:
		e.U8(uint8(len(m.ChunkDims) + 1))
		e.Offset(m.Address)
		for _, n := range m.ChunkDims {
			e.U32(uint32(n))
		}
		e.U32(m.ElemSize)
	}
}
