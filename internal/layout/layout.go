// Package layout assembles the raw bytes of a dataset from its storage:
// compact data in the object header, a contiguous block, or chunks located
// through a version 1 B-tree, a single-chunk index or an implicit index.
package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/btree"
	"github.com/robert-malhotra/h5dict/internal/filter"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// ErrUnsupported is returned for storage this package cannot read.
var ErrUnsupported = errors.New("unsupported storage layout")

// Storage describes one dataset's stored data.
type Storage struct {
	Layout   *message.Layout
	Filters  *message.FilterPipeline
	Dims     []uint64
	ElemSize int
}

func (s *Storage) numElements() uint64 {
	n := uint64(1)
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

// Read returns the dataset's elements in row-major order. Storage that was
// never allocated reads as zeros.
func Read(r *binary.Reader, s *Storage) ([]byte, error) {
	size := s.numElements() * uint64(s.ElemSize)
	l := s.Layout
	switch l.Class {
	case message.LayoutCompact:
		if uint64(len(l.Data)) < size {
			return nil, fmt.Errorf("compact data is %d bytes, need %d", len(l.Data), size)
		}
		return l.Data[:size], nil

	case message.LayoutContiguous:
		if size == 0 || r.Sizes().IsUndefined(l.Address) {
			return make([]byte, size), nil
		}
		return r.ReadAt(l.Address, int(size))

	case message.LayoutChunked:
		return readChunked(r, s, size)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, l.Class)
}

func readChunked(r *binary.Reader, s *Storage, size uint64) ([]byte, error) {
	l := s.Layout
	if len(l.ChunkDims) != len(s.Dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(l.ChunkDims), len(s.Dims))
	}
	out := make([]byte, size)
	if size == 0 || r.Sizes().IsUndefined(l.Address) {
		return out, nil
	}

	chunkBytes := uint64(s.ElemSize)
	for _, c := range l.ChunkDims {
		chunkBytes *= c
	}

	var chunks []btree.Chunk
	switch l.Index {
	case message.IndexBTreeV1:
		var err error
		chunks, err = btree.ReadChunks(r, l.Address, len(s.Dims))
		if err != nil {
			return nil, err
		}
	case message.IndexSingle:
		n := chunkBytes
		if l.FilteredSize > 0 {
			n = l.FilteredSize
		}
		chunks = []btree.Chunk{{
			Offset:     make([]uint64, len(s.Dims)),
			Address:    l.Address,
			Size:       uint32(n),
			FilterMask: l.FilterMask,
		}}
	case message.IndexImplicit:
		chunks = implicitChunks(l.Address, s.Dims, l.ChunkDims, chunkBytes)
	default:
		return nil, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, l.Index)
	}

	pipe := filter.NewPipeline(s.Filters, s.ElemSize)
	for _, c := range chunks {
		raw, err := r.ReadAt(c.Address, int(c.Size))
		if err != nil {
			return nil, fmt.Errorf("chunk %v: %w", c.Offset, err)
		}
		data, err := pipe.Decode(raw, c.FilterMask)
		if err != nil {
			return nil, fmt.Errorf("chunk %v: %w", c.Offset, err)
		}
		if uint64(len(data)) < chunkBytes {
			return nil, fmt.Errorf("chunk %v decoded to %d bytes, want %d", c.Offset, len(data), chunkBytes)
		}
		scatter(out, data, c.Offset, s.Dims, l.ChunkDims, s.ElemSize)
	}
	return out, nil
}

// implicitChunks lists the chunks of an implicit index, stored back to back
// in row-major chunk order.
func implicitChunks(addr uint64, dims, chunk []uint64, chunkBytes uint64) []btree.Chunk {
	grid := make([]uint64, len(dims))
	total := uint64(1)
	for i := range dims {
		grid[i] = (dims[i] + chunk[i] - 1) / chunk[i]
		total *= grid[i]
	}
	out := make([]btree.Chunk, 0, total)
	idx := make([]uint64, len(dims))
	for k := uint64(0); k < total; k++ {
		off := make([]uint64, len(dims))
		for i := range idx {
			off[i] = idx[i] * chunk[i]
		}
		out = append(out, btree.Chunk{Offset: off, Address: addr + k*chunkBytes, Size: uint32(chunkBytes)})
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < grid[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}

// scatter copies a decoded chunk into the row-major output buffer, clipping
// the parts of edge chunks that lie outside the dataset.
func scatter(out, chunk []byte, offset, dims, cdims []uint64, elem int) {
	rank := len(dims)
	last := rank - 1
	if offset[last] >= dims[last] {
		return
	}
	run := cdims[last]
	if offset[last]+run > dims[last] {
		run = dims[last] - offset[last]
	}

	idx := make([]uint64, rank) // position within the chunk, last axis fixed at 0
	for {
		inside := true
		var src, dst uint64
		for i := 0; i < rank; i++ {
			if offset[i]+idx[i] >= dims[i] {
				inside = false
				break
			}
			src = src*cdims[i] + idx[i]
			dst = dst*dims[i] + offset[i] + idx[i]
		}
		if inside {
			copy(out[dst*uint64(elem):(dst+run)*uint64(elem)], chunk[src*uint64(elem):(src+run)*uint64(elem)])
		}

		i := last - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < cdims[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
