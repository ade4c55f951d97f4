package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Chunk locates one stored chunk of a dataset.
type Chunk struct {
	// Offset is the chunk's element coordinates within the dataset.
	Offset []uint64

	Address uint64
	Size    uint32

	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32
}

func chunkKeySize(rank int) int { return 4 + 4 + 8*(rank+1) }

// ReadChunks returns every chunk indexed by the tree at addr for a dataset of
// the given rank.
func ReadChunks(r *binary.Reader, addr uint64, rank int) ([]Chunk, error) {
	var out []Chunk
	err := walkChunks(r, addr, rank, 0, &out)
	return out, err
}

func walkChunks(r *binary.Reader, addr uint64, rank, depth int, out *[]Chunk) error {
	if depth > maxDepth {
		return fmt.Errorf("chunk b-tree deeper than %d levels", maxDepth)
	}
	n, err := readNode(r, addr, typeChunk, chunkKeySize(rank))
	if err != nil {
		return err
	}
	for i, child := range n.children {
		if n.level > 0 {
			if err := walkChunks(r, child, rank, depth+1, out); err != nil {
				return err
			}
			continue
		}
		d := binary.NewDecoder(n.keys[i], r.Sizes())
		c := Chunk{Address: child, Size: d.U32(), FilterMask: d.U32()}
		for j := 0; j < rank; j++ {
			c.Offset = append(c.Offset, d.U64())
		}
		if err := d.Err(); err != nil {
			return err
		}
		if !r.Sizes().IsUndefined(child) {
			*out = append(*out, c)
		}
	}
	return nil
}

// DefaultChunkK is the chunk B-tree K value of files without a superblock
// extension; readers size nodes with it.
const DefaultChunkK = 32

// EncodeSingleChunk returns a leaf node indexing one chunk that covers a
// dataset of shape dims. The node is padded to the full size readers expect
// for DefaultChunkK.
func EncodeSingleChunk(c Chunk, dims []uint64, sizes binary.Sizes) []byte {
	rank := len(dims)
	e := binary.NewEncoder(sizes)
	e.Write([]byte("TREE"))
	e.U8(typeChunk)
	e.U8(0)
	e.U16(1)
	e.Undefined()
	e.Undefined()

	e.U32(c.Size)
	e.U32(c.FilterMask)
	e.Zeros(8 * (rank + 1))
	e.Offset(c.Address)

	// Right key: the first coordinate past the chunk.
	e.U32(0)
	e.U32(0)
	for _, n := range dims {
		e.U64(n)
	}
	e.U64(0)

	full := 8 + 2*sizes.Offset + 2*DefaultChunkK*sizes.Offset + (2*DefaultChunkK+1)*chunkKeySize(rank)
	e.Zeros(full - e.Len())
	return e.Bytes()
}
