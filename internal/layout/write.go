package layout

import (
	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/btree"
	"github.com/robert-malhotra/h5dict/internal/filter"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// Placer stores a block in the file and returns its address.
type Placer func(data []byte) (uint64, error)

// Write stores data for a dataset of shape dims and returns the layout
// message describing it. Without filters the data is contiguous. With
// filters it becomes one chunk spanning the whole dataset, indexed by a
// version 1 B-tree. Empty datasets are never allocated.
func Write(place Placer, sizes binary.Sizes, data []byte, dims []uint64, elemSize int, fp *message.FilterPipeline) (*message.Layout, error) {
	empty := len(data) == 0
	if fp == nil || len(fp.Filters) == 0 || len(dims) == 0 || empty {
		if empty {
			return message.NewContiguousLayout(sizes.Undefined(), 0), nil
		}
		addr, err := place(data)
		if err != nil {
			return nil, err
		}
		return message.NewContiguousLayout(addr, uint64(len(data))), nil
	}

	enc, err := filter.NewPipeline(fp, elemSize).Encode(data)
	if err != nil {
		return nil, err
	}
	chunkAddr, err := place(enc)
	if err != nil {
		return nil, err
	}
	node := btree.EncodeSingleChunk(btree.Chunk{Address: chunkAddr, Size: uint32(len(enc))}, dims, sizes)
	treeAddr, err := place(node)
	if err != nil {
		return nil, err
	}
	return message.NewChunkedLayout(treeAddr, dims, uint32(elemSize)), nil
}
