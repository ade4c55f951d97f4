package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Node types.
const (
	typeGroup = 0
	typeChunk = 1
)

// maxDepth bounds recursion through corrupt or cyclic trees.
const maxDepth = 64

type node struct {
	level    uint8
	keys     [][]byte
	children []uint64
}

// readNode reads the node at addr. keySize is the size of one key.
func readNode(r *binary.Reader, addr uint64, wantType uint8, keySize int) (*node, error) {
	sizes := r.Sizes()
	hd, err := r.Decoder(addr, 8+2*sizes.Offset)
	if err != nil {
		return nil, fmt.Errorf("b-tree node 0x%x: %w", addr, err)
	}
	if sig := string(hd.Bytes(4)); sig != "TREE" {
		return nil, fmt.Errorf("b-tree node 0x%x: bad signature %q", addr, sig)
	}
	if typ := hd.U8(); typ != wantType {
		return nil, fmt.Errorf("b-tree node 0x%x: type %d, want %d", addr, typ, wantType)
	}
	n := &node{level: hd.U8()}
	used := int(hd.U16())
	if err := hd.Err(); err != nil {
		return nil, err
	}

	body := (used+1)*keySize + used*sizes.Offset
	d, err := r.Decoder(addr+uint64(8+2*sizes.Offset), body)
	if err != nil {
		return nil, fmt.Errorf("b-tree node 0x%x: %w", addr, err)
	}
	for i := 0; i < used; i++ {
		n.keys = append(n.keys, d.Bytes(keySize))
		n.children = append(n.children, d.Offset())
	}
	n.keys = append(n.keys, d.Bytes(keySize))
	return n, d.Err()
}
