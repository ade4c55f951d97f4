package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/heap"
)

// Entry is one member of a symbol table group.
type Entry struct {
	Name    string
	Address uint64

	// Soft is set for symbolic links; Target is then the link value.
	Soft   bool
	Target string
}

// ReadGroup returns the members of the group whose B-tree is at addr, with
// names resolved through the group's local heap.
func ReadGroup(r *binary.Reader, addr uint64, names *heap.Local) ([]Entry, error) {
	var out []Entry
	err := walkGroup(r, addr, names, 0, &out)
	return out, err
}

func walkGroup(r *binary.Reader, addr uint64, names *heap.Local, depth int, out *[]Entry) error {
	if depth > maxDepth {
		return fmt.Errorf("group b-tree deeper than %d levels", maxDepth)
	}
	n, err := readNode(r, addr, typeGroup, r.Sizes().Length)
	if err != nil {
		return err
	}
	for _, child := range n.children {
		if n.level > 0 {
			err = walkGroup(r, child, names, depth+1, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

const cacheSoftLink = 2

// readSymbolNode reads an "SNOD" leaf of symbol table entries.
func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local, out *[]Entry) error {
	sizes := r.Sizes()
	hd, err := r.Decoder(addr, 8)
	if err != nil {
		return fmt.Errorf("symbol node 0x%x: %w", addr, err)
	}
	if sig := string(hd.Bytes(4)); sig != "SNOD" {
		return fmt.Errorf("symbol node 0x%x: bad signature %q", addr, sig)
	}
	if v := hd.U8(); v != 1 {
		return fmt.Errorf("symbol node 0x%x: unsupported version %d", addr, v)
	}
	hd.Skip(1)
	count := int(hd.U16())

	entrySize := 2*sizes.Offset + 4 + 4 + 16
	d, err := r.Decoder(addr+8, count*entrySize)
	if err != nil {
		return fmt.Errorf("symbol node 0x%x: %w", addr, err)
	}
	for i := 0; i < count; i++ {
		nameOff := d.Offset()
		e := Entry{Address: d.Offset()}
		cache := d.U32()
		d.Skip(4)
		scratch := d.Bytes(16)
		if err := d.Err(); err != nil {
			return err
		}
		if e.Name, err = names.String(nameOff); err != nil {
			return fmt.Errorf("symbol node 0x%x entry %d: %w", addr, i, err)
		}
		if cache == cacheSoftLink {
			e.Soft = true
			if e.Target, err = names.String(binary.Uint(scratch[:4])); err != nil {
				return fmt.Errorf("soft link %q: %w", e.Name, err)
			}
		}
		*out = append(*out, e)
	}
	return nil
}
