package heap

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Collection is a decoded global heap collection.
type Collection struct {
	Address uint64
	objects map[uint32][]byte
}

// Object returns the data of object idx.
func (c *Collection) Object(idx uint32) ([]byte, bool) {
	b, ok := c.objects[idx]
	return b, ok
}

// ReadCollection reads the global heap collection at addr.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	sizes := r.Sizes()
	hd, err := r.Decoder(addr, 8+sizes.Length)
	if err != nil {
		return nil, fmt.Errorf("global heap 0x%x: %w", addr, err)
	}
	if sig := string(hd.Bytes(4)); sig != "GCOL" {
		return nil, fmt.Errorf("global heap 0x%x: bad signature %q", addr, sig)
	}
	if v := hd.U8(); v != 1 {
		return nil, fmt.Errorf("global heap 0x%x: unsupported version %d", addr, v)
	}
	hd.Skip(3)
	size := hd.Length()
	if err := hd.Err(); err != nil {
		return nil, err
	}

	buf, err := r.ReadAt(addr, int(size))
	if err != nil {
		return nil, fmt.Errorf("global heap 0x%x: %w", addr, err)
	}
	d := binary.NewDecoder(buf, sizes)
	d.Seek(hd.Pos())

	c := &Collection{Address: addr, objects: make(map[uint32][]byte)}
	objHeader := 8 + sizes.Length
	for d.Len() >= objHeader {
		idx := d.U16()
		if idx == 0 {
			break // free space runs to the end of the collection
		}
		d.U16() // reference count
		d.Skip(4)
		n := int(d.Length())
		data := d.Bytes(n)
		d.Skip(padTo8(n) - n)
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("global heap 0x%x object %d: %w", addr, idx, err)
		}
		c.objects[uint32(idx)] = data
	}
	return c, nil
}

// Reader resolves global heap references, caching collections.
type Reader struct {
	r     *binary.Reader
	cache map[uint64]*Collection
}

// NewReader returns a resolver over r.
func NewReader(r *binary.Reader) *Reader {
	return &Reader{r: r, cache: make(map[uint64]*Collection)}
}

// RefSize is the encoded size of a variable-length reference: a 4-byte
// sequence length, a collection address and a 4-byte object index.
func RefSize(sizes binary.Sizes) int { return 4 + sizes.Offset + 4 }

// Ref is a decoded variable-length reference.
type Ref struct {
	Length     uint32
	Collection uint64
	Index      uint32
}

// DecodeRef decodes a reference from b.
func DecodeRef(b []byte, sizes binary.Sizes) Ref {
	d := binary.NewDecoder(b, sizes)
	return Ref{Length: d.U32(), Collection: d.Offset(), Index: d.U32()}
}

// Encode writes the reference into b.
func (ref Ref) Encode(b []byte, sizes binary.Sizes) {
	binary.PutUint(b[0:4], uint64(ref.Length))
	binary.PutUint(b[4:4+sizes.Offset], ref.Collection)
	binary.PutUint(b[4+sizes.Offset:8+sizes.Offset], uint64(ref.Index))
}

// Resolve returns the bytes a reference points at. Zero-length references
// resolve to nil without touching the heap.
func (h *Reader) Resolve(ref Ref) ([]byte, error) {
	if ref.Length == 0 || ref.Collection == 0 {
		return nil, nil
	}
	c, ok := h.cache[ref.Collection]
	if !ok {
		var err error
		c, err = ReadCollection(h.r, ref.Collection)
		if err != nil {
			return nil, err
		}
		h.cache[ref.Collection] = c
	}
	b, ok := c.Object(ref.Index)
	if !ok {
		return nil, fmt.Errorf("global heap 0x%x: no object %d", ref.Collection, ref.Index)
	}
	return b, nil
}

func padTo8(n int) int { return (n + 7) &^ 7 }
