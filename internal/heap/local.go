package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Local is a local heap: a block of NUL-terminated names addressed by offset.
type Local struct {
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap at addr along with its data segment.
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	sizes := r.Sizes()
	d, err := r.Decoder(addr, 8+2*sizes.Length+sizes.Offset)
	if err != nil {
		return nil, fmt.Errorf("local heap 0x%x: %w", addr, err)
	}
	if sig := string(d.Bytes(4)); sig != "HEAP" {
		return nil, fmt.Errorf("local heap 0x%x: bad signature %q", addr, sig)
	}
	if v := d.U8(); v != 0 {
		return nil, fmt.Errorf("local heap 0x%x: unsupported version %d", addr, v)
	}
	d.Skip(3)
	size := d.Length()
	d.Length() // free list head
	h := &Local{DataAddress: d.Offset()}
	if err := d.Err(); err != nil {
		return nil, err
	}
	h.data, err = r.ReadAt(h.DataAddress, int(size))
	if err != nil {
		return nil, fmt.Errorf("local heap 0x%x data: %w", addr, err)
	}
	return h, nil
}

// String returns the NUL-terminated string starting at off.
func (h *Local) String(off uint64) (string, error) {
	if off >= uint64(len(h.data)) {
		return "", fmt.Errorf("local heap offset %d out of range (%d bytes)", off, len(h.data))
	}
	rest := h.data[off:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	return string(rest), nil
}
