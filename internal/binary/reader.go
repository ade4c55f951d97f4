package binary

import (
	"errors"
	"fmt"
	"io"
)

// Reader fetches byte ranges from a file by absolute address.
type Reader struct {
	r     io.ReaderAt
	sizes Sizes
	base  int64
}

// NewReader returns a reader over r. Addresses are relative to base, the
// position of the superblock.
func NewReader(r io.ReaderAt, sizes Sizes, base int64) *Reader {
	return &Reader{r: r, sizes: sizes, base: base}
}

// Sizes returns the file's address and length widths.
func (r *Reader) Sizes() Sizes { return r.sizes }

// Base returns the superblock position that addresses are relative to.
func (r *Reader) Base() int64 { return r.base }

// ReadAt returns n bytes at addr.
func (r *Reader) ReadAt(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	m, err := r.r.ReadAt(buf, int64(addr)+r.base)
	if m == n {
		return buf, nil
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read %d bytes at 0x%x: %w", n, addr, err)
}

// Decoder reads n bytes at addr and returns a decoder over them.
func (r *Reader) Decoder(addr uint64, n int) (*Decoder, error) {
	b, err := r.ReadAt(addr, n)
	if err != nil {
		return nil, err
	}
	return NewDecoder(b, r.sizes), nil
}

// ReadUpTo reads at most n bytes at addr, returning fewer near end of file.
func (r *Reader) ReadUpTo(addr uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	m, err := r.r.ReadAt(buf, int64(addr)+r.base)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read at 0x%x: %w", addr, err)
	}
	return buf[:m], nil
}
