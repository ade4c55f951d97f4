package binary

import "fmt"

// Decoder reads fields from an in-memory buffer. The first failure is
// recorded and every later read returns zero values, so callers can decode a
// whole structure and check Err once.
type Decoder struct {
	buf   []byte
	pos   int
	sizes Sizes
	err   error
}

// NewDecoder returns a decoder over b.
func NewDecoder(b []byte, sizes Sizes) *Decoder {
	return &Decoder{buf: b, sizes: sizes}
}

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error { return d.err }

// Pos returns the current offset into the buffer.
func (d *Decoder) Pos() int { return d.pos }

// Len returns the number of unread bytes.
func (d *Decoder) Len() int {
	if d.pos >= len(d.buf) {
		return 0
	}
	return len(d.buf) - d.pos
}

// Sizes returns the configured address and length widths.
func (d *Decoder) Sizes() Sizes { return d.sizes }

// Seek moves to an absolute offset within the buffer.
func (d *Decoder) Seek(pos int) {
	if d.err == nil && (pos < 0 || pos > len(d.buf)) {
		d.fail(pos - d.pos)
		return
	}
	d.pos = pos
}

func (d *Decoder) fail(want int) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShort, want, d.pos, d.Len())
	}
}

// Bytes returns the next n bytes. The result aliases the buffer.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Len() < n {
		d.fail(n)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// Skip advances past n bytes.
func (d *Decoder) Skip(n int) { d.Bytes(n) }

// U8 reads one byte.
func (d *Decoder) U8() uint8 {
	b := d.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a 2-byte integer.
func (d *Decoder) U16() uint16 { return uint16(d.Uint(2)) }

// U32 reads a 4-byte integer.
func (d *Decoder) U32() uint32 { return uint32(d.Uint(4)) }

// U64 reads an 8-byte integer.
func (d *Decoder) U64() uint64 { return d.Uint(8) }

// Uint reads an n-byte integer.
func (d *Decoder) Uint(n int) uint64 {
	b := d.Bytes(n)
	if b == nil {
		return 0
	}
	return Uint(b)
}

// Offset reads a file address.
func (d *Decoder) Offset() uint64 { return d.Uint(d.sizes.Offset) }

// Length reads a length field.
func (d *Decoder) Length() uint64 { return d.Uint(d.sizes.Length) }

// CString reads a NUL-terminated string and consumes the terminator.
func (d *Decoder) CString() string {
	if d.err != nil {
		return ""
	}
	for i := d.pos; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.pos:i])
			d.pos = i + 1
			return s
		}
	}
	d.fail(d.Len() + 1)
	return ""
}
