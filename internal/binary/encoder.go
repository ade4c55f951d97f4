package binary

// Encoder builds a little-endian byte buffer.
type Encoder struct {
	buf   []byte
	sizes Sizes
}

// NewEncoder returns an empty encoder.
func NewEncoder(sizes Sizes) *Encoder {
	return &Encoder{sizes: sizes}
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Sizes returns the configured address and length widths.
func (e *Encoder) Sizes() Sizes { return e.sizes }

// U8 appends one byte.
func (e *Encoder) U8(v uint8) { e.buf = append(e.buf, v) }

// U16 appends a 2-byte integer.
func (e *Encoder) U16(v uint16) { e.Uint(uint64(v), 2) }

// U32 appends a 4-byte integer.
func (e *Encoder) U32(v uint32) { e.Uint(uint64(v), 4) }

// U64 appends an 8-byte integer.
func (e *Encoder) U64(v uint64) { e.Uint(v, 8) }

// Uint appends v as an n-byte integer.
func (e *Encoder) Uint(v uint64, n int) {
	for i := 0; i < n; i++ {
		e.buf = append(e.buf, byte(v>>(8*i)))
	}
}

// Offset appends a file address.
func (e *Encoder) Offset(v uint64) { e.Uint(v, e.sizes.Offset) }

// Undefined appends the undefined address.
func (e *Encoder) Undefined() { e.Offset(e.sizes.Undefined()) }

// Length appends a length field.
func (e *Encoder) Length(v uint64) { e.Uint(v, e.sizes.Length) }

// Write appends raw bytes.
func (e *Encoder) Write(b []byte) { e.buf = append(e.buf, b...) }

// Zeros appends n zero bytes.
func (e *Encoder) Zeros(n int) {
	for ; n > 0; n-- {
		e.buf = append(e.buf, 0)
	}
}

// Pad appends zeros until the length is a multiple of align.
func (e *Encoder) Pad(align int) {
	if align > 1 {
		if r := len(e.buf) % align; r != 0 {
			e.Zeros(align - r)
		}
	}
}

// PatchU32 overwrites four bytes at off.
func (e *Encoder) PatchU32(off int, v uint32) { PutUint(e.buf[off:off+4], uint64(v)) }

// PatchUint overwrites n bytes at off.
func (e *Encoder) PatchUint(off int, v uint64, n int) { PutUint(e.buf[off:off+n], v) }

// AppendChecksum appends the lookup3 checksum of everything written so far.
func (e *Encoder) AppendChecksum() {
	e.U32(Lookup3(e.buf))
}
