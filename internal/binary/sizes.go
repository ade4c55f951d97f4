package binary

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when an offset or length width is not 1, 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 1, 2, 4, or 8")

// ErrShort is returned when a buffer ends before a field is complete.
var ErrShort = errors.New("buffer too short")

// Sizes describes the width of file addresses and lengths, as declared by the
// superblock.
type Sizes struct {
	Offset int
	Length int
}

// DefaultSizes is what this package writes: 8-byte addresses and lengths.
var DefaultSizes = Sizes{Offset: 8, Length: 8}

// Validate reports whether both widths are supported.
func (s Sizes) Validate() error {
	for _, n := range []int{s.Offset, s.Length} {
		switch n {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: got %d", ErrInvalidSize, n)
		}
	}
	return nil
}

// Undefined returns the all-ones "undefined address" value for the offset width.
func (s Sizes) Undefined() uint64 { return allOnes(s.Offset) }

// IsUndefined reports whether addr is the undefined address.
func (s Sizes) IsUndefined(addr uint64) bool { return addr == allOnes(s.Offset) }

// IsUndefinedLength reports whether n is the all-ones length.
func (s Sizes) IsUndefinedLength(n uint64) bool { return n == allOnes(s.Length) }

func allOnes(width int) uint64 {
	if width >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*width) - 1
}

// Uint decodes a little-endian unsigned integer of len(b) bytes (at most 8).
func Uint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// PutUint encodes v little-endian into all of b.
func PutUint(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}
