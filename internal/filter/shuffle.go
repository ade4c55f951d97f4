package filter

import "github.com/robert-malhotra/h5dict/internal/message"

// shuffle regroups the bytes of each element so that byte 0 of every element
// comes first, then byte 1, and so on. Trailing bytes that do not make up a
// whole element are left in place.
type shuffle struct{ size int }

func newShuffle(cd []uint32, elemSize int) Filter {
	if len(cd) > 0 && cd[0] > 0 {
		elemSize = int(cd[0])
	}
	return shuffle{size: elemSize}
}

func (shuffle) ID() uint16 { return message.FilterShuffle }

func (f shuffle) Encode(in []byte) ([]byte, error) {
	if f.size <= 1 {
		return in, nil
	}
	n := len(in) / f.size
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for b := 0; b < f.size; b++ {
			out[b*n+i] = in[i*f.size+b]
		}
	}
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}

func (f shuffle) Decode(in []byte) ([]byte, error) {
	if f.size <= 1 {
		return in, nil
	}
	n := len(in) / f.size
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for b := 0; b < f.size; b++ {
			out[i*f.size+b] = in[b*n+i]
		}
	}
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}
