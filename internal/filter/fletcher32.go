package filter

import (
	"errors"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// ErrChecksum is returned when a chunk fails Fletcher-32 verification.
var ErrChecksum = errors.New("fletcher32 checksum mismatch")

type fletcher32 struct{}

func (fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (fletcher32) Encode(in []byte) ([]byte, error) {
	out := make([]byte, len(in)+4)
	copy(out, in)
	binary.PutUint(out[len(in):], uint64(Fletcher32(in)))
	return out, nil
}

func (fletcher32) Decode(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, ErrChecksum
	}
	data := in[:len(in)-4]
	stored := uint32(binary.Uint(in[len(in)-4:]))
	sum := Fletcher32(data)
	// Files from some old library versions store the sum byte-swapped.
	swapped := sum>>24 | sum>>8&0xff00 | sum<<8&0xff0000 | sum<<24
	if stored != sum && stored != swapped {
		return nil, ErrChecksum
	}
	return data, nil
}

// Fletcher32 computes the checksum the way the HDF5 library does: over
// big-endian 16-bit words, reducing both sums every 360 words.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	words := len(data) / 2
	p := data
	for words > 0 {
		block := words
		if block > 360 {
			block = 360
		}
		words -= block
		for ; block > 0; block-- {
			sum1 += uint32(p[0])<<8 | uint32(p[1])
			sum2 += sum1
			p = p[2:]
		}
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}
	if len(data)%2 == 1 {
		sum1 += uint32(p[0]) << 8
		sum2 += sum1
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}
	sum1 = sum1&0xffff + sum1>>16
	sum2 = sum2&0xffff + sum2>>16
	return sum2<<16 | sum1
}
