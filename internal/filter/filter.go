// Package filter implements the HDF5 chunk filters this module understands:
// deflate, shuffle and Fletcher-32. Filters are applied in pipeline order on
// write and in reverse order on read.
package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/message"
)

// ErrUnsupported is returned for filters without an implementation.
var ErrUnsupported = errors.New("unsupported filter")

// Filter transforms chunk bytes in both directions.
type Filter interface {
	ID() uint16
	Encode(in []byte) ([]byte, error)
	Decode(in []byte) ([]byte, error)
}

// registry maps filter ids to constructors taking the client data values and
// the dataset element size.
var registry = map[uint16]func(cd []uint32, elemSize int) Filter{
	message.FilterDeflate:    newDeflate,
	message.FilterShuffle:    newShuffle,
	message.FilterFletcher32: func([]uint32, int) Filter { return fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZip:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name returns a readable name for a filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

func lookup(f message.Filter, elemSize int) (Filter, error) {
	ctor, ok := registry[f.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, Name(f.ID))
	}
	return ctor(f.ClientData, elemSize), nil
}
