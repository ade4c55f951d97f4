package message

import (
	"strings"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Well-known filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZip        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// Filter is one stage of a filter pipeline.
type Filter struct {
	ID         uint16
	Name       string
	Optional   bool
	ClientData []uint32
}

// FilterPipeline lists the filters applied to each chunk, in write order.
type FilterPipeline struct {
	Filters []Filter
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// NewDeflatePipeline returns a pipeline with deflate at the given level.
func NewDeflatePipeline(level int) *FilterPipeline {
	return &FilterPipeline{Filters: []Filter{{ID: FilterDeflate, ClientData: []uint32{uint32(level)}}}}
}

// Has reports whether the pipeline contains filter id.
func (m *FilterPipeline) Has(id uint16) bool {
	for _, f := range m.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

func parseFilterPipeline(data []byte) (*FilterPipeline, error) {
	d := binary.NewDecoder(data, binary.DefaultSizes)
	version := d.U8()
	n := int(d.U8())
	switch version {
	case 1:
		d.Skip(6)
	case 2:
	default:
		return nil, malformed("filter pipeline version %d", version)
	}

	m := &FilterPipeline{}
	for i := 0; i < n; i++ {
		var f Filter
		f.ID = d.U16()
		nameLen := 0
		if version == 1 || f.ID >= 256 {
			nameLen = int(d.U16())
		}
		f.Optional = d.U16()&0x01 != 0
		nvals := int(d.U16())
		if nameLen > 0 {
			if version == 1 {
				nameLen = padded(nameLen)
			}
			f.Name = strings.TrimRight(string(d.Bytes(nameLen)), "\x00")
		}
		for j := 0; j < nvals; j++ {
			f.ClientData = append(f.ClientData, d.U32())
		}
		if version == 1 && nvals%2 == 1 {
			d.Skip(4)
		}
		m.Filters = append(m.Filters, f)
	}
	return m, d.Err()
}

// Encode writes a version 2 filter pipeline.
func (m *FilterPipeline) Encode(e *binary.Encoder) {
	e.U8(2)
	e.U8(uint8(len(m.Filters)))
	for _, f := range m.Filters {
		e.U16(f.ID)
		if f.ID >= 256 {
			e.U16(uint16(len(f.Name) + 1))
		}
		var flags uint16
		if f.Optional {
			flags = 1
		}
		e.U16(flags)
		e.U16(uint16(len(f.ClientData)))
		if f.ID >= 256 {
			e.Write([]byte(f.Name))
			e.U8(0)
		}
		for _, v := range f.ClientData {
			e.U32(v)
		}
	}
}

// FillValue records when and how a dataset's storage is initialised.
type FillValue struct {
	Version   uint8
	AllocTime uint8
	FillTime  uint8
	Defined   bool
	Value     []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// Allocation times.
const (
	AllocEarly       uint8 = 1
	AllocLate        uint8 = 2
	AllocIncremental uint8 = 3
)

// NewFillValue returns the default fill value settings for a dataset with
// the given allocation time: no user value, write fill only if set.
func NewFillValue(alloc uint8) *FillValue {
	return &FillValue{Version: 3, AllocTime: alloc, FillTime: 2}
}

func parseFillValue(data []byte) (*FillValue, error) {
	d := binary.NewDecoder(data, binary.DefaultSizes)
	m := &FillValue{Version: d.U8()}
	switch m.Version {
	case 1, 2:
		m.AllocTime = d.U8()
		m.FillTime = d.U8()
		m.Defined = d.U8() != 0
		if m.Defined || m.Version == 1 {
			if n := d.U32(); n > 0 {
				m.Value = d.Bytes(int(n))
				m.Defined = true
			}
		}
	case 3:
		flags := d.U8()
		m.AllocTime = flags & 0x03
		m.FillTime = flags >> 2 & 0x03
		if flags&0x20 != 0 {
			m.Defined = true
			m.Value = d.Bytes(int(d.U32()))
		}
	default:
		return nil, malformed("fill value version %d", m.Version)
	}
	return m, d.Err()
}

// Encode writes a version 3 fill value message.
func (m *FillValue) Encode(e *binary.Encoder) {
	flags := m.AllocTime&0x03 | (m.FillTime&0x03)<<2
	if m.Defined {
		flags |= 0x20
	}
	e.U8(3)
	e.U8(flags)
	if m.Defined {
		e.U32(uint32(len(m.Value)))
		e.Write(m.Value)
	}
}
