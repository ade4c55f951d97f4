package message

import (
	"fmt"
	"unicode/utf8"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Charset   Charset

	// Data is the raw element data. Variable-length elements hold global heap
	// references.
	Data []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, sizes binary.Sizes) (*Attribute, error) {
	d := binary.NewDecoder(data, sizes)
	version := d.U8()
	flags := d.U8()
	nameSize := int(d.U16())
	dtSize := int(d.U16())
	dsSize := int(d.U16())

	m := &Attribute{}
	switch version {
	case 1:
		// reserved byte
	case 2:
	case 3:
		m.Charset = Charset(d.U8())
	default:
		return nil, malformed("attribute version %d", version)
	}
	if flags&0x03 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype or dataspace", ErrUnsupported)
	}
	pad := func(n int) int {
		if version == 1 {
			return padded(n)
		}
		return n
	}

	name := d.Bytes(pad(nameSize))
	if nameSize > 0 && len(name) >= nameSize {
		m.Name = string(name[:nameSize-1])
	}
	dtBytes := d.Bytes(pad(dtSize))
	dsBytes := d.Bytes(pad(dsSize))
	if err := d.Err(); err != nil {
		return nil, err
	}

	dt, err := ParseDatatype(dtBytes[:dtSize])
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", m.Name, err)
	}
	ds, err := parseDataspace(dsBytes[:dsSize], sizes)
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", m.Name, err)
	}
	m.Datatype, m.Dataspace = dt, ds

	n := int(ds.NumElements()) * int(dt.Size)
	if d.Len() < n {
		return nil, malformed("attribute %q: %d data bytes, need %d", m.Name, d.Len(), n)
	}
	m.Data = d.Bytes(n)
	return m, d.Err()
}

// Encode writes a version 3 attribute.
func (m *Attribute) Encode(e *binary.Encoder) {
	dt := Encode(m.Datatype, e.Sizes())
	ds := Encode(m.Dataspace, e.Sizes())
	cs := ASCII
	for i := 0; i < len(m.Name); i++ {
		if m.Name[i] >= utf8.RuneSelf {
			cs = UTF8
			break
		}
	}
	e.U8(3)
	e.U8(0)
	e.U16(uint16(len(m.Name) + 1))
	e.U16(uint16(len(dt)))
	e.U16(uint16(len(ds)))
	e.U8(uint8(cs))
	e.Write([]byte(m.Name))
	e.U8(0)
	e.Write(dt)
	e.Write(ds)
	e.Write(m.Data)
}
