package message

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Class is the datatype class number.
type Class uint8

const (
	ClassFixed     Class = 0
	ClassFloat     Class = 1
	ClassTime      Class = 2
	ClassString    Class = 3
	ClassBitfield  Class = 4
	ClassOpaque    Class = 5
	ClassCompound  Class = 6
	ClassReference Class = 7
	ClassEnum      Class = 8
	ClassVarLen    Class = 9
	ClassArray     Class = 10
)

var classNames = [...]string{"fixed", "float", "time", "string", "bitfield", "opaque", "compound", "reference", "enum", "vlen", "array"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of a numeric type.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = 0
	BigEndian    ByteOrder = 1
	VAXOrder     ByteOrder = 2
)

// Padding of fixed-length strings.
type Padding uint8

const (
	PadNullTerm Padding = 0
	PadNull     Padding = 1
	PadSpace    Padding = 2
)

// Charset of string data and names.
type Charset uint8

const (
	ASCII Charset = 0
	UTF8  Charset = 1
)

// Datatype describes how one element is stored. Which fields are meaningful
// depends on Class.
type Datatype struct {
	Class   Class
	Version uint8
	Size    uint32

	// Fixed, float and bitfield.
	Order     ByteOrder
	Signed    bool
	BitOffset uint16
	Precision uint16

	// Float.
	SignLocation uint8
	ExpLocation  uint8
	ExpSize      uint8
	MantLocation uint8
	MantSize     uint8
	ExpBias      uint32

	// String and variable-length string.
	Padding Padding
	Charset Charset

	// VarLenString distinguishes vlen strings from vlen sequences.
	VarLenString bool

	Members []Member // compound

	// Enum member names and their raw values in the base type.
	Names  []string
	Values [][]byte

	Base      *Datatype // enum, vlen and array
	ArrayDims []uint32

	Tag     string // opaque
	RefKind uint8  // reference: 0 object, 1 region
}

// Member is one field of a compound type.
type Member struct {
	Name   string
	Offset uint32
	Type   *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsVarString reports whether values are variable-length strings.
func (m *Datatype) IsVarString() bool { return m.Class == ClassVarLen && m.VarLenString }

// IsString reports whether values are strings of either kind.
func (m *Datatype) IsString() bool { return m.Class == ClassString || m.IsVarString() }

// IsBool reports whether m is the two-member FALSE/TRUE enum used for
// booleans by h5py.
func (m *Datatype) IsBool() bool {
	if m.Class != ClassEnum || len(m.Names) != 2 || m.Base == nil {
		return false
	}
	for i, want := range []string{"FALSE", "TRUE"} {
		if m.Names[i] != want || binary.Uint(m.Values[i]) != uint64(i) {
			return false
		}
	}
	return true
}

// String returns a short description such as "int64" or "vlen string".
func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixed:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloat:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string[%d]", m.Size)
	case ClassVarLen:
		if m.VarLenString {
			return "vlen string"
		}
		return "vlen " + m.Base.String()
	case ClassEnum:
		if m.IsBool() {
			return "bool"
		}
		return "enum(" + strings.Join(m.Names, ",") + ")"
	case ClassCompound:
		names := make([]string, len(m.Members))
		for i, mem := range m.Members {
			names[i] = mem.Name + ":" + mem.Type.String()
		}
		return "compound{" + strings.Join(names, ",") + "}"
	case ClassArray:
		return fmt.Sprintf("array%v %s", m.ArrayDims, m.Base)
	}
	return m.Class.String()
}

// ParseDatatype decodes a datatype message body.
func ParseDatatype(data []byte) (*Datatype, error) {
	d := binary.NewDecoder(data, binary.DefaultSizes)
	dt, err := decodeDatatype(d)
	if err != nil {
		return nil, err
	}
	return dt, d.Err()
}

func decodeDatatype(d *binary.Decoder) (*Datatype, error) {
	head := d.U8()
	bits := d.Bytes(3)
	size := d.U32()
	if err := d.Err(); err != nil {
		return nil, err
	}
	m := &Datatype{Class: Class(head & 0x0F), Version: head >> 4, Size: size}

	switch m.Class {
	case ClassFixed, ClassBitfield:
		m.Order = ByteOrder(bits[0] & 0x01)
		m.Signed = bits[0]&0x08 != 0
		m.BitOffset = d.U16()
		m.Precision = d.U16()

	case ClassFloat:
		m.Order = ByteOrder(bits[0] & 0x01)
		if bits[0]&0x40 != 0 {
			m.Order = VAXOrder
		}
		m.SignLocation = bits[1]
		m.BitOffset = d.U16()
		m.Precision = d.U16()
		m.ExpLocation = d.U8()
		m.ExpSize = d.U8()
		m.MantLocation = d.U8()
		m.MantSize = d.U8()
		m.ExpBias = d.U32()

	case ClassTime:
		m.Order = ByteOrder(bits[0] & 0x01)
		m.Precision = d.U16()

	case ClassString:
		m.Padding = Padding(bits[0] & 0x0F)
		m.Charset = Charset(bits[0] >> 4)

	case ClassOpaque:
		m.Tag = strings.TrimRight(string(d.Bytes(int(bits[0]))), "\x00")

	case ClassCompound:
		n := int(bits[0]) | int(bits[1])<<8
		for i := 0; i < n; i++ {
			mem, err := decodeMember(d, m.Version, size)
			if err != nil {
				return nil, err
			}
			m.Members = append(m.Members, mem)
		}

	case ClassReference:
		m.RefKind = bits[0] & 0x0F

	case ClassEnum:
		n := int(bits[0]) | int(bits[1])<<8
		base, err := decodeDatatype(d)
		if err != nil {
			return nil, err
		}
		m.Base = base
		for i := 0; i < n; i++ {
			m.Names = append(m.Names, decodeName(d, m.Version < 3))
		}
		for i := 0; i < n; i++ {
			m.Values = append(m.Values, d.Bytes(int(base.Size)))
		}

	case ClassVarLen:
		m.VarLenString = bits[0]&0x0F == 1
		m.Padding = Padding(bits[0] >> 4)
		m.Charset = Charset(bits[1] & 0x0F)
		base, err := decodeDatatype(d)
		if err != nil {
			return nil, err
		}
		m.Base = base

	case ClassArray:
		rank := int(d.U8())
		if m.Version < 3 {
			d.Skip(3)
		}
		for i := 0; i < rank; i++ {
			m.ArrayDims = append(m.ArrayDims, d.U32())
		}
		if m.Version < 3 {
			d.Skip(4 * rank)
		}
		base, err := decodeDatatype(d)
		if err != nil {
			return nil, err
		}
		m.Base = base

	default:
		return nil, malformed("datatype class %d", m.Class)
	}
	return m, d.Err()
}

// decodeName reads a NUL-terminated name, optionally padded to 8 bytes.
func decodeName(d *binary.Decoder, pad8 bool) string {
	start := d.Pos()
	name := d.CString()
	if pad8 {
		d.Seek(start + padded(d.Pos()-start))
	}
	return name
}

func decodeMember(d *binary.Decoder, version uint8, size uint32) (Member, error) {
	var mem Member
	mem.Name = decodeName(d, version < 3)
	switch version {
	case 1:
		mem.Offset = d.U32()
		d.Skip(1 + 3 + 4 + 4 + 16) // dimensionality, reserved, permutation, reserved, dims
	case 2:
		mem.Offset = d.U32()
	default:
		mem.Offset = uint32(d.Uint(memberOffsetWidth(size)))
	}
	t, err := decodeDatatype(d)
	if err != nil {
		return mem, err
	}
	mem.Type = t
	return mem, d.Err()
}

func memberOffsetWidth(size uint32) int {
	switch {
	case size < 1<<8:
		return 1
	case size < 1<<16:
		return 2
	case size < 1<<24:
		return 3
	}
	return 4
}

// Encode writes m. Names of compound and enum members follow the version
// recorded in m.
func (m *Datatype) Encode(e *binary.Encoder) {
	version := m.Version
	if version == 0 {
		version = 1
	}
	var bits [3]byte

	switch m.Class {
	case ClassFixed, ClassBitfield:
		bits[0] = byte(m.Order & 0x01)
		if m.Signed {
			bits[0] |= 0x08
		}
	case ClassFloat:
		bits[0] = byte(m.Order&0x01) | 0x20
		bits[1] = m.SignLocation
	case ClassTime:
		bits[0] = byte(m.Order & 0x01)
	case ClassString:
		bits[0] = byte(m.Padding&0x0F) | byte(m.Charset)<<4
	case ClassOpaque:
		bits[0] = byte(padded(len(m.Tag) + 1))
	case ClassCompound, ClassEnum:
		n := len(m.Members)
		if m.Class == ClassEnum {
			n = len(m.Names)
		}
		bits[0], bits[1] = byte(n), byte(n>>8)
	case ClassReference:
		bits[0] = m.RefKind & 0x0F
	case ClassVarLen:
		bits[0] = byte(m.Padding&0x0F) << 4
		if m.VarLenString {
			bits[0] |= 1
		}
		bits[1] = byte(m.Charset & 0x0F)
	case ClassArray:
		if version < 2 {
			version = 2
		}
	}

	e.U8(byte(m.Class) | version<<4)
	e.Write(bits[:])
	e.U32(m.Size)

	switch m.Class {
	case ClassFixed, ClassBitfield:
		e.U16(m.BitOffset)
		e.U16(m.Precision)
	case ClassFloat:
		e.U16(m.BitOffset)
		e.U16(m.Precision)
		e.U8(m.ExpLocation)
		e.U8(m.ExpSize)
		e.U8(m.MantLocation)
		e.U8(m.MantSize)
		e.U32(m.ExpBias)
	case ClassTime:
		e.U16(m.Precision)
	case ClassOpaque:
		tag := make([]byte, padded(len(m.Tag)+1))
		copy(tag, m.Tag)
		e.Write(tag)
	case ClassCompound:
		for _, mem := range m.Members {
			encodeName(e, mem.Name, version < 3)
			switch version {
			case 1:
				e.U32(mem.Offset)
				e.Zeros(1 + 3 + 4 + 4 + 16)
			case 2:
				e.U32(mem.Offset)
			default:
				e.Uint(uint64(mem.Offset), memberOffsetWidth(m.Size))
			}
			mem.Type.Encode(e)
		}
	case ClassEnum:
		m.Base.Encode(e)
		for _, name := range m.Names {
			encodeName(e, name, version < 3)
		}
		for _, v := range m.Values {
			e.Write(v)
		}
	case ClassVarLen:
		m.Base.Encode(e)
	case ClassArray:
		e.U8(uint8(len(m.ArrayDims)))
		if version < 3 {
			e.Zeros(3)
		}
		for _, n := range m.ArrayDims {
			e.U32(n)
		}
		if version < 3 {
			for i := range m.ArrayDims {
				e.U32(uint32(i))
			}
		}
		m.Base.Encode(e)
	}
}

func encodeName(e *binary.Encoder, name string, pad8 bool) {
	e.Write([]byte(name))
	e.U8(0)
	if pad8 {
		e.Zeros(padded(len(name)+1) - (len(name) + 1))
	}
}

// NewInt returns a little-endian integer type of size bytes.
func NewInt(size int, signed bool) *Datatype {
	return &Datatype{
		Class:     ClassFixed,
		Version:   1,
		Size:      uint32(size),
		Signed:    signed,
		Precision: uint16(size * 8),
	}
}

// NewFloat returns a little-endian IEEE 754 type of 4 or 8 bytes.
func NewFloat(size int) *Datatype {
	m := &Datatype{Class: ClassFloat, Version: 1, Size: uint32(size)}
	if size == 4 {
		m.Precision, m.SignLocation = 32, 31
		m.ExpLocation, m.ExpSize, m.ExpBias = 23, 8, 127
		m.MantSize = 23
	} else {
		m.Size = 8
		m.Precision, m.SignLocation = 64, 63
		m.ExpLocation, m.ExpSize, m.ExpBias = 52, 11, 1023
		m.MantSize = 52
	}
	return m
}

// NewFixedString returns a NUL-padded string type of size bytes.
func NewFixedString(size int, cs Charset) *Datatype {
	return &Datatype{Class: ClassString, Version: 1, Size: uint32(size), Padding: PadNull, Charset: cs}
}

// NewVarString returns the variable-length UTF-8 string type h5py writes for
// Python str values.
func NewVarString() *Datatype {
	return &Datatype{
		Class:        ClassVarLen,
		Version:      1,
		Size:         16,
		VarLenString: true,
		Padding:      PadNullTerm,
		Charset:      UTF8,
		Base:         NewInt(1, false),
	}
}

// NewBool returns the int8 FALSE/TRUE enum h5py uses for numpy bools.
func NewBool() *Datatype {
	return &Datatype{
		Class:   ClassEnum,
		Version: 1,
		Size:    1,
		Base:    NewInt(1, true),
		Names:   []string{"FALSE", "TRUE"},
		Values:  [][]byte{{0}, {1}},
	}
}
