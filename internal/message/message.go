package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Type is a header message type number.
type Type uint16

const (
	TypeNIL            Type = 0x00
	TypeDataspace      Type = 0x01
	TypeLinkInfo       Type = 0x02
	TypeDatatype       Type = 0x03
	TypeFillValueOld   Type = 0x04
	TypeFillValue      Type = 0x05
	TypeLink           Type = 0x06
	TypeExternalFiles  Type = 0x07
	TypeDataLayout     Type = 0x08
	TypeBogus          Type = 0x09
	TypeGroupInfo      Type = 0x0A
	TypeFilterPipeline Type = 0x0B
	TypeAttribute      Type = 0x0C
	TypeComment        Type = 0x0D
	TypeModTimeOld     Type = 0x0E
	TypeSharedTable    Type = 0x0F
	TypeContinuation   Type = 0x10
	TypeSymbolTable    Type = 0x11
	TypeModTime        Type = 0x12
	TypeBTreeK         Type = 0x13
	TypeDriverInfo     Type = 0x14
	TypeAttributeInfo  Type = 0x15
	TypeRefCount       Type = 0x16
)

// MaxSize is the largest message body an object header can hold.
const MaxSize = 0xFFFF

// Message flag bits from the object header.
const (
	FlagConstant = 0x01
	FlagShared   = 0x02
)

var (
	// ErrUnsupported marks valid but unimplemented encodings.
	ErrUnsupported = errors.New("unsupported")

	// ErrMalformed marks a message body that does not decode.
	ErrMalformed = errors.New("malformed message")
)

// Message is a decoded header message.
type Message interface {
	Type() Type
}

// Encodable is a message this package can serialize.
type Encodable interface {
	Message
	Encode(e *binary.Encoder)
}

// Encode serializes m into a fresh buffer.
func Encode(m Encodable, sizes binary.Sizes) []byte {
	e := binary.NewEncoder(sizes)
	m.Encode(e)
	return e.Bytes()
}

// Parse decodes a message body. Shared messages and unknown types are
// returned as *Unknown.
func Parse(typ Type, flags uint8, data []byte, sizes binary.Sizes) (Message, error) {
	if flags&FlagShared != 0 {
		return &Unknown{Kind: typ, Flags: flags, Data: data}, nil
	}
	var (
		m   Message
		err error
	)
	switch typ {
	case TypeDataspace:
		m, err = parseDataspace(data, sizes)
	case TypeDatatype:
		m, err = ParseDatatype(data)
	case TypeDataLayout:
		m, err = parseLayout(data, sizes)
	case TypeFilterPipeline:
		m, err = parseFilterPipeline(data)
	case TypeAttribute:
		m, err = parseAttribute(data, sizes)
	case TypeLink:
		m, err = parseLink(data, sizes)
	case TypeLinkInfo:
		m, err = parseLinkInfo(data, sizes)
	case TypeAttributeInfo:
		m, err = parseAttributeInfo(data, sizes)
	case TypeSymbolTable:
		m, err = parseSymbolTable(data, sizes)
	case TypeContinuation:
		m, err = parseContinuation(data, sizes)
	case TypeFillValue:
		m, err = parseFillValue(data)
	default:
		return &Unknown{Kind: typ, Flags: flags, Data: data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message 0x%04x: %w", uint16(typ), err)
	}
	return m, nil
}

// Unknown is a message kept as raw bytes.
type Unknown struct {
	Kind  Type
	Flags uint8
	Data  []byte
}

func (m *Unknown) Type() Type { return m.Kind }

// Encode writes the raw body back unchanged.
func (m *Unknown) Encode(e *binary.Encoder) { e.Write(m.Data) }

// Continuation points at the next object header chunk.
type Continuation struct {
	Address uint64
	Length  uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

func parseContinuation(data []byte, sizes binary.Sizes) (*Continuation, error) {
	d := binary.NewDecoder(data, sizes)
	m := &Continuation{Address: d.Offset(), Length: d.Length()}
	return m, d.Err()
}

// SymbolTable locates the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress uint64
	HeapAddress  uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, sizes binary.Sizes) (*SymbolTable, error) {
	d := binary.NewDecoder(data, sizes)
	m := &SymbolTable{BTreeAddress: d.Offset(), HeapAddress: d.Offset()}
	return m, d.Err()
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// padded returns n rounded up to a multiple of 8.
func padded(n int) int { return (n + 7) &^ 7 }
