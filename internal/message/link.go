package message

import (
	"fmt"
	"unicode/utf8"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// LinkKind is the kind of target a link names.
type LinkKind uint8

const (
	LinkHard     LinkKind = 0
	LinkSoft     LinkKind = 1
	LinkExternal LinkKind = 64
)

// Link is one named entry of a compact group.
type Link struct {
	Name string
	Kind LinkKind

	// Address is the object header address of a hard link target.
	Address uint64

	// Target is the path of a soft link, or the object path inside File for
	// an external link.
	Target string
	File   string

	CreationOrder    int64
	HasCreationOrder bool
}

func (m *Link) Type() Type { return TypeLink }

// NewHardLink returns a link from name to the object header at addr.
func NewHardLink(name string, addr uint64) *Link {
	return &Link{Name: name, Kind: LinkHard, Address: addr}
}

// NewSoftLink returns a link from name to an in-file path.
func NewSoftLink(name, target string) *Link {
	return &Link{Name: name, Kind: LinkSoft, Target: target}
}

func parseLink(data []byte, sizes binary.Sizes) (*Link, error) {
	d := binary.NewDecoder(data, sizes)
	if v := d.U8(); v != 1 {
		return nil, malformed("link version %d", v)
	}
	flags := d.U8()
	m := &Link{}
	if flags&0x08 != 0 {
		m.Kind = LinkKind(d.U8())
	}
	if flags&0x04 != 0 {
		m.CreationOrder = int64(d.U64())
		m.HasCreationOrder = true
	}
	if flags&0x10 != 0 {
		d.U8() // name charset
	}
	nameLen := int(d.Uint(1 << (flags & 0x03)))
	m.Name = string(d.Bytes(nameLen))

	switch m.Kind {
	case LinkHard:
		m.Address = d.Offset()
	case LinkSoft:
		m.Target = string(d.Bytes(int(d.U16())))
	case LinkExternal:
		info := d.Bytes(int(d.U16()))
		if len(info) < 1 {
			return nil, malformed("external link %q: empty info", m.Name)
		}
		sub := binary.NewDecoder(info[1:], sizes)
		m.File = sub.CString()
		m.Target = sub.CString()
		if err := sub.Err(); err != nil {
			return nil, fmt.Errorf("external link %q: %w", m.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: link type %d", ErrUnsupported, m.Kind)
	}
	return m, d.Err()
}

// Encode writes a version 1 link message.
func (m *Link) Encode(e *binary.Encoder) {
	var flags uint8
	var width int
	switch n := len(m.Name); {
	case n < 1<<8:
		width = 1
	case n < 1<<16:
		flags, width = 1, 2
	default:
		flags, width = 2, 4
	}
	if m.Kind != LinkHard {
		flags |= 0x08
	}
	if m.HasCreationOrder {
		flags |= 0x04
	}
	utf := !isASCII(m.Name)
	if utf {
		flags |= 0x10
	}

	e.U8(1)
	e.U8(flags)
	if m.Kind != LinkHard {
		e.U8(uint8(m.Kind))
	}
	if m.HasCreationOrder {
		e.U64(uint64(m.CreationOrder))
	}
	if utf {
		e.U8(uint8(UTF8))
	}
	e.Uint(uint64(len(m.Name)), width)
	e.Write([]byte(m.Name))

	switch m.Kind {
	case LinkHard:
		e.Offset(m.Address)
	case LinkSoft:
		e.U16(uint16(len(m.Target)))
		e.Write([]byte(m.Target))
	case LinkExternal:
		e.U16(uint16(1 + len(m.File) + 1 + len(m.Target) + 1))
		e.U8(0)
		e.Write([]byte(m.File))
		e.U8(0)
		e.Write([]byte(m.Target))
		e.U8(0)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// LinkInfo describes how a new-style group stores its links. A defined
// HeapAddress means the links live in dense storage.
type LinkInfo struct {
	MaxCreationIndex  int64
	TrackOrder        bool
	IndexOrder        bool
	HeapAddress       uint64
	NameIndexAddress  uint64
	OrderIndexAddress uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns link info for a group holding compact links only.
func NewLinkInfo(sizes binary.Sizes) *LinkInfo {
	return &LinkInfo{
		HeapAddress:       sizes.Undefined(),
		NameIndexAddress:  sizes.Undefined(),
		OrderIndexAddress: sizes.Undefined(),
	}
}

// Dense reports whether links are kept in a fractal heap.
func (m *LinkInfo) Dense(sizes binary.Sizes) bool {
	return !sizes.IsUndefined(m.HeapAddress)
}

func parseLinkInfo(data []byte, sizes binary.Sizes) (*LinkInfo, error) {
	d := binary.NewDecoder(data, sizes)
	if v := d.U8(); v != 0 {
		return nil, malformed("link info version %d", v)
	}
	flags := d.U8()
	m := &LinkInfo{
		TrackOrder:        flags&0x01 != 0,
		IndexOrder:        flags&0x02 != 0,
		OrderIndexAddress: sizes.Undefined(),
	}
	if m.TrackOrder {
		m.MaxCreationIndex = int64(d.U64())
	}
	m.HeapAddress = d.Offset()
	m.NameIndexAddress = d.Offset()
	if m.IndexOrder {
		m.OrderIndexAddress = d.Offset()
	}
	return m, d.Err()
}

// Encode writes a version 0 link info message.
func (m *LinkInfo) Encode(e *binary.Encoder) {
	var flags uint8
	if m.TrackOrder {
		flags |= 0x01
	}
	if m.IndexOrder {
		flags |= 0x02
	}
	e.U8(0)
	e.U8(flags)
	if m.TrackOrder {
		e.U64(uint64(m.MaxCreationIndex))
	}
	e.Offset(m.HeapAddress)
	e.Offset(m.NameIndexAddress)
	if m.IndexOrder {
		e.Offset(m.OrderIndexAddress)
	}
}

// GroupInfo carries the storage thresholds of a new-style group. Only the
// defaults are written.
type GroupInfo struct{}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// Encode writes a version 0 group info message with no optional fields.
func (m *GroupInfo) Encode(e *binary.Encoder) {
	e.U8(0)
	e.U8(0)
}

// AttributeInfo describes where an object keeps its attributes. A defined
// HeapAddress means they live in dense storage.
type AttributeInfo struct {
	HeapAddress uint64
}

func (m *AttributeInfo) Type() Type { return TypeAttributeInfo }

// Dense reports whether attributes are kept in a fractal heap.
func (m *AttributeInfo) Dense(sizes binary.Sizes) bool {
	return !sizes.IsUndefined(m.HeapAddress)
}

func parseAttributeInfo(data []byte, sizes binary.Sizes) (*AttributeInfo, error) {
	d := binary.NewDecoder(data, sizes)
	if v := d.U8(); v != 0 {
		return nil, malformed("attribute info version %d", v)
	}
	if flags := d.U8(); flags&0x01 != 0 {
		d.U16()
	}
	m := &AttributeInfo{HeapAddress: d.Offset()}
	return m, d.Err()
}
