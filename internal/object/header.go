package object

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/message"
)

var (
	signatureV2           = []byte("OHDR")
	signatureContinuation = []byte("OCHK")
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksum           = errors.New("object header checksum mismatch")
	ErrMessageTooLarge    = errors.New("header message exceeds 65535 bytes")
)

// maxChunks bounds continuation chains so a cyclic chain cannot loop forever.
const maxChunks = 1 << 12

// Raw is an undecoded header message.
type Raw struct {
	Type  message.Type
	Flags uint8
	Data  []byte
}

// Decode parses the message body.
func (m Raw) Decode(sizes binary.Sizes) (message.Message, error) {
	return message.Parse(m.Type, m.Flags, m.Data, sizes)
}

// Header is an object header with its messages in file order. NIL and
// continuation messages are dropped.
type Header struct {
	Version  uint8
	Address  uint64
	Messages []Raw
}

// Find returns the first message of type t.
func (h *Header) Find(t message.Type) (Raw, bool) {
	for _, m := range h.Messages {
		if m.Type == t {
			return m, true
		}
	}
	return Raw{}, false
}

// FindAll returns every message of type t.
func (h *Header) FindAll(t message.Type) []Raw {
	var out []Raw
	for _, m := range h.Messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Read decodes the object header at addr.
func Read(r *binary.Reader, addr uint64) (*Header, error) {
	head, err := r.ReadUpTo(addr, 16)
	if err != nil {
		return nil, err
	}
	switch {
	case len(head) >= 4 && bytes.Equal(head[:4], signatureV2):
		return readV2(r, addr)
	case len(head) >= 16 && head[0] == 1:
		return readV1(r, addr, head)
	}
	return nil, fmt.Errorf("%w at 0x%x", ErrInvalidHeader, addr)
}

type chunk struct{ addr, length uint64 }

// readV1 decodes a version 1 header: a 16-byte prefix followed by 8-byte
// aligned messages, continued in unsigned chunks.
func readV1(r *binary.Reader, addr uint64, head []byte) (*Header, error) {
	size := binary.Uint(head[8:12])
	h := &Header{Version: 1, Address: addr}
	queue := []chunk{{addr + 16, size}}

	for i := 0; i < len(queue); i++ {
		if i >= maxChunks {
			return nil, fmt.Errorf("%w: too many continuation chunks", ErrInvalidHeader)
		}
		c := queue[i]
		d, err := r.Decoder(c.addr, int(c.length))
		if err != nil {
			return nil, fmt.Errorf("object header 0x%x: %w", addr, err)
		}
		for d.Len() >= 8 {
			typ := message.Type(d.U16())
			n := int(d.U16())
			flags := d.U8()
			d.Skip(3)
			data := d.Bytes(n)
			if err := d.Err(); err != nil {
				return nil, fmt.Errorf("%w at 0x%x: %v", ErrInvalidHeader, addr, err)
			}
			next, err := h.add(typ, flags, data, r.Sizes())
			if err != nil {
				return nil, err
			}
			if next != nil {
				queue = append(queue, *next)
			}
		}
	}
	return h, nil
}

// readV2 decodes a version 2 header. Chunk 0 follows the prefix; each chunk
// ends with a lookup3 checksum and continuation chunks start with "OCHK".
func readV2(r *binary.Reader, addr uint64) (*Header, error) {
	prefix, err := r.ReadUpTo(addr, 6+16+4+8)
	if err != nil {
		return nil, err
	}
	d := binary.NewDecoder(prefix, r.Sizes())
	d.Skip(4)
	if v := d.U8(); v != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	flags := d.U8()
	if flags&0x20 != 0 {
		d.Skip(16)
	}
	if flags&0x10 != 0 {
		d.Skip(4)
	}
	size := d.Uint(1 << (flags & 0x03))
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%w at 0x%x: %v", ErrInvalidHeader, addr, err)
	}
	orderTracked := flags&0x04 != 0

	h := &Header{Version: 2, Address: addr}
	start := uint64(d.Pos())
	queue := []chunk{{addr, start + size + 4}}

	for i := 0; i < len(queue); i++ {
		if i >= maxChunks {
			return nil, fmt.Errorf("%w: too many continuation chunks", ErrInvalidHeader)
		}
		c := queue[i]
		buf, err := r.ReadAt(c.addr, int(c.length))
		if err != nil {
			return nil, fmt.Errorf("object header 0x%x: %w", addr, err)
		}
		if len(buf) < 8 {
			return nil, fmt.Errorf("%w: chunk of %d bytes", ErrInvalidHeader, len(buf))
		}
		body, sum := buf[:len(buf)-4], uint32(binary.Uint(buf[len(buf)-4:]))
		if !binary.VerifyLookup3(body, sum) {
			return nil, fmt.Errorf("%w at 0x%x", ErrChecksum, c.addr)
		}

		md := binary.NewDecoder(body, r.Sizes())
		if i == 0 {
			md.Seek(int(start))
		} else {
			if !bytes.Equal(body[:4], signatureContinuation) {
				return nil, fmt.Errorf("%w: bad continuation signature at 0x%x", ErrInvalidHeader, c.addr)
			}
			md.Skip(4)
		}

		hdrLen := 4
		if orderTracked {
			hdrLen = 6
		}
		for md.Len() >= hdrLen {
			typ := message.Type(md.U8())
			n := int(md.U16())
			mflags := md.U8()
			if orderTracked {
				md.U16()
			}
			data := md.Bytes(n)
			if err := md.Err(); err != nil {
				return nil, fmt.Errorf("%w at 0x%x: %v", ErrInvalidHeader, addr, err)
			}
			next, err := h.add(typ, mflags, data, r.Sizes())
			if err != nil {
				return nil, err
			}
			if next != nil {
				queue = append(queue, *next)
			}
		}
	}
	return h, nil
}

// add records a message, returning the chunk it points to if it is a
// continuation.
func (h *Header) add(typ message.Type, flags uint8, data []byte, sizes binary.Sizes) (*chunk, error) {
	switch typ {
	case message.TypeNIL:
		return nil, nil
	case message.TypeContinuation:
		m, err := message.Parse(typ, 0, data, sizes)
		if err != nil {
			return nil, fmt.Errorf("object header 0x%x: %w", h.Address, err)
		}
		c := m.(*message.Continuation)
		return &chunk{c.Address, c.Length}, nil
	}
	h.Messages = append(h.Messages, Raw{Type: typ, Flags: flags, Data: data})
	return nil, nil
}
