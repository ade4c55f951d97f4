package object

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// Encode returns a version 2 object header holding msgs in one chunk.
func Encode(msgs []Raw, sizes binary.Sizes) ([]byte, error) {
	size := 0
	for _, m := range msgs {
		if len(m.Data) > message.MaxSize {
			return nil, fmt.Errorf("%w: message 0x%02x is %d bytes", ErrMessageTooLarge, uint16(m.Type), len(m.Data))
		}
		size += 4 + len(m.Data)
	}

	var flags uint8
	width := 1
	switch {
	case size > 0xFFFF:
		flags, width = 2, 4
	case size > 0xFF:
		flags, width = 1, 2
	}

	e := binary.NewEncoder(sizes)
	e.Write(signatureV2)
	e.U8(2)
	e.U8(flags)
	e.Uint(uint64(size), width)
	for _, m := range msgs {
		e.U8(uint8(m.Type))
		e.U16(uint16(len(m.Data)))
		e.U8(m.Flags)
		e.Write(m.Data)
	}
	e.AppendChecksum()
	return e.Bytes(), nil
}

// EncodeMessage serializes m as a raw message.
func EncodeMessage(m message.Encodable, sizes binary.Sizes) Raw {
	return Raw{Type: m.Type(), Data: message.Encode(m, sizes)}
}
