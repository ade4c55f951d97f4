package object

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/message"
)

var sizes = binary.DefaultSizes

func reader(b []byte) *binary.Reader {
	return binary.NewReader(bytes.NewReader(b), sizes, 0)
}

func TestEncodeReadV2(t *testing.T) {
	msgs := []Raw{
		EncodeMessage(message.NewLinkInfo(sizes), sizes),
		EncodeMessage(&message.GroupInfo{}, sizes),
		EncodeMessage(message.NewHardLink("child", 0x400), sizes),
		{Type: message.TypeModTime, Flags: message.FlagConstant, Data: []byte{1, 0, 0, 0, 9, 9, 9, 9}},
	}
	buf, err := Encode(msgs, sizes)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	file := append(make([]byte, 64), buf...)

	h, err := Read(reader(file), 64)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 2 || len(h.Messages) != len(msgs) {
		t.Fatalf("got version %d with %d messages", h.Version, len(h.Messages))
	}
	for i, m := range h.Messages {
		if m.Type != msgs[i].Type || m.Flags != msgs[i].Flags || !bytes.Equal(m.Data, msgs[i].Data) {
			t.Errorf("message %d = %+v, want %+v", i, m, msgs[i])
		}
	}
	raw, ok := h.Find(message.TypeLink)
	if !ok {
		t.Fatal("link message not found")
	}
	m, err := raw.Decode(sizes)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if l := m.(*message.Link); l.Name != "child" || l.Address != 0x400 {
		t.Errorf("link = %+v", l)
	}
}

func TestEncodeWideChunkSize(t *testing.T) {
	var msgs []Raw
	for i := 0; i < 40; i++ {
		msgs = append(msgs, Raw{Type: message.TypeComment, Data: bytes.Repeat([]byte{'x'}, 2000)})
	}
	buf, err := Encode(msgs, sizes)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if buf[5]&0x03 != 2 {
		t.Errorf("flags = %#x, want 4-byte chunk size", buf[5])
	}
	h, err := Read(reader(buf), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(h.FindAll(message.TypeComment)) != 40 {
		t.Errorf("read %d messages", len(h.Messages))
	}
}

func TestEncodeTooLarge(t *testing.T) {
	big := Raw{Type: message.TypeAttribute, Data: make([]byte, message.MaxSize+1)}
	if _, err := Encode([]Raw{big}, sizes); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Encode = %v, want ErrMessageTooLarge", err)
	}
}

func TestReadV2Checksum(t *testing.T) {
	buf, err := Encode([]Raw{EncodeMessage(&message.GroupInfo{}, sizes)}, sizes)
	if err != nil {
		t.Fatal(err)
	}
	buf[len(buf)-5] ^= 0xff
	if _, err := Read(reader(buf), 0); !errors.Is(err, ErrChecksum) {
		t.Errorf("Read = %v, want ErrChecksum", err)
	}
}

// v1Message encodes one 8-byte aligned version 1 message.
func v1Message(e *binary.Encoder, typ message.Type, data []byte) {
	n := (len(data) + 7) &^ 7
	e.U16(uint16(typ))
	e.U16(uint16(n))
	e.U8(0)
	e.Zeros(3)
	e.Write(data)
	e.Zeros(n - len(data))
}

func TestReadV1WithContinuation(t *testing.T) {
	st := binary.NewEncoder(sizes)
	st.Offset(0x800)
	st.Offset(0x900)

	// continuation block at 0x100
	cont := binary.NewEncoder(sizes)
	v1Message(cont, message.TypeSymbolTable, st.Bytes())

	ce := binary.NewEncoder(sizes)
	ce.Offset(0x100)
	ce.Length(uint64(cont.Len()))

	body := binary.NewEncoder(sizes)
	v1Message(body, message.TypeNIL, make([]byte, 8))
	v1Message(body, message.TypeContinuation, ce.Bytes())

	hdr := binary.NewEncoder(sizes)
	hdr.U8(1)
	hdr.U8(0)
	hdr.U16(3)
	hdr.U32(1)
	hdr.U32(uint32(body.Len()))
	hdr.Zeros(4)
	hdr.Write(body.Bytes())

	file := make([]byte, 0x100+cont.Len())
	copy(file, hdr.Bytes())
	copy(file[0x100:], cont.Bytes())

	h, err := Read(reader(file), 0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if h.Version != 1 || len(h.Messages) != 1 {
		t.Fatalf("got %+v", h)
	}
	m, err := h.Messages[0].Decode(sizes)
	if err != nil {
		t.Fatal(err)
	}
	if s := m.(*message.SymbolTable); s.BTreeAddress != 0x800 || s.HeapAddress != 0x900 {
		t.Errorf("symbol table = %+v", s)
	}
}

func TestReadGarbage(t *testing.T) {
	if _, err := Read(reader(make([]byte, 32)), 0); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("Read = %v, want ErrInvalidHeader", err)
	}
}
