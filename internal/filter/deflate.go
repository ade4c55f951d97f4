package filter

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/robert-malhotra/h5dict/internal/message"
)

type deflate struct{ level int }

func newDeflate(cd []uint32, _ int) Filter {
	level := zlib.DefaultCompression
	if len(cd) > 0 && cd[0] <= 9 {
		level = int(cd[0])
	}
	return deflate{level: level}
}

func (deflate) ID() uint16 { return message.FilterDeflate }

func (f deflate) Encode(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflate) Decode(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
