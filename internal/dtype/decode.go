package dtype

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// ErrUnsupported is returned for datatypes without a Go mapping.
var ErrUnsupported = errors.New("unsupported datatype")

// Resolver fetches variable-length data from the global heap.
type Resolver interface {
	Resolve(ref heap.Ref) ([]byte, error)
}

// Decoder converts raw element bytes into Go slices.
type Decoder struct {
	Sizes binary.Sizes
	Heap  Resolver
}

// Decode converts n elements of type dt stored in raw.
func (dec *Decoder) Decode(dt *message.Datatype, raw []byte, n int) (any, error) {
	size := int(dt.Size)
	if len(raw) < n*size {
		return nil, fmt.Errorf("have %d bytes for %d elements of %d bytes", len(raw), n, size)
	}
	elem := func(i int) []byte { return raw[i*size : (i+1)*size] }

	switch dt.Class {
	case message.ClassFixed:
		if !dt.Signed && size == 8 {
			out := make([]uint64, n)
			for i := range out {
				out[i] = readUint(elem(i), dt.Order)
			}
			return out, nil
		}
		if size > 8 {
			return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, size)
		}
		out := make([]int64, n)
		for i := range out {
			out[i] = readInt(elem(i), dt.Order, dt.Signed)
		}
		return out, nil

	case message.ClassFloat:
		if dt.Order == message.VAXOrder {
			return nil, fmt.Errorf("%w: VAX float", ErrUnsupported)
		}
		out := make([]float64, n)
		for i := range out {
			bits := readUint(elem(i), dt.Order)
			switch size {
			case 2:
				out[i] = halfToFloat(uint16(bits))
			case 4:
				out[i] = float64(math.Float32frombits(uint32(bits)))
			case 8:
				out[i] = math.Float64frombits(bits)
			default:
				return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, size)
			}
		}
		return out, nil

	case message.ClassString:
		out := make([]string, n)
		for i := range out {
			out[i] = trimString(elem(i), dt.Padding)
		}
		return out, nil

	case message.ClassVarLen:
		return dec.decodeVarLen(dt, raw, n)

	case message.ClassEnum:
		if dt.Base == nil {
			return nil, fmt.Errorf("enum without base type")
		}
		if dt.IsBool() {
			out := make([]bool, n)
			for i := range out {
				out[i] = readUint(elem(i), dt.Base.Order) != 0
			}
			return out, nil
		}
		out := make([]string, n)
		for i := range out {
			out[i] = enumName(dt, elem(i))
		}
		return out, nil

	case message.ClassBitfield, message.ClassReference:
		if size > 8 {
			return nil, fmt.Errorf("%w: %d-byte %s", ErrUnsupported, size, dt.Class)
		}
		out := make([]uint64, n)
		for i := range out {
			out[i] = readUint(elem(i), dt.Order)
		}
		return out, nil

	case message.ClassOpaque:
		out := make([][]byte, n)
		for i := range out {
			out[i] = append([]byte(nil), elem(i)...)
		}
		return out, nil

	case message.ClassCompound:
		out := make([]map[string]any, n)
		for i := range out {
			rec := make(map[string]any, len(dt.Members))
			for _, m := range dt.Members {
				end := int(m.Offset) + int(m.Type.Size)
				if end > size {
					return nil, fmt.Errorf("compound member %q overruns element", m.Name)
				}
				v, err := dec.Decode(m.Type, elem(i)[m.Offset:end], 1)
				if err != nil {
					return nil, fmt.Errorf("compound member %q: %w", m.Name, err)
				}
				rec[m.Name] = First(v)
			}
			out[i] = rec
		}
		return out, nil

	case message.ClassArray:
		count := 1
		for _, d := range dt.ArrayDims {
			count *= int(d)
		}
		out := make([]any, n)
		for i := range out {
			v, err := dec.Decode(dt.Base, elem(i), count)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, dt.Class)
}

func (dec *Decoder) decodeVarLen(dt *message.Datatype, raw []byte, n int) (any, error) {
	refSize := heap.RefSize(dec.Sizes)
	if int(dt.Size) < refSize {
		return nil, fmt.Errorf("vlen element of %d bytes cannot hold a %d-byte reference", dt.Size, refSize)
	}
	if dec.Heap == nil {
		return nil, errors.New("variable-length data needs a heap resolver")
	}
	refs := make([]heap.Ref, n)
	for i := range refs {
		refs[i] = heap.DecodeRef(raw[i*int(dt.Size):], dec.Sizes)
	}

	if dt.VarLenString {
		out := make([]string, n)
		for i, ref := range refs {
			b, err := dec.Heap.Resolve(ref)
			if err != nil {
				return nil, err
			}
			out[i] = trimString(b, message.PadNull)
		}
		return out, nil
	}

	out := make([]any, n)
	for i, ref := range refs {
		b, err := dec.Heap.Resolve(ref)
		if err != nil {
			return nil, err
		}
		if out[i], err = dec.Decode(dt.Base, b, int(ref.Length)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// First returns element 0 of a slice produced by Decode.
func First(v any) any {
	switch s := v.(type) {
	case []int64:
		return s[0]
	case []uint64:
		return s[0]
	case []float64:
		return s[0]
	case []string:
		return s[0]
	case []bool:
		return s[0]
	case [][]byte:
		return s[0]
	case []map[string]any:
		return s[0]
	case []any:
		return s[0]
	}
	return v
}

func readUint(b []byte, order message.ByteOrder) uint64 {
	if order == message.BigEndian {
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v
	}
	return binary.Uint(b)
}

func readInt(b []byte, order message.ByteOrder, signed bool) int64 {
	v := readUint(b, order)
	if signed && len(b) < 8 {
		shift := 64 - 8*uint(len(b))
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

func halfToFloat(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1f
	frac := float64(h & 0x3ff)
	switch exp {
	case 0:
		return sign * math.Ldexp(frac, -24)
	case 0x1f:
		if frac == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}
	return sign * math.Ldexp(1+frac/1024, exp-15)
}

func trimString(b []byte, pad message.Padding) string {
	switch pad {
	case message.PadSpace:
		return strings.TrimRight(string(b), " ")
	case message.PadNullTerm:
		for i, c := range b {
			if c == 0 {
				return string(b[:i])
			}
		}
		return string(b)
	}
	return strings.TrimRight(string(b), "\x00")
}

func enumName(dt *message.Datatype, raw []byte) string {
	for i, v := range dt.Values {
		if string(v) == string(raw) {
			return dt.Names[i]
		}
	}
	return strconv.FormatInt(readInt(raw, dt.Base.Order, dt.Base.Signed), 10)
}
