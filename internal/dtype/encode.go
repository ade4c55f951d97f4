package dtype

import (
	"fmt"
	"math"
	"reflect"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// Encoded is a Go value laid out as HDF5 elements.
type Encoded struct {
	Type *message.Datatype
	Dims []uint64 // nil for a scalar

	// Data holds the element bytes. For strings it is zero-filled with room
	// for one heap reference per element, and Strings holds the values.
	Data    []byte
	Strings []string
}

// Len returns the number of elements.
func (e *Encoded) Len() int {
	n := 1
	for _, d := range e.Dims {
		n *= int(d)
	}
	return n
}

// Encode lays out v, which must be a supported scalar or a rectangular
// (possibly nested) slice or array of one.
func Encode(v any) (*Encoded, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil value", ErrUnsupported)
	}
	rv := reflect.ValueOf(v)

	var dims []uint64
	t := rv.Type()
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		dims = append(dims, 0)
		t = t.Elem()
	}
	if len(dims) > 0 {
		if err := shape(rv, dims, make([]bool, len(dims)), 0); err != nil {
			return nil, err
		}
	}

	dt, err := typeOf(t)
	if err != nil {
		return nil, err
	}
	enc := &Encoded{Type: dt, Dims: dims}
	enc.Data = make([]byte, 0, enc.Len()*int(dt.Size))
	if err := enc.append(rv, len(dims)); err != nil {
		return nil, err
	}
	return enc, nil
}

// shape fills dims from the first element along each axis and checks that
// every sibling agrees.
func shape(rv reflect.Value, dims []uint64, seen []bool, axis int) error {
	n := uint64(rv.Len())
	if !seen[axis] {
		dims[axis], seen[axis] = n, true
	} else if n != dims[axis] {
		return fmt.Errorf("ragged slice: axis %d has lengths %d and %d", axis, dims[axis], n)
	}
	if axis+1 == len(dims) {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := shape(rv.Index(i), dims, seen, axis+1); err != nil {
			return err
		}
	}
	return nil
}

func typeOf(t reflect.Type) (*message.Datatype, error) {
	switch t.Kind() {
	case reflect.Bool:
		return message.NewBool(), nil
	case reflect.Int, reflect.Int64:
		return message.NewInt(8, true), nil
	case reflect.Int8:
		return message.NewInt(1, true), nil
	case reflect.Int16:
		return message.NewInt(2, true), nil
	case reflect.Int32:
		return message.NewInt(4, true), nil
	case reflect.Uint, reflect.Uint64:
		return message.NewInt(8, false), nil
	case reflect.Uint8:
		return message.NewInt(1, false), nil
	case reflect.Uint16:
		return message.NewInt(2, false), nil
	case reflect.Uint32:
		return message.NewInt(4, false), nil
	case reflect.Float32:
		return message.NewFloat(4), nil
	case reflect.Float64:
		return message.NewFloat(8), nil
	case reflect.String:
		return message.NewVarString(), nil
	}
	return nil, fmt.Errorf("%w: Go type %s", ErrUnsupported, t)
}

func (e *Encoded) append(rv reflect.Value, depth int) error {
	if depth > 0 {
		for i := 0; i < rv.Len(); i++ {
			if err := e.append(rv.Index(i), depth-1); err != nil {
				return err
			}
		}
		return nil
	}

	var buf [8]byte
	size := int(e.Type.Size)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			buf[0] = 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		binary.PutUint(buf[:size], uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		binary.PutUint(buf[:size], rv.Uint())
	case reflect.Float32:
		binary.PutUint(buf[:4], uint64(math.Float32bits(float32(rv.Float()))))
	case reflect.Float64:
		binary.PutUint(buf[:8], math.Float64bits(rv.Float()))
	case reflect.String:
		e.Strings = append(e.Strings, rv.String())
		e.Data = append(e.Data, make([]byte, size)...)
		return nil
	default:
		return fmt.Errorf("%w: Go kind %s", ErrUnsupported, rv.Kind())
	}
	e.Data = append(e.Data, buf[:size]...)
	return nil
}
