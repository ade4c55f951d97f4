package hdf5

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/dtype"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/message"
)

// Attribute is a small named value attached to a group or dataset.
type Attribute struct {
	file *File
	msg  *message.Attribute

	// strings holds the values of a string attribute set in this session.
	// Its heap references are filled in at flush.
	strings []string
	handles []heap.Pending
	placed  bool
}

func newAttribute(f *File, name string, value any) (*Attribute, error) {
	enc, err := encodeValue(f, value)
	if err != nil {
		return nil, err
	}
	space := message.NewScalarSpace()
	if enc.Dims != nil {
		space = message.NewSimpleSpace(enc.Dims...)
	}
	a := &Attribute{
		file:    f,
		msg:     &message.Attribute{Name: name, Datatype: enc.Type, Dataspace: space, Charset: message.UTF8, Data: enc.Data},
		strings: enc.Strings,
	}
	if size := len(message.Encode(a.msg, f.sizes())); size > message.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}
	return a, nil
}

// encodeValue lays out a Go value, sizing heap references for f.
func encodeValue(f *File, value any) (*dtype.Encoded, error) {
	enc, err := dtype.Encode(value)
	if errors.Is(err, dtype.ErrUnsupported) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if err != nil {
		return nil, err
	}
	if enc.Type.IsVarString() {
		size := heap.RefSize(f.sizes())
		enc.Type.Size = uint32(size)
		enc.Data = make([]byte, enc.Len()*size)
	}
	return enc, nil
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.msg.Name }

// Shape returns the dimensions of the value, or nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace.Kind != message.SpaceSimple {
		return nil
	}
	return a.msg.Dataspace.Dims
}

// IsScalar reports whether the value is a single element.
func (a *Attribute) IsScalar() bool { return a.msg.Dataspace.IsScalar() }

// TypeName describes the element type, for example "int64" or "vlen string".
func (a *Attribute) TypeName() string { return a.msg.Datatype.String() }

// Read returns all elements as a flat slice in row-major order. See
// Dataset.Read for the slice types.
func (a *Attribute) Read() (any, error) {
	n := int(a.msg.Dataspace.NumElements())
	if a.strings != nil {
		return append([]string(nil), a.strings...), nil
	}
	return decode(a.file, a.msg.Datatype, a.msg.Data, n)
}

// Value returns the element of a scalar attribute, or the flat slice of
// elements otherwise. An attribute with a null dataspace has value nil.
func (a *Attribute) Value() (any, error) {
	if a.msg.Dataspace.Kind == message.SpaceNull {
		return nil, nil
	}
	v, err := a.Read()
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.msg.Name, err)
	}
	if a.IsScalar() {
		return dtype.First(v), nil
	}
	return v, nil
}

func decode(f *File, dt *message.Datatype, raw []byte, n int) (any, error) {
	dec := &dtype.Decoder{Sizes: f.sizes(), Heap: f.globals}
	v, err := dec.Decode(dt, raw, n)
	if errors.Is(err, dtype.ErrUnsupported) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return v, err
}
