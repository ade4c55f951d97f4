package message

import "github.com/robert-malhotra/h5dict/internal/binary"

// SpaceKind distinguishes scalar, simple and null dataspaces.
type SpaceKind uint8

const (
	SpaceScalar SpaceKind = 0
	SpaceSimple SpaceKind = 1
	SpaceNull   SpaceKind = 2
)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Kind    SpaceKind
	Dims    []uint64
	MaxDims []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the number of elements described.
func (m *Dataspace) NumElements() uint64 {
	switch m.Kind {
	case SpaceScalar:
		return 1
	case SpaceSimple:
		n := uint64(1)
		for _, d := range m.Dims {
			n *= d
		}
		return n
	}
	return 0
}

// Rank returns the number of dimensions. Scalars have rank 0.
func (m *Dataspace) Rank() int { return len(m.Dims) }

// IsScalar reports whether the dataspace holds exactly one element without
// dimensions.
func (m *Dataspace) IsScalar() bool { return m.Kind == SpaceScalar }

// NewScalarSpace returns a scalar dataspace.
func NewScalarSpace() *Dataspace { return &Dataspace{Kind: SpaceScalar} }

// NewNullSpace returns a dataspace with no elements.
func NewNullSpace() *Dataspace { return &Dataspace{Kind: SpaceNull} }

// NewSimpleSpace returns a fixed-size simple dataspace.
func NewSimpleSpace(dims ...uint64) *Dataspace {
	return &Dataspace{Kind: SpaceSimple, Dims: append([]uint64(nil), dims...)}
}

func parseDataspace(data []byte, sizes binary.Sizes) (*Dataspace, error) {
	d := binary.NewDecoder(data, sizes)
	version := d.U8()
	rank := int(d.U8())
	flags := d.U8()

	m := &Dataspace{Kind: SpaceSimple}
	switch version {
	case 1:
		d.Skip(5)
		if rank == 0 {
			m.Kind = SpaceScalar
		}
	case 2:
		m.Kind = SpaceKind(d.U8())
		if m.Kind > SpaceNull {
			return nil, malformed("dataspace type %d", m.Kind)
		}
	default:
		return nil, malformed("dataspace version %d", version)
	}

	if rank > 0 {
		m.Dims = make([]uint64, rank)
		for i := range m.Dims {
			m.Dims[i] = d.Length()
		}
		if flags&0x01 != 0 {
			m.MaxDims = make([]uint64, rank)
			for i := range m.MaxDims {
				m.MaxDims[i] = d.Length()
			}
		}
	}
	return m, d.Err()
}

// Encode writes a version 2 dataspace.
func (m *Dataspace) Encode(e *binary.Encoder) {
	e.U8(2)
	e.U8(uint8(len(m.Dims)))
	var flags uint8
	if len(m.MaxDims) == len(m.Dims) && len(m.Dims) > 0 {
		flags |= 0x01
	}
	e.U8(flags)
	e.U8(uint8(m.Kind))
	for _, n := range m.Dims {
		e.Length(n)
	}
	if flags&0x01 != 0 {
		for _, n := range m.MaxDims {
			e.Length(n)
		}
	}
}
