package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/h5dict/internal/dtype"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/layout"
	"github.com/robert-malhotra/h5dict/internal/message"
	"github.com/robert-malhotra/h5dict/internal/object"
)

// Dataset is an n-dimensional array of typed elements.
type Dataset struct {
	node

	space   *message.Dataspace
	dtype   *message.Datatype
	layout  *message.Layout
	filters *message.FilterPipeline

	// pending is set for a dataset created in this session until its data is
	// written.
	pending *dtype.Encoded
	handles []heap.Pending
}

func (f *File) loadDataset(h *object.Header, path string, parent *Group) (*Dataset, error) {
	d := &Dataset{node: node{file: f, path: path, parent: parent}}
	sizes := f.sizes()
	err := d.load(h, func(raw object.Raw) (bool, error) {
		switch raw.Type {
		case message.TypeDataspace, message.TypeDatatype, message.TypeDataLayout, message.TypeFilterPipeline:
		default:
			return false, nil
		}
		m, err := raw.Decode(sizes)
		if err != nil {
			return false, err
		}
		switch m := m.(type) {
		case *message.Dataspace:
			d.space = m
		case *message.Datatype:
			d.dtype = m
		case *message.Layout:
			d.layout = m
		case *message.FilterPipeline:
			d.filters = m
		}
		// Kept so an attribute change rewrites them byte for byte.
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if d.space == nil || d.dtype == nil || d.layout == nil {
		return nil, fmt.Errorf("%w: %s: dataset without a readable dataspace, datatype or layout", ErrUnsupported, path)
	}
	return d, nil
}

// CreateDataset adds a dataset holding data, which may be a scalar, a slice
// or a rectangular nested slice of bools, integers, floats or strings.
// A dataset of the same name is replaced; any other existing object makes
// it fail with ErrExists.
func (g *Group) CreateDataset(name string, data any, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkCreate(name); err != nil {
		return nil, err
	}
	o := &datasetOptions{}
	for _, opt := range opts {
		opt(o)
	}
	p := joinPath(g.path, name)

	enc, err := encodeValue(g.file, data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	if o.shape != nil {
		if len(enc.Dims) != 1 {
			return nil, fmt.Errorf("dataset %s: WithShape needs a flat slice", p)
		}
		n := uint64(1)
		for _, d := range o.shape {
			n *= d
		}
		if n != enc.Dims[0] {
			return nil, fmt.Errorf("dataset %s: shape %v does not hold %d elements", p, o.shape, enc.Dims[0])
		}
		enc.Dims = o.shape
	}

	d := &Dataset{
		node:    node{file: g.file, path: p},
		dtype:   enc.Type,
		space:   message.NewScalarSpace(),
		pending: enc,
	}
	if enc.Dims != nil {
		d.space = message.NewSimpleSpace(enc.Dims...)
	}
	if len(enc.Dims) > 0 && enc.Len() > 0 {
		d.filters = pipeline(o, int(enc.Type.Size))
	}
	for _, a := range o.attributes {
		if err := d.SetAttr(a.name, a.value); err != nil {
			return nil, err
		}
	}

	if g.Has(name) {
		old, err := g.Child(name)
		if err != nil {
			return nil, err
		}
		if _, ok := old.(*Dataset); !ok {
			return nil, fmt.Errorf("%s: %w", p, ErrExists)
		}
		if err := g.Delete(name); err != nil {
			return nil, err
		}
	}
	d.parent = g
	g.adopt(name, d)
	return d, nil
}

func pipeline(o *datasetOptions, elemSize int) *message.FilterPipeline {
	fp := &message.FilterPipeline{}
	if o.shuffle {
		fp.Filters = append(fp.Filters, message.Filter{ID: message.FilterShuffle, ClientData: []uint32{uint32(elemSize)}})
	}
	if o.compression > 0 {
		fp.Filters = append(fp.Filters, message.NewDeflatePipeline(o.compression).Filters...)
	}
	if o.fletcher32 {
		fp.Filters = append(fp.Filters, message.Filter{ID: message.FilterFletcher32})
	}
	if len(fp.Filters) == 0 {
		return nil
	}
	return fp
}

// Shape returns the dimensions, or nil for a scalar dataset.
func (d *Dataset) Shape() []uint64 {
	if d.space.Kind != message.SpaceSimple {
		return nil
	}
	return d.space.Dims
}

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return d.space.Rank() }

// Len returns the number of elements.
func (d *Dataset) Len() int { return int(d.space.NumElements()) }

// IsScalar reports whether the dataset holds a single element with no
// dimensions.
func (d *Dataset) IsScalar() bool { return d.space.IsScalar() }

// TypeName describes the element type, for example "float64".
func (d *Dataset) TypeName() string { return d.dtype.String() }

// IsString reports whether elements are strings.
func (d *Dataset) IsString() bool { return d.dtype.IsString() }

// Compressed reports whether the stored data passes through a filter
// pipeline.
func (d *Dataset) Compressed() bool { return d.filters != nil && len(d.filters.Filters) > 0 }

// Read returns all elements as a flat slice in row-major order:
//
//	integers      []int64 ([]uint64 for 8-byte unsigned)
//	floats        []float64
//	strings       []string
//	booleans      []bool
//	other enums   []string
//	compounds     []map[string]any
//	opaque        [][]byte
func (d *Dataset) Read() (any, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if enc := d.pending; enc != nil {
		if enc.Strings != nil {
			return append([]string(nil), enc.Strings...), nil
		}
		return decode(d.file, enc.Type, enc.Data, enc.Len())
	}
	raw, err := layout.Read(d.file.reader, &layout.Storage{
		Layout:   d.layout,
		Filters:  d.filters,
		Dims:     d.space.Dims,
		ElemSize: int(d.dtype.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	v, err := decode(d.file, d.dtype, raw, d.Len())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return v, nil
}

// Value is Read for a scalar dataset, returning the element itself.
func (d *Dataset) Value() (any, error) {
	if d.space.Kind == message.SpaceNull {
		return nil, nil
	}
	v, err := d.Read()
	if err != nil || !d.IsScalar() {
		return v, err
	}
	return dtype.First(v), nil
}

// ReadFloat64 returns the elements of a float dataset.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	v, err := d.Read()
	if err != nil {
		return nil, err
	}
	out, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("dataset %s holds %s, not floats", d.path, d.dtype)
	}
	return out, nil
}

// ReadInt64 returns the elements of an integer dataset.
func (d *Dataset) ReadInt64() ([]int64, error) {
	v, err := d.Read()
	if err != nil {
		return nil, err
	}
	out, ok := v.([]int64)
	if !ok {
		return nil, fmt.Errorf("dataset %s holds %s, not int64-compatible integers", d.path, d.dtype)
	}
	return out, nil
}

// ReadStrings returns the elements of a string dataset.
func (d *Dataset) ReadStrings() ([]string, error) {
	if !d.dtype.IsString() {
		return nil, fmt.Errorf("dataset %s holds %s, not strings", d.path, d.dtype)
	}
	v, err := d.Read()
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// storageSize is the size of the contiguous data block, if any.
func (d *Dataset) storageSize() uint64 {
	if d.layout == nil || d.layout.Class != message.LayoutContiguous {
		return 0
	}
	return d.layout.Size
}
