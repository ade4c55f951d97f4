package heap

import (
	"github.com/robert-malhotra/h5dict/internal/binary"
)

// MinCollectionSize is the smallest collection the reference library
// allocates; smaller collections are padded with free space.
const MinCollectionSize = 4096

// maxObjects is the index limit of one collection.
const maxObjects = 0xFFFF

// Builder accumulates objects for new global heap collections. Identical
// byte strings share one object.
type Builder struct {
	sizes   binary.Sizes
	objects [][]byte
	index   map[string]int
}

// NewBuilder returns an empty builder.
func NewBuilder(sizes binary.Sizes) *Builder {
	return &Builder{sizes: sizes, index: make(map[string]int)}
}

// Pending is an object added to a Builder whose collection address is not
// known until the collection is placed.
type Pending struct {
	b   *Builder
	seq int
}

// Add queues data and returns a handle for its eventual reference.
func (b *Builder) Add(data []byte) Pending {
	if len(data) == 0 {
		return Pending{}
	}
	key := string(data)
	seq, ok := b.index[key]
	if !ok {
		seq = len(b.objects)
		b.objects = append(b.objects, data)
		b.index[key] = seq
	}
	return Pending{b: b, seq: seq}
}

// Len returns the number of distinct objects queued.
func (b *Builder) Len() int { return len(b.objects) }

// Collections encodes the queued objects into as many collections as needed.
// place is called with each encoded collection and returns the address it
// will be written at.
func (b *Builder) Collections(place func([]byte) (uint64, error)) (*Placed, error) {
	p := &Placed{sizes: b.sizes, refs: make([]Ref, len(b.objects))}
	for start := 0; start < len(b.objects); {
		end := start + maxObjects
		if end > len(b.objects) {
			end = len(b.objects)
		}
		buf := b.encode(b.objects[start:end])
		addr, err := place(buf)
		if err != nil {
			return nil, err
		}
		for i := start; i < end; i++ {
			p.refs[i] = Ref{Length: uint32(len(b.objects[i])), Collection: addr, Index: uint32(i - start + 1)}
		}
		start = end
	}
	return p, nil
}

func (b *Builder) encode(objs [][]byte) []byte {
	e := binary.NewEncoder(b.sizes)
	e.Write([]byte("GCOL"))
	e.U8(1)
	e.Zeros(3)
	sizeAt := e.Len()
	e.Length(0)
	for i, obj := range objs {
		e.U16(uint16(i + 1))
		e.U16(1)
		e.Zeros(4)
		e.Length(uint64(len(obj)))
		e.Write(obj)
		e.Pad(8)
	}
	objHeader := 8 + b.sizes.Length
	free := MinCollectionSize - e.Len()
	if free < objHeader {
		free = objHeader
	}
	e.U16(0)
	e.U16(0)
	e.Zeros(4)
	e.Length(uint64(free))
	e.Zeros(free - objHeader)
	e.PatchUint(sizeAt, uint64(e.Len()), b.sizes.Length)
	return e.Bytes()
}

// Placed maps queued objects to their final references.
type Placed struct {
	sizes binary.Sizes
	refs  []Ref
}

// Ref returns the reference for a pending object. Empty data yields the null
// reference.
func (p *Placed) Ref(h Pending) Ref {
	if h.b == nil {
		return Ref{}
	}
	return p.refs[h.seq]
}
