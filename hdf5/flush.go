package hdf5

import (
	"fmt"
	"maps"
	"slices"

	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/layout"
	"github.com/robert-malhotra/h5dict/internal/message"
	"github.com/robert-malhotra/h5dict/internal/object"
)

// Flush writes every pending change and points the superblock at the new
// root. It is a no-op for read-only or unchanged files.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.mode.writable() || !f.root.dirty {
		return nil
	}

	w := &flusher{f: f, sizes: f.sizes(), strings: heap.NewBuilder(f.sizes())}
	w.queue(f.root)
	if w.strings.Len() > 0 {
		placed, err := w.strings.Collections(f.space.Place)
		if err != nil {
			return fmt.Errorf("flush %s: global heap: %w", f.path, err)
		}
		w.placed = placed
	}
	root, err := w.write(f.root)
	if err != nil {
		return fmt.Errorf("flush %s: %w", f.path, err)
	}

	f.sb.RootAddress = root
	f.sb.EOFAddress = f.space.EOF()
	if err := f.sb.WriteTo(f.osf); err != nil {
		return fmt.Errorf("flush %s: %w", f.path, err)
	}
	if f.opts.sync {
		if err := f.osf.Sync(); err != nil {
			return fmt.Errorf("flush %s: %w", f.path, err)
		}
	}
	return nil
}

type flusher struct {
	f       *File
	sizes   binary.Sizes
	strings *heap.Builder
	placed  *heap.Placed
}

// queue adds the strings of every unwritten attribute and dataset below n
// to the heap builder.
func (w *flusher) queue(obj Object) {
	n := obj.base()
	if !n.dirty {
		return
	}
	for _, a := range n.attrs {
		if a.strings != nil && !a.placed {
			a.handles = w.add(a.strings)
		}
	}
	switch o := obj.(type) {
	case *Group:
		for _, c := range o.children {
			w.queue(c)
		}
	case *Dataset:
		if o.pending != nil && o.pending.Strings != nil {
			o.handles = w.add(o.pending.Strings)
		}
	}
}

func (w *flusher) add(ss []string) []heap.Pending {
	hs := make([]heap.Pending, len(ss))
	for i, s := range ss {
		hs[i] = w.strings.Add([]byte(s))
	}
	return hs
}

// patch fills data with the references of hs.
func (w *flusher) patch(data []byte, hs []heap.Pending) {
	size := heap.RefSize(w.sizes)
	for i, h := range hs {
		w.placed.Ref(h).Encode(data[i*size:], w.sizes)
	}
}

// write stores obj and its changed descendants and returns obj's address.
func (w *flusher) write(obj Object) (uint64, error) {
	n := obj.base()
	if !n.dirty {
		return n.addr, nil
	}

	var msgs []object.Raw
	switch o := obj.(type) {
	case *Group:
		var err error
		if msgs, err = w.groupMessages(o); err != nil {
			return 0, err
		}
	case *Dataset:
		if o.pending != nil {
			if err := w.writeData(o); err != nil {
				return 0, fmt.Errorf("%s: %w", o.path, err)
			}
		}
		msgs = append(msgs, o.kept...)
	}

	for _, a := range n.attrs {
		if a.handles != nil {
			w.patch(a.msg.Data, a.handles)
			a.handles, a.placed = nil, true
		}
		msgs = append(msgs, object.EncodeMessage(a.msg, w.sizes))
	}

	hdr, err := object.Encode(msgs, w.sizes)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", n.path, err)
	}
	addr, err := w.f.space.Place(hdr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", n.path, err)
	}
	n.addr = addr
	n.dirty = false
	return addr, nil
}

// groupMessages writes the changed children of g and returns its header
// messages with links pointing at their current addresses.
func (w *flusher) groupMessages(g *Group) ([]object.Raw, error) {
	for _, name := range slices.Sorted(maps.Keys(g.children)) {
		addr, err := w.write(g.children[name])
		if err != nil {
			return nil, err
		}
		if l := g.link(name); l != nil {
			l.Address = addr
		}
	}

	msgs := []object.Raw{
		object.EncodeMessage(message.NewLinkInfo(w.sizes), w.sizes),
		object.EncodeMessage(&message.GroupInfo{}, w.sizes),
	}
	msgs = append(msgs, g.kept...)
	for _, l := range g.links {
		msgs = append(msgs, object.EncodeMessage(l, w.sizes))
	}
	g.symbolTable = false
	return msgs, nil
}

// writeData stores a new dataset's elements and fixes its storage messages.
func (w *flusher) writeData(d *Dataset) error {
	enc := d.pending
	if d.handles != nil {
		w.patch(enc.Data, d.handles)
		d.handles = nil
	}
	lay, err := layout.Write(w.f.space.Place, w.sizes, enc.Data, d.space.Dims, int(enc.Type.Size), d.filters)
	if err != nil {
		return err
	}
	d.layout = lay

	alloc := message.AllocLate
	if lay.Class == message.LayoutChunked {
		alloc = message.AllocIncremental
	}
	dt := object.EncodeMessage(d.dtype, w.sizes)
	dt.Flags |= message.FlagConstant
	fill := object.EncodeMessage(message.NewFillValue(alloc), w.sizes)
	fill.Flags |= message.FlagConstant
	d.kept = []object.Raw{
		object.EncodeMessage(d.space, w.sizes),
		dt,
		fill,
		object.EncodeMessage(lay, w.sizes),
	}
	if lay.Class == message.LayoutChunked && d.filters != nil {
		d.kept = append(d.kept, object.EncodeMessage(d.filters, w.sizes))
	} else {
		d.filters = nil
	}
	d.pending = nil
	return nil
}
