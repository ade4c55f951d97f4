package hdf5

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/robert-malhotra/h5dict/internal/alloc"
	"github.com/robert-malhotra/h5dict/internal/binary"
	"github.com/robert-malhotra/h5dict/internal/flock"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/message"
	"github.com/robert-malhotra/h5dict/internal/object"
	"github.com/robert-malhotra/h5dict/internal/superblock"
)

// File is an open HDF5 file. It is not safe for concurrent use.
type File struct {
	path    string
	osf     *os.File
	mode    Mode
	opts    *fileOptions
	sb      *superblock.Superblock
	reader  *binary.Reader
	globals *heap.Reader
	root    *Group
	space   *alloc.Appender // nil when read-only
	locked  bool
	closed  bool
}

// Open opens an existing file for reading.
func Open(path string, opts ...FileOption) (*File, error) {
	return OpenFile(path, ReadOnly, opts...)
}

// Create creates a new empty file, replacing any existing one.
func Create(path string, opts ...FileOption) (*File, error) {
	return OpenFile(path, Truncate, opts...)
}

// OpenFile opens path in the given mode. A file created by Append or
// Truncate is written out immediately with an empty root group.
func OpenFile(path string, mode Mode, opts ...FileOption) (*File, error) {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}

	flag := os.O_RDONLY
	switch mode {
	case ReadWrite:
		flag = os.O_RDWR
	case Append:
		flag = os.O_RDWR | os.O_CREATE
	case Truncate:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	osf, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	f := &File{path: path, osf: osf, mode: mode, opts: o}
	if err := f.init(); err != nil {
		return nil, errors.Join(err, f.release())
	}
	return f, nil
}

func (f *File) init() error {
	if f.opts.locking {
		if err := flock.Lock(f.osf, f.mode.writable()); err != nil {
			return err
		}
		f.locked = true
	}
	st, err := f.osf.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 && (f.mode == Append || f.mode == Truncate) {
		return f.initEmpty()
	}

	sb, err := superblock.Read(f.osf)
	if err != nil {
		return fmt.Errorf("%s: %w", f.path, err)
	}
	f.sb = sb
	f.reader = binary.NewReader(f.osf, sb.Sizes, sb.Base())
	f.globals = heap.NewReader(f.reader)

	h, err := object.Read(f.reader, sb.RootAddress)
	if err != nil {
		return fmt.Errorf("%s: root group: %w", f.path, err)
	}
	if f.root, err = f.loadGroup(h, "/", nil); err != nil {
		return fmt.Errorf("%s: root group: %w", f.path, err)
	}

	if f.mode.writable() {
		eof := sb.EOFAddress
		if end := uint64(st.Size() - sb.Base()); end > eof {
			eof = end
		}
		f.space = alloc.New(&offsetWriter{f.osf, sb.Base()}, eof)
	}
	return nil
}

// initEmpty lays out a new file: the superblock at 0 followed by the root
// group written by the first flush.
func (f *File) initEmpty() error {
	f.sb = superblock.New(0, 0)
	f.reader = binary.NewReader(f.osf, f.sb.Sizes, 0)
	f.globals = heap.NewReader(f.reader)
	f.space = alloc.New(f.osf, uint64(superblock.Size(f.sb.Sizes)))
	f.root = newGroup(f, "/", nil)
	f.root.markDirty()
	return f.Flush()
}

// loadObject reads the header at addr and wraps it as a group or dataset.
func (f *File) loadObject(addr uint64, path string, parent *Group) (Object, error) {
	h, err := object.Read(f.reader, addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	_, hasLayout := h.Find(message.TypeDataLayout)
	_, hasType := h.Find(message.TypeDatatype)
	switch {
	case hasLayout:
		return f.loadDataset(h, path, parent)
	case hasType:
		return nil, fmt.Errorf("%w: %s is a committed datatype", ErrUnsupported, path)
	}
	return f.loadGroup(h, path, parent)
}

func (f *File) sizes() binary.Sizes { return f.sb.Sizes }

func (f *File) abandon(size uint64) {
	if f.space != nil && size > 0 {
		f.space.Abandon(size)
	}
}

// Close flushes pending changes of a writable file and closes it. Closing a
// closed file is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	err := f.Flush()
	return errors.Join(err, f.release())
}

func (f *File) release() error {
	f.closed = true
	var errs []error
	if f.locked {
		errs = append(errs, flock.Unlock(f.osf))
		f.locked = false
	}
	errs = append(errs, f.osf.Close())
	return errors.Join(errs...)
}

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Path returns the name the file was opened with.
func (f *File) Path() string { return f.path }

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode { return f.mode }

// Writable reports whether the file accepts changes.
func (f *File) Writable() bool { return f.mode.writable() && !f.closed }

// Version returns the superblock version. Files this package has written to
// are version 2.
func (f *File) Version() int { return int(f.sb.Version) }

// Open returns the object at an absolute path.
func (f *File) Open(p string) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.lookup(p, 0)
}

// OpenGroup returns the group at an absolute path.
func (f *File) OpenGroup(p string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(CleanPath(p))
}

// OpenDataset returns the dataset at an absolute path.
func (f *File) OpenDataset(p string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(CleanPath(p))
}

// GetAttr returns the attribute named by a path such as "/data@units".
func (f *File) GetAttr(p string) (*Attribute, error) {
	objPath, name, err := ParseAttrPath(p)
	if err != nil {
		return nil, err
	}
	obj, err := f.Open(objPath)
	if err != nil {
		return nil, err
	}
	a := obj.Attr(name)
	if a == nil {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return a, nil
}

// ReadAttr returns the value of the attribute named by p.
func (f *File) ReadAttr(p string) (any, error) {
	a, err := f.GetAttr(p)
	if err != nil {
		return nil, err
	}
	return a.Value()
}

// SpaceStats reports how much the file grew since it was opened.
type SpaceStats struct {
	Placements uint64 // blocks appended
	Bytes      uint64 // bytes appended, excluding alignment
	Abandoned  uint64 // bytes of deleted dataset storage left in the file
}

// SpaceStats returns the growth of a writable file. Read-only files report
// zero.
func (f *File) SpaceStats() SpaceStats {
	if f.space == nil {
		return SpaceStats{}
	}
	st := f.space.Stats()
	return SpaceStats{Placements: st.Placements, Bytes: st.Bytes, Abandoned: st.Abandoned}
}

// offsetWriter shifts writes past a user block.
type offsetWriter struct {
	w    io.WriterAt
	base int64
}

func (o *offsetWriter) WriteAt(p []byte, off int64) (int, error) {
	return o.w.WriteAt(p, off+o.base)
}
