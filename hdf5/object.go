package hdf5

import (
	"fmt"
	"slices"

	"github.com/robert-malhotra/h5dict/internal/message"
	"github.com/robert-malhotra/h5dict/internal/object"
)

// Object is a group or a dataset.
type Object interface {
	Name() string
	Path() string
	Attrs() []string
	Attr(name string) *Attribute
	HasAttr(name string) bool
	SetAttr(name string, value any) error
	DeleteAttr(name string) error

	base() *node
}

// node holds what groups and datasets have in common: a place in the tree,
// attributes, and the header messages to carry over when rewritten.
type node struct {
	file   *File
	path   string
	parent *Group

	// addr is the object header address, or 0 if the object has never been
	// written.
	addr uint64

	kept       []object.Raw
	attrs      []*Attribute
	denseAttrs bool
	dirty      bool
}

func (n *node) base() *node { return n }

// Name returns the last component of the object's path, or "/" for the root.
func (n *node) Name() string {
	if n.path == "/" {
		return "/"
	}
	return n.path[len(parentPath(n.path)):]
}

// Path returns the absolute path of the object.
func (n *node) Path() string { return n.path }

// Address returns the object header address, or 0 for an object that has not
// been flushed yet.
func (n *node) Address() uint64 { return n.addr }

func parentPath(p string) string {
	i := len(p) - 1
	for i > 0 && p[i] != '/' {
		i--
	}
	if i == 0 {
		return "/"
	}
	return p[:i+1]
}

// load takes the attribute messages out of h. Messages that are neither
// attributes nor claimed stay in n.kept.
func (n *node) load(h *object.Header, claim func(object.Raw) (bool, error)) error {
	sizes := n.file.sizes()
	n.addr = h.Address
	for _, raw := range h.Messages {
		switch raw.Type {
		case message.TypeAttribute:
			m, err := raw.Decode(sizes)
			if err != nil {
				return fmt.Errorf("%s: attribute: %w", n.path, err)
			}
			if a, ok := m.(*message.Attribute); ok {
				n.attrs = append(n.attrs, &Attribute{file: n.file, msg: a})
				continue
			}
		case message.TypeAttributeInfo:
			m, err := raw.Decode(sizes)
			if err != nil {
				return fmt.Errorf("%s: attribute info: %w", n.path, err)
			}
			if info, ok := m.(*message.AttributeInfo); ok && info.Dense(sizes) {
				n.denseAttrs = true
			}
		}
		if claim != nil {
			done, err := claim(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", n.path, err)
			}
			if done {
				continue
			}
		}
		n.kept = append(n.kept, raw)
	}
	return nil
}

// markDirty flags n and every ancestor for rewriting at the next flush.
func (n *node) markDirty() {
	n.dirty = true
	for p := n.parent; p != nil && !p.dirty; p = p.parent {
		p.dirty = true
	}
}

func (n *node) checkWritable() error {
	if n.file.closed {
		return ErrClosed
	}
	if !n.file.mode.writable() {
		return ErrReadOnly
	}
	return nil
}

// Attrs returns the attribute names in sorted order. Attributes kept in
// dense storage are not listed.
func (n *node) Attrs() []string {
	names := make([]string, len(n.attrs))
	for i, a := range n.attrs {
		names[i] = a.msg.Name
	}
	slices.Sort(names)
	return names
}

// Attr returns the named attribute, or nil.
func (n *node) Attr(name string) *Attribute {
	if i := n.attrIndex(name); i >= 0 {
		return n.attrs[i]
	}
	return nil
}

// HasAttr reports whether the named attribute exists.
func (n *node) HasAttr(name string) bool { return n.attrIndex(name) >= 0 }

func (n *node) attrIndex(name string) int {
	return slices.IndexFunc(n.attrs, func(a *Attribute) bool { return a.msg.Name == name })
}

// SetAttr creates or replaces an attribute. The value may be a bool, any
// integer or float type, a string, or a slice of one of those. Values whose
// encoding exceeds one header message fail with ErrMessageTooLarge.
func (n *node) SetAttr(name string, value any) error {
	if err := n.checkWritable(); err != nil {
		return err
	}
	if n.denseAttrs {
		return fmt.Errorf("%w: %s keeps attributes in dense storage", ErrUnsupported, n.path)
	}
	if name == "" {
		return fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	a, err := newAttribute(n.file, name, value)
	if err != nil {
		return fmt.Errorf("attribute %q of %s: %w", name, n.path, err)
	}
	if i := n.attrIndex(name); i >= 0 {
		n.attrs[i] = a
	} else {
		n.attrs = append(n.attrs, a)
	}
	n.markDirty()
	return nil
}

// DeleteAttr removes an attribute.
func (n *node) DeleteAttr(name string) error {
	if err := n.checkWritable(); err != nil {
		return err
	}
	if n.denseAttrs {
		return fmt.Errorf("%w: %s keeps attributes in dense storage", ErrUnsupported, n.path)
	}
	i := n.attrIndex(name)
	if i < 0 {
		return fmt.Errorf("attribute %q of %s: %w", name, n.path, ErrNotFound)
	}
	n.attrs = slices.Delete(n.attrs, i, i+1)
	n.markDirty()
	return nil
}
