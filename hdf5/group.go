package hdf5

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/h5dict/internal/btree"
	"github.com/robert-malhotra/h5dict/internal/heap"
	"github.com/robert-malhotra/h5dict/internal/message"
	"github.com/robert-malhotra/h5dict/internal/object"
)

// Group is a container of named links to other objects.
type Group struct {
	node

	links []*message.Link

	// children caches opened members so that changes made through them are
	// written with this group.
	children map[string]Object

	// symbolTable is set when the members came from a version 1 B-tree. The
	// group is converted to link messages when rewritten.
	symbolTable bool
	dense       bool
}

func newGroup(f *File, path string, parent *Group) *Group {
	return &Group{
		node:     node{file: f, path: path, parent: parent},
		children: make(map[string]Object),
	}
}

func (f *File) loadGroup(h *object.Header, path string, parent *Group) (*Group, error) {
	g := newGroup(f, path, parent)
	sizes := f.sizes()
	var symtab *message.SymbolTable
	err := g.load(h, func(raw object.Raw) (bool, error) {
		switch raw.Type {
		case message.TypeLink, message.TypeLinkInfo, message.TypeSymbolTable:
		case message.TypeGroupInfo:
			return true, nil
		default:
			return false, nil
		}
		m, err := raw.Decode(sizes)
		if err != nil {
			return false, err
		}
		switch m := m.(type) {
		case *message.Link:
			g.links = append(g.links, m)
		case *message.LinkInfo:
			g.dense = m.Dense(sizes)
		case *message.SymbolTable:
			symtab = m
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if symtab != nil {
		if err := g.loadSymbolTable(symtab); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return g, nil
}

func (g *Group) loadSymbolTable(st *message.SymbolTable) error {
	r := g.file.reader
	names, err := heap.ReadLocal(r, st.HeapAddress)
	if err != nil {
		return err
	}
	entries, err := btree.ReadGroup(r, st.BTreeAddress, names)
	if err != nil {
		return err
	}
	g.symbolTable = true
	for _, e := range entries {
		if e.Soft {
			g.links = append(g.links, message.NewSoftLink(e.Name, e.Target))
		} else {
			g.links = append(g.links, message.NewHardLink(e.Name, e.Address))
		}
	}
	return nil
}

func (g *Group) checkReadable() error {
	if g.file.closed {
		return ErrClosed
	}
	if g.dense {
		return fmt.Errorf("%w: %s keeps links in dense storage", ErrUnsupported, g.path)
	}
	return nil
}

func (g *Group) link(name string) *message.Link {
	i := slices.IndexFunc(g.links, func(l *message.Link) bool { return l.Name == name })
	if i < 0 {
		return nil
	}
	return g.links[i]
}

// Members returns the names of the group's links in sorted order.
func (g *Group) Members() ([]string, error) {
	if err := g.checkReadable(); err != nil {
		return nil, err
	}
	names := make([]string, len(g.links))
	for i, l := range g.links {
		names[i] = l.Name
	}
	slices.Sort(names)
	return names, nil
}

// Len returns the number of links in the group.
func (g *Group) Len() int { return len(g.links) }

// Has reports whether the group has a link called name.
func (g *Group) Has(name string) bool { return g.link(name) != nil }

// Child returns the object a link points to. Soft links are followed.
// External links are not supported.
func (g *Group) Child(name string) (Object, error) {
	return g.child(name, 0)
}

func (g *Group) child(name string, depth int) (Object, error) {
	if err := g.checkReadable(); err != nil {
		return nil, err
	}
	if obj, ok := g.children[name]; ok {
		return obj, nil
	}
	l := g.link(name)
	if l == nil {
		return nil, fmt.Errorf("%s: %w", joinPath(g.path, name), ErrNotFound)
	}
	switch l.Kind {
	case message.LinkHard:
		obj, err := g.file.loadObject(l.Address, joinPath(g.path, name), g)
		if err != nil {
			return nil, err
		}
		g.children[name] = obj
		return obj, nil
	case message.LinkSoft:
		if depth >= MaxLinkDepth {
			return nil, fmt.Errorf("%s: %w", joinPath(g.path, name), ErrLinkDepth)
		}
		return g.file.root.lookup(l.Target, depth+1)
	}
	return nil, fmt.Errorf("%w: external link %s to %s:%s", ErrUnsupported, joinPath(g.path, name), l.File, l.Target)
}

// Open returns the object at a path relative to g. Absolute paths start at
// the root group.
func (g *Group) Open(p string) (Object, error) {
	if len(p) > 0 && p[0] == '/' {
		return g.file.root.lookup(p, 0)
	}
	return g.lookup(p, 0)
}

func (g *Group) lookup(p string, depth int) (Object, error) {
	var cur Object = g
	for _, name := range SplitPath(p) {
		grp, ok := cur.(*Group)
		if !ok {
			return nil, fmt.Errorf("%s: %w", cur.Path(), ErrNotGroup)
		}
		next, err := grp.child(name, depth)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// OpenGroup returns the group at a path relative to g.
func (g *Group) OpenGroup(p string) (*Group, error) {
	obj, err := g.Open(p)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj.Path(), ErrNotGroup)
	}
	return grp, nil
}

// OpenDataset returns the dataset at a path relative to g.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	obj, err := g.Open(p)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj.Path(), ErrNotDataset)
	}
	return ds, nil
}

// CreateGroup adds an empty subgroup. It fails with ErrExists if the name is
// taken.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkCreate(name); err != nil {
		return nil, err
	}
	if g.Has(name) {
		return nil, fmt.Errorf("%s: %w", joinPath(g.path, name), ErrExists)
	}
	child := newGroup(g.file, joinPath(g.path, name), g)
	g.adopt(name, child)
	return child, nil
}

// RequireGroup returns the subgroup called name, creating it if needed.
func (g *Group) RequireGroup(name string) (*Group, error) {
	if !g.Has(name) {
		return g.CreateGroup(name)
	}
	obj, err := g.Child(name)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj.Path(), ErrNotGroup)
	}
	return grp, nil
}

// CreateSoftLink adds a link called name that resolves to the absolute
// path target when opened. The target need not exist yet.
func (g *Group) CreateSoftLink(name, target string) error {
	if err := g.checkCreate(name); err != nil {
		return err
	}
	if g.Has(name) {
		return fmt.Errorf("%s: %w", joinPath(g.path, name), ErrExists)
	}
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("%w: soft link target %q is not absolute", ErrInvalidPath, target)
	}
	g.links = append(g.links, message.NewSoftLink(name, CleanPath(target)))
	g.markDirty()
	return nil
}

// Delete removes the link called name. The object's storage is not
// reclaimed.
func (g *Group) Delete(name string) error {
	if err := g.checkWritable(); err != nil {
		return err
	}
	if err := g.checkReadable(); err != nil {
		return err
	}
	i := slices.IndexFunc(g.links, func(l *message.Link) bool { return l.Name == name })
	if i < 0 {
		return fmt.Errorf("%s: %w", joinPath(g.path, name), ErrNotFound)
	}
	if ds, ok := g.children[name].(*Dataset); ok {
		g.file.abandon(ds.storageSize())
	}
	g.links = slices.Delete(g.links, i, i+1)
	delete(g.children, name)
	g.markDirty()
	return nil
}

func (g *Group) checkCreate(name string) error {
	if err := g.checkWritable(); err != nil {
		return err
	}
	if err := g.checkReadable(); err != nil {
		return err
	}
	return checkName(name)
}

// adopt links a new child into g.
func (g *Group) adopt(name string, child Object) {
	g.links = append(g.links, message.NewHardLink(name, 0))
	g.children[name] = child
	child.base().markDirty()
}
