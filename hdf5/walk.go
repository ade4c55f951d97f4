package hdf5

import (
	"errors"

	"github.com/robert-malhotra/h5dict/internal/message"
)

var (
	// SkipGroup returned by a WalkFunc for a group skips its members.
	SkipGroup = errors.New("skip this group")

	// StopWalk returned by a callback ends the walk without error.
	StopWalk = errors.New("stop walk")
)

// WalkFunc is called for every object in a walk. obj is a *Group or a
// *Dataset. If a member cannot be opened, obj is nil and err says why;
// returning nil then continues with the next member.
type WalkFunc func(path string, obj Object, err error) error

// Walk visits g and everything below it, groups before their members and
// members in sorted order. Soft links are not followed.
func Walk(g *Group, fn WalkFunc) error {
	err := walk(g, fn)
	if errors.Is(err, StopWalk) {
		return nil
	}
	return err
}

func walk(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		if errors.Is(err, SkipGroup) {
			return nil
		}
		return err
	}
	names, err := g.Members()
	if err != nil {
		return fn(g.Path(), nil, err)
	}
	for _, name := range names {
		if l := g.link(name); l != nil && l.Kind != message.LinkHard {
			continue
		}
		child, err := g.Child(name)
		if err != nil {
			if err := fn(joinPath(g.Path(), name), nil, err); err != nil {
				return err
			}
			continue
		}
		switch c := child.(type) {
		case *Group:
			err = walk(c, fn)
		default:
			err = fn(c.Path(), c, nil)
			if errors.Is(err, SkipGroup) {
				err = nil
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AttrInfo describes one attribute met by WalkAttrs.
type AttrInfo struct {
	Path   string // "/group/object@name"
	Object Object
	Name   string
	Attr   *Attribute

	// Value is the decoded value, or nil with Err set if decoding failed.
	Value any
	Err   error
}

// WalkAttrs calls fn for every attribute in the file, object by object in
// Walk order and by name within an object.
func (f *File) WalkAttrs(fn func(AttrInfo) error) error {
	if f.closed {
		return ErrClosed
	}
	return Walk(f.root, func(_ string, obj Object, err error) error {
		if err != nil {
			return nil
		}
		for _, name := range obj.Attrs() {
			a := obj.Attr(name)
			info := AttrInfo{Path: JoinAttrPath(obj.Path(), name), Object: obj, Name: name, Attr: a}
			info.Value, info.Err = a.Value()
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}
