// Package extract pulls named values out of a container file by path.
//
// A Spec lists entries of the form name -> (path, mode), where mode is one
// of
//
//	dset, dataset    the dataset at path as stored
//	attr:<name>      one attribute of the object at path
//	attr:all_attr    every attribute of the object at path, as a Map
//	group            the group at path, decoded with codec.Decode
//
// Any entry that cannot be resolved fails the whole extraction.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creachadair/taskgroup"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/hdf5"
)

var (
	ErrPathLookup        = errors.New("path lookup failed")
	ErrUnknownAccessMode = errors.New("unknown access mode")
)

// LookupError reports a spec entry whose path, dataset or attribute does
// not resolve.
type LookupError struct {
	Name string // spec entry
	Path string
	Mode Mode
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", e.Name, e.Path, e.Mode, e.Err)
}

// Unwrap returns ErrPathLookup and the underlying error.
func (e *LookupError) Unwrap() []error { return []error{ErrPathLookup, e.Err} }

// UnknownAccessModeError reports a mode string ParseMode does not accept.
type UnknownAccessModeError struct {
	Mode string
}

func (e *UnknownAccessModeError) Error() string {
	return fmt.Sprintf("parameter spec mode %q not recognized", e.Mode)
}

func (e *UnknownAccessModeError) Unwrap() error { return ErrUnknownAccessMode }

// ModeKind selects what an entry reads from the object at its path.
type ModeKind int

const (
	Dataset  ModeKind = iota + 1 // the dataset payload
	Attr                         // one named attribute
	AllAttrs                     // every attribute
	Group                        // the decoded group
)

// Mode is a parsed access mode.
type Mode struct {
	Kind ModeKind
	Attr string // attribute name, for Attr
}

const allAttrs = "all_attr"

// ParseMode parses a mode string. Unrecognized modes fail with an
// *UnknownAccessModeError.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "dset", "dataset":
		return Mode{Kind: Dataset}, nil
	case "group":
		return Mode{Kind: Group}, nil
	}
	if name, ok := strings.CutPrefix(s, "attr:"); ok && name != "" {
		if name == allAttrs {
			return Mode{Kind: AllAttrs}, nil
		}
		return Mode{Kind: Attr, Attr: name}, nil
	}
	return Mode{}, &UnknownAccessModeError{Mode: s}
}

func (m Mode) String() string {
	switch m.Kind {
	case Dataset:
		return "dset"
	case Attr:
		return "attr:" + m.Attr
	case AllAttrs:
		return "attr:" + allAttrs
	case Group:
		return "group"
	}
	return fmt.Sprintf("Mode(%d)", int(m.Kind))
}

// Entry is one named value to extract.
type Entry struct {
	Name string
	Path string
	Mode Mode
}

// Spec is an ordered list of entries with distinct names.
type Spec []Entry

// FromGroup extracts every entry of spec, resolving paths relative to root.
// Results are keyed by entry name.
func FromGroup(root *hdf5.Group, spec Spec) (codec.Map, error) {
	out := make(codec.Map, len(spec))
	for _, e := range spec {
		v, err := extractEntry(root, e)
		if err != nil {
			return nil, err
		}
		out[codec.StringKey(e.Name)] = v
	}
	return out, nil
}

func extractEntry(root *hdf5.Group, e Entry) (codec.Value, error) {
	fail := func(err error) error {
		return &LookupError{Name: e.Name, Path: e.Path, Mode: e.Mode, Err: err}
	}
	obj, err := root.Open(e.Path)
	if err != nil {
		return nil, fail(err)
	}
	switch e.Mode.Kind {
	case Dataset:
		d, ok := obj.(*hdf5.Dataset)
		if !ok {
			return nil, fail(hdf5.ErrNotDataset)
		}
		v, err := codec.RawDataset(d)
		if err != nil {
			return nil, fail(err)
		}
		return v, nil

	case Attr:
		a := obj.Attr(e.Mode.Attr)
		if a == nil {
			return nil, fail(fmt.Errorf("attribute %q: %w", e.Mode.Attr, hdf5.ErrNotFound))
		}
		v, err := codec.RawAttr(a)
		if err != nil {
			return nil, fail(err)
		}
		return v, nil

	case AllAttrs:
		m := codec.Map{}
		for _, name := range obj.Attrs() {
			v, err := codec.RawAttr(obj.Attr(name))
			if err != nil {
				return nil, fail(fmt.Errorf("attribute %q: %w", name, err))
			}
			m[codec.StringKey(name)] = v
		}
		return m, nil

	case Group:
		g, ok := obj.(*hdf5.Group)
		if !ok {
			return nil, fail(hdf5.ErrNotGroup)
		}
		v, err := codec.DecodeValue(g)
		if err != nil {
			return nil, fail(err)
		}
		return v, nil
	}
	return nil, &UnknownAccessModeError{Mode: e.Mode.String()}
}

// FromFile opens the file at path read-only, extracts spec from its root
// group and closes it.
func FromFile(path string, spec Spec) (_ codec.Map, err error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	m, err := FromGroup(f.Root(), spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FromFiles runs FromFile over paths concurrently and returns the results
// in the order of paths. The first failure stops files not yet started and
// is returned.
func FromFiles(ctx context.Context, paths []string, spec Spec) ([]codec.Map, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]codec.Map, len(paths))
	g := taskgroup.New(func(err error) error {
		cancel()
		return err
	})
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := FromFile(path, spec)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
