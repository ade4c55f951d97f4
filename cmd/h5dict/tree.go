package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/command"
	"github.com/fatih/color"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/hdf5"
)

// palette holds the colors used when printing objects.
type palette struct {
	group, dataset, attr, meta, fail *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		group:   color.New(color.FgBlue, color.Bold),
		dataset: color.New(color.FgGreen),
		attr:    color.New(color.FgYellow),
		meta:    color.New(color.Faint),
		fail:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.group, p.dataset, p.attr, p.meta, p.fail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func runTree(env *command.Env, path string) (err error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer closeJoin(&err, f)

	p := newPalette(useColor(stdout))
	fmt.Fprintf(stdout, "%s %s\n", path, p.meta.Sprintf("(superblock v%d)", f.Version()))
	return hdf5.Walk(f.Root(), func(objPath string, obj hdf5.Object, err error) error {
		if ctxErr := env.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		depth := len(hdf5.SplitPath(objPath))
		indent := strings.Repeat("  ", depth)
		if err != nil {
			fmt.Fprintf(stdout, "%s%s\n", indent, p.fail.Sprintf("%s: %v", lastName(objPath), err))
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			name := o.Name()
			if depth == 0 {
				name = "/"
			}
			fmt.Fprintf(stdout, "%s%s\n", indent, p.group.Sprint(name))
		case *hdf5.Dataset:
			fmt.Fprintf(stdout, "%s%s %s\n", indent, p.dataset.Sprint(o.Name()),
				p.meta.Sprintf("%s %v", o.TypeName(), o.Shape()))
		}
		printAttrs(stdout, p, obj, indent+"  ")
		return nil
	})
}

func printAttrs(w io.Writer, p palette, obj hdf5.Object, indent string) {
	for _, name := range obj.Attrs() {
		v, err := codec.RawAttr(obj.Attr(name))
		if err != nil {
			fmt.Fprintf(w, "%s%s\n", indent, p.fail.Sprintf("@%s: %v", name, err))
			continue
		}
		fmt.Fprintf(w, "%s%s = %s\n", indent, p.attr.Sprint("@"+name), attrText(v))
	}
}

func attrText(v codec.Value) string {
	switch v := v.(type) {
	case codec.String:
		return fmt.Sprintf("%q", string(v))
	case codec.Bool:
		return fmt.Sprint(bool(v))
	case codec.Int:
		return fmt.Sprint(int64(v))
	case codec.Float:
		return fmt.Sprint(float64(v))
	case codec.Null:
		return "null"
	case *codec.Array:
		return fmt.Sprint(v.Data())
	case codec.Opaque:
		return fmt.Sprint(v.V)
	}
	return fmt.Sprint(v)
}

func lastName(p string) string {
	parts := hdf5.SplitPath(p)
	if len(parts) == 0 {
		return "/"
	}
	return parts[len(parts)-1]
}
