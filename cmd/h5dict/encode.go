package main

import (
	"fmt"
	"io"
	"os"

	"github.com/creachadair/command"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/hdf5"
	"github.com/robert-malhotra/h5dict/valuefmt"
)

var encodeArgs struct {
	Group          string `flag:"group,default=/,Group to encode into"`
	OverwriteDepth int    `flag:"overwrite-depth,default=-1,Merge into existing groups this many levels deep and replace below (-1: always merge)"`
	Compress       int    `flag:"compress,default=-1,Deflate level for datasets (-1: none)"`
}

func runEncode(env *command.Env, path, input string) (err error) {
	m, err := readDocument(input)
	if err != nil {
		return err
	}
	var opts []codec.EncodeOption
	if encodeArgs.OverwriteDepth >= 0 {
		opts = append(opts, codec.WithOverwriteDepth(encodeArgs.OverwriteDepth))
	}
	if encodeArgs.Compress >= 0 {
		if encodeArgs.Compress > 9 {
			return env.Usagef("compression level must be 0-9")
		}
		opts = append(opts, codec.WithCompression(encodeArgs.Compress))
	}

	f, err := hdf5.OpenFile(path, hdf5.Append)
	if err != nil {
		return err
	}
	defer closeJoin(&err, f)

	g, err := requirePath(f.Root(), encodeArgs.Group)
	if err != nil {
		return err
	}
	warnings, err := codec.Encode(g, m, opts...)
	if err != nil {
		return err
	}
	log := logger()
	for _, w := range warnings {
		log.Warn("value not stored as given", "path", w.Path, "err", w.Err)
	}
	log.Debug("encoded", "file", path, "group", g.Path(), "keys", len(m), "warnings", len(warnings))
	return nil
}

// readDocument reads a YAML value document from the named file, or from
// stdin if name is "-".
func readDocument(name string) (codec.Map, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	m, err := valuefmt.DecodeYAML(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// requirePath returns the group at p below g, creating missing groups.
func requirePath(g *hdf5.Group, p string) (*hdf5.Group, error) {
	for _, name := range hdf5.SplitPath(p) {
		next, err := g.RequireGroup(name)
		if err != nil {
			return nil, err
		}
		g = next
	}
	return g, nil
}
