package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/creachadair/command"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/hdf5"
)

var dumpArgs struct {
	Format string `flag:"format,default=text,Output format: text|json|yaml"`
}

func runDump(env *command.Env) error {
	if len(env.Args) < 1 || len(env.Args) > 2 {
		return env.Usagef("dump takes a file and an optional group")
	}
	if !slices.Contains(formats, dumpArgs.Format) {
		return env.Usagef("unknown format %q", dumpArgs.Format)
	}
	group := "/"
	if len(env.Args) == 2 {
		group = env.Args[1]
	}
	v, err := decodeGroup(env.Args[0], group)
	if err != nil {
		return err
	}
	return printValue(dumpArgs.Format, v)
}

// decodeGroup opens path read-only and decodes the group at group.
func decodeGroup(path, group string) (_ codec.Value, err error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeJoin(&err, f)

	g, err := f.OpenGroup(group)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v, err := codec.DecodeValue(g)
	if err != nil {
		var tagErr *codec.UnknownListTagError
		if errors.As(err, &tagErr) {
			return nil, fmt.Errorf("%s: group %s has list_type %q", path, tagErr.Path, tagErr.Tag)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
