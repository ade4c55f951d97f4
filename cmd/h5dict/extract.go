package main

import (
	"os"
	"slices"

	"github.com/creachadair/command"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/extract"
)

var extractArgs struct {
	Format string `flag:"format,default=text,Output format: text|json|yaml"`
}

func runExtract(env *command.Env) error {
	if len(env.Args) < 2 {
		return env.Usagef("extract takes a spec file and at least one data file")
	}
	if !slices.Contains(formats, extractArgs.Format) {
		return env.Usagef("unknown format %q", extractArgs.Format)
	}
	spec, err := loadSpec(env.Args[0])
	if err != nil {
		return err
	}
	files := env.Args[1:]
	if len(files) == 1 {
		m, err := extract.FromFile(files[0], spec)
		if err != nil {
			return err
		}
		return printValue(extractArgs.Format, m)
	}

	results, err := extract.FromFiles(env.Context(), files, spec)
	if err != nil {
		return err
	}
	out := make(codec.Map, len(files))
	for i, path := range files {
		out[codec.StringKey(path)] = results[i]
	}
	return printValue(extractArgs.Format, out)
}

func loadSpec(path string) (extract.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return extract.LoadSpec(f)
}
