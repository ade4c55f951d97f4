package main

import (
	"fmt"

	"github.com/creachadair/command"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/robert-malhotra/h5dict/hdf5"
)

// findEnv is the environment a find expression is evaluated in.
type findEnv struct {
	Path  string   `expr:"path"`
	Name  string   `expr:"name"`
	Kind  string   `expr:"kind"`
	Rank  int      `expr:"rank"`
	Size  int      `expr:"size"`
	Type  string   `expr:"type"`
	Attrs []string `expr:"attrs"`
}

func newFindEnv(obj hdf5.Object) findEnv {
	e := findEnv{
		Path:  obj.Path(),
		Name:  lastName(obj.Path()),
		Attrs: obj.Attrs(),
	}
	switch o := obj.(type) {
	case *hdf5.Group:
		e.Kind = "group"
		e.Size = o.Len()
	case *hdf5.Dataset:
		e.Kind = "dataset"
		e.Rank = o.Rank()
		e.Size = o.Len()
		e.Type = o.TypeName()
	}
	return e
}

func compileFind(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(findEnv{}), expr.AsBool())
}

func runFind(env *command.Env, path, src string) (err error) {
	prg, err := compileFind(src)
	if err != nil {
		return env.Usagef("invalid expression: %v", err)
	}
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer closeJoin(&err, f)

	log := logger()
	return hdf5.Walk(f.Root(), func(objPath string, obj hdf5.Object, err error) error {
		if ctxErr := env.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Warn("skipping unreadable object", "path", objPath, "err", err)
			return nil
		}
		out, err := expr.Run(prg, newFindEnv(obj))
		if err != nil {
			return fmt.Errorf("%s: %w", objPath, err)
		}
		if out.(bool) {
			fmt.Fprintln(stdout, objPath)
		}
		return nil
	})
}
