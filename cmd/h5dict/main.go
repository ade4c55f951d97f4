// Program h5dict inspects and writes dictionary-shaped HDF5 files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/mattn/go-isatty"
	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/valuefmt"
)

var globalArgs struct {
	LogLevel string `flag:"log-level,default=info,Log level: debug|info|warn|error"`
	NoColor  bool   `flag:"no-color,Disable colored output"`
}

// Output destinations, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func newRoot() *command.C {
	return &command.C{
		Name:     "h5dict",
		Usage:    "command args...",
		Help:     "Read and write nested dictionaries stored in HDF5 files.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "dump",
				Usage: "dump file [group]",
				Help: `Decode a group and print it.

The group defaults to the root. Generic list and tuple groups print as
sequences; everything else prints as a mapping.`,
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      runDump,
			},
			{
				Name:  "tree",
				Usage: "tree file",
				Help:  "Print the groups, datasets and attributes of a file.",
				Run:   command.Adapt(runTree),
			},
			{
				Name:  "find",
				Usage: "find file expr",
				Help: `Print the objects for which expr is true.

The expression sees these variables:
  path   full path of the object
  name   last path component
  kind   "group" or "dataset"
  rank   number of dimensions (0 for groups and scalars)
  size   number of elements (members for groups)
  type   element type of a dataset
  attrs  attribute names

Example: find data.hdf5 'kind == "dataset" && size > 1000'`,
				Run: command.Adapt(runFind),
			},
			{
				Name:  "encode",
				Usage: "encode file input.yaml",
				Help: `Encode a YAML document into a group, creating the file if needed.

Use "-" to read the document from stdin. The tags !tuple, !array and
!uncertain select tuples, n-dimensional arrays and uncertain values.`,
				SetFlags: command.Flags(flax.MustBind, &encodeArgs),
				Run:      command.Adapt(runEncode),
			},
			{
				Name:  "extract",
				Usage: "extract spec.yaml file...",
				Help: `Extract named values from one or more files.

The spec file maps names to [path, mode] pairs, where mode is dset, attr:NAME,
attr:all_attr or group. Several files are read concurrently and printed
keyed by file name.`,
				SetFlags: command.Flags(flax.MustBind, &extractArgs),
				Run:      runExtract,
			},
			{
				Name:     "diff",
				Usage:    "diff fileA fileB [group]",
				Help:     "Decode the same group of two files and print a line diff of their dumps.",
				SetFlags: command.Flags(flax.MustBind, &diffArgs),
				Run:      runDiff,
			},
			{
				Name:     "newfile",
				Usage:    "newfile name datadir",
				Help:     "Create an empty timestamped data file under datadir and print its path.",
				SetFlags: command.Flags(flax.MustBind, &newfileArgs),
				Run:      command.Adapt(runNewfile),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := newRoot().NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(globalArgs.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// useColor reports whether w is a terminal and color was not turned off.
func useColor(w io.Writer) bool {
	if globalArgs.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

var formats = []string{"text", "json", "yaml"}

func printValue(format string, v codec.Value) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(stdout, valuefmt.Text(v))
		return err
	case "json":
		bs, err := valuefmt.JSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n", bs)
		return err
	case "yaml":
		return valuefmt.EncodeYAML(stdout, v)
	}
	return fmt.Errorf("unknown format %q (want one of %v)", format, formats)
}

// closeJoin closes c and adds its error to *err.
func closeJoin(err *error, c io.Closer) {
	*err = errors.Join(*err, c.Close())
}
