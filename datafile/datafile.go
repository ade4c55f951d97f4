// Package datafile creates container files for measurement runs in a
// timestamped directory tree.
package datafile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robert-malhotra/h5dict/codec"
	"github.com/robert-malhotra/h5dict/hdf5"
	"github.com/robert-malhotra/h5dict/rundir"
)

// File is an open data file and the names it was created under.
type File struct {
	*hdf5.File

	Name      string    // run name
	Dir       string    // directory holding the file
	Time      time.Time // creation time
	Timestamp string    // Time in asctime form, "Thu Mar  5 14:02:07 2026"
	TimeMark  string    // HHMMSS
	DateMark  string    // YYYYMMDD
}

type options struct {
	timeSubdir   bool
	timeFilename bool
	clock        func() time.Time
	fileOpts     []hdf5.FileOption
}

// An Option configures Create.
type Option func(*options)

// WithTimeSubdir puts the file in a HHMMSS_name directory under the date
// directory.
func WithTimeSubdir(on bool) Option { return func(o *options) { o.timeSubdir = on } }

// WithTimeFilename names the file HHMMSS_name.hdf5 instead of name.hdf5.
func WithTimeFilename(on bool) Option { return func(o *options) { o.timeFilename = on } }

// WithClock sets the source of the creation time.
func WithClock(clock func() time.Time) Option { return func(o *options) { o.clock = clock } }

// WithFileOptions passes options through to hdf5.OpenFile.
func WithFileOptions(opts ...hdf5.FileOption) Option {
	return func(o *options) { o.fileOpts = append(o.fileOpts, opts...) }
}

// Create makes the directories for a run called name under datadir and
// opens its data file in append mode, creating it if needed. The file is
// flushed once so it is valid on disk before anything is written.
func Create(name, datadir string, opts ...Option) (*File, error) {
	o := &options{clock: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	ts := o.clock()
	namer := rundir.Namer{
		Base:         datadir,
		DateSubdir:   true,
		TimeSubdir:   o.timeSubdir,
		TimeFilename: o.timeFilename,
		Clock:        o.clock,
	}
	path, err := namer.File(name, ts)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	hf, err := hdf5.OpenFile(path, hdf5.Append, o.fileOpts...)
	if err != nil {
		return nil, err
	}
	if err := hf.Flush(); err != nil {
		return nil, errors.Join(err, hf.Close())
	}
	return &File{
		File:      hf,
		Name:      name,
		Dir:       dir,
		Time:      ts,
		Timestamp: ts.Format(time.ANSIC),
		TimeMark:  ts.Format(rundir.TimeLayout),
		DateMark:  ts.Format(rundir.DateLayout),
	}, nil
}

// With creates a data file, calls fn with it and closes it. The close
// error, if any, is joined with the error from fn.
func With(name, datadir string, fn func(*File) error, opts ...Option) (err error) {
	f, err := Create(name, datadir, opts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return fn(f)
}

// WriteDict encodes m into the root group.
func (f *File) WriteDict(m codec.Map, opts ...codec.EncodeOption) ([]codec.Warning, error) {
	return codec.Encode(f.Root(), m, opts...)
}

// ReadDict decodes the root group.
func (f *File) ReadDict() (codec.Map, error) {
	return codec.Decode(f.Root())
}

func (f *File) String() string {
	return fmt.Sprintf("%s (%s)", f.Path(), f.Timestamp)
}
