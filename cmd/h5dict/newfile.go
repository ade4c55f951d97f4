package main

import (
	"fmt"

	"github.com/creachadair/command"
	"github.com/robert-malhotra/h5dict/datafile"
)

var newfileArgs struct {
	TimeSubdir   bool `flag:"time-subdir,Put the file in an HHMMSS_name directory"`
	TimeFilename bool `flag:"time-filename,Prefix the file name with HHMMSS"`
}

func runNewfile(env *command.Env, name, datadir string) error {
	f, err := datafile.Create(name, datadir,
		datafile.WithTimeSubdir(newfileArgs.TimeSubdir),
		datafile.WithTimeFilename(newfileArgs.TimeFilename),
	)
	if err != nil {
		return err
	}
	logger().Debug("created data file", "path", f.Path(), "timestamp", f.Timestamp)
	if _, err := fmt.Fprintln(stdout, f.Path()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
