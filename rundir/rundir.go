// Package rundir names directories and files for measurement runs after
// the time they were taken.
//
// A run named "rabi" started at 2026-03-05 14:02:07 lands in
//
//	<base>/20260305/140207_rabi/rabi.hdf5
//
// with the date and time subdirectories each optional. When another entry
// in the parent directory already starts with the same HHMMSS prefix the
// time is advanced one second at a time until a free prefix is found.
package rundir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/creachadair/mds/mapset"
)

const (
	MaxAttempts = 3600 // probes before giving up
	DateLayout  = "20060102"
	TimeLayout  = "150405"
	Ext         = ".hdf5"
)

// ErrProbeExhausted is returned, wrapped in a *ProbeError, when no free
// time prefix is found within MaxAttempts seconds.
var ErrProbeExhausted = errors.New("directory probe exhausted")

// ProbeError reports the directory that had no free time prefix.
type ProbeError struct {
	Dir      string
	Prefix   string // last prefix tried
	Attempts int
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: no free time prefix after %d attempts (last %s)", e.Dir, e.Attempts, e.Prefix)
}

func (e *ProbeError) Unwrap() error { return ErrProbeExhausted }

// Namer computes run paths. It never creates anything on disk.
type Namer struct {
	Base         string // root data directory
	DateSubdir   bool   // add a YYYYMMDD directory
	TimeSubdir   bool   // add a HHMMSS[_name] directory, probed
	TimeFilename bool   // prefix the file name with HHMMSS_, probed

	// Clock supplies the time for a zero timestamp. If nil, time.Now is
	// used.
	Clock func() time.Time
}

// New returns a Namer rooted at base with a date subdirectory.
func New(base string) *Namer {
	return &Namer{Base: base, DateSubdir: true}
}

// Now returns the current time according to n.Clock.
func (n *Namer) Now() time.Time {
	if n.Clock != nil {
		return n.Clock()
	}
	return time.Now()
}

// Dir returns the directory for a run called name at ts. A zero ts means
// now. The date directory always follows ts, even when probing moves the
// time past midnight.
func (n *Namer) Dir(name string, ts time.Time) (string, error) {
	if ts.IsZero() {
		ts = n.Now()
	}
	path := n.Base
	if n.DateSubdir {
		path = filepath.Join(path, ts.Format(DateLayout))
	}
	if !n.TimeSubdir {
		return path, nil
	}
	free, err := Probe(path, ts)
	if err != nil {
		return "", err
	}
	sub := free.Format(TimeLayout)
	if name != "" {
		sub += "_" + name
	}
	return filepath.Join(path, sub), nil
}

// File returns the data file path for a run called name at ts: Dir plus
// "name.hdf5", or "HHMMSS_name.hdf5" probed inside that directory when
// n.TimeFilename is set.
func (n *Namer) File(name string, ts time.Time) (string, error) {
	if ts.IsZero() {
		ts = n.Now()
	}
	dir, err := n.Dir(name, ts)
	if err != nil {
		return "", err
	}
	if !n.TimeFilename {
		return filepath.Join(dir, name+Ext), nil
	}
	free, err := Probe(dir, ts)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", free.Format(TimeLayout), name, Ext)), nil
}

// Probe returns the first time from ts onward, in steps of one second,
// whose HHMMSS form is not the first six bytes of any entry in dir. A
// directory that does not exist has no entries.
func Probe(dir string, ts time.Time) (time.Time, error) {
	taken, err := prefixes(dir)
	if err != nil {
		return time.Time{}, err
	}
	var prefix string
	for range MaxAttempts {
		prefix = ts.Format(TimeLayout)
		if !taken.Has(prefix) {
			return ts, nil
		}
		ts = ts.Add(time.Second)
	}
	return time.Time{}, &ProbeError{Dir: dir, Prefix: prefix, Attempts: MaxAttempts}
}

func prefixes(dir string) (mapset.Set[string], error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return mapset.New[string](), nil
	} else if err != nil {
		return nil, err
	}
	taken := mapset.New[string]()
	for _, e := range entries {
		if name := e.Name(); len(name) >= len(TimeLayout) {
			taken.Add(name[:len(TimeLayout)])
		}
	}
	return taken, nil
}
