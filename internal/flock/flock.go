// Package flock takes advisory whole-file locks, mirroring the locking
// libhdf5 performs when HDF5_USE_FILE_LOCKING is enabled.
package flock

import "errors"

// ErrLocked is returned when another process holds a conflicting lock.
var ErrLocked = errors.New("file is locked by another process")
