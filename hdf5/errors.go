package hdf5

import (
	"errors"

	"github.com/robert-malhotra/h5dict/internal/flock"
	"github.com/robert-malhotra/h5dict/internal/object"
	"github.com/robert-malhotra/h5dict/internal/superblock"
)

var (
	ErrNotHDF5     = superblock.ErrNotHDF5
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrExists      = errors.New("object already exists")
	ErrReadOnly    = errors.New("file is not writable")
	ErrClosed      = errors.New("file is closed")
	ErrUnsupported = errors.New("unsupported feature")
	ErrInvalidPath = errors.New("invalid path")
	ErrLinkDepth   = errors.New("maximum link depth exceeded")

	// ErrMessageTooLarge is returned when an attribute does not fit in a
	// single object header message.
	ErrMessageTooLarge = object.ErrMessageTooLarge

	// ErrLocked is returned when another process holds the file open for
	// writing, or for reading when this process wants to write.
	ErrLocked = flock.ErrLocked
)

// MaxLinkDepth bounds the number of soft links followed while resolving one
// path.
const MaxLinkDepth = 100
