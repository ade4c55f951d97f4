package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedValueKind marks a value with no encoding rule. The
	// encoder stores its string form and reports a Warning.
	ErrUnsupportedValueKind = errors.New("unsupported value kind")

	// ErrAttributeWrite marks an attribute the container rejected. The
	// encoder skips the key and reports a Warning.
	ErrAttributeWrite = errors.New("attribute write failed")

	ErrUnknownListTag    = errors.New("unknown list_type")
	ErrMalformedSequence = errors.New("malformed sequence group")
	ErrNotMapping        = errors.New("group does not decode to a mapping")
	ErrCyclicValue       = errors.New("cyclic value")
)

// Warning is a problem the encoder recovered from.
type Warning struct {
	Path string // attribute or object path
	Err  error
}

func (w Warning) Error() string { return w.Path + ": " + w.Err.Error() }

func (w Warning) Unwrap() error { return w.Err }

// UnknownListTagError reports a group whose list_type is not a sequence
// tag.
type UnknownListTagError struct {
	Path string
	Tag  string
}

func (e *UnknownListTagError) Error() string {
	return fmt.Sprintf("%s: cannot read list_type %q", e.Path, e.Tag)
}

func (e *UnknownListTagError) Unwrap() error { return ErrUnknownListTag }

// CyclicValueError reports a value that contains itself, or nests deeper
// than the maximum depth. When encoding, Path is the key path from the
// encoded map; when decoding, it is the path of the group met again.
type CyclicValueError struct {
	Path  string
	Depth int
}

func (e *CyclicValueError) Error() string {
	return fmt.Sprintf("%s: cyclic value at depth %d", e.Path, e.Depth)
}

func (e *CyclicValueError) Unwrap() error { return ErrCyclicValue }
