package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/h5dict/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock is the decoded superblock of any supported version.
type Superblock struct {
	Version uint8
	Sizes   binary.Sizes
	Flags   uint8

	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64

	// RootAddress is the object header address of the root group.
	RootAddress uint64

	GroupLeafK      uint16
	GroupInternalK  uint16
	IndexedStorageK uint16

	// Offset is the position of the signature within the file.
	Offset int64
}

// Read locates and decodes the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, 9)
	for _, off := range searchOffsets {
		n, err := r.ReadAt(head, off)
		if n < len(head) {
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(head[:8], Signature) {
			continue
		}

		var sb *Superblock
		switch v := head[8]; v {
		case 0, 1:
			sb, err = readV0V1(r, off, v)
		case 2, 3:
			sb, err = readV2V3(r, off, v)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, err
		}
		sb.Offset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// Base returns the absolute file position that addresses are relative to.
func (sb *Superblock) Base() int64 {
	if sb.BaseAddress != 0 {
		return int64(sb.BaseAddress)
	}
	return sb.Offset
}

// readV0V1 decodes the fixed header followed by base, free-space, EOF and
// driver addresses and the root group symbol table entry.
func readV0V1(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 16)
	if _, err := r.ReadAt(fixed, off+8); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	sb := &Superblock{
		Version:        version,
		Sizes:          binary.Sizes{Offset: int(fixed[5]), Length: int(fixed[6])},
		GroupLeafK:     uint16(binary.Uint(fixed[8:10])),
		GroupInternalK: uint16(binary.Uint(fixed[10:12])),
	}
	if err := sb.Sizes.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	pos := off + 24
	if version == 1 {
		k := make([]byte, 4)
		if _, err := r.ReadAt(k, pos); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
		}
		sb.IndexedStorageK = uint16(binary.Uint(k[:2]))
		pos += 4
	}

	o := sb.Sizes.Offset
	rest := make([]byte, 6*o)
	if _, err := r.ReadAt(rest, pos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	d := binary.NewDecoder(rest, sb.Sizes)
	sb.BaseAddress = d.Offset()
	d.Offset() // free-space info
	sb.EOFAddress = d.Offset()
	d.Offset() // driver info
	d.Offset() // root entry link name offset
	sb.RootAddress = d.Offset()
	sb.ExtensionAddress = sb.Sizes.Undefined()
	return sb, d.Err()
}

func readV2V3(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	sizes := make([]byte, 2)
	if _, err := r.ReadAt(sizes, off+9); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	bs := binary.Sizes{Offset: int(sizes[0]), Length: int(sizes[1])}
	if err := bs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}

	buf := make([]byte, Size(bs))
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	body := buf[:len(buf)-4]
	if !binary.VerifyLookup3(body, uint32(binary.Uint(buf[len(buf)-4:]))) {
		return nil, ErrChecksum
	}

	d := binary.NewDecoder(body, bs)
	d.Skip(11)
	sb := &Superblock{Version: version, Sizes: bs, Flags: d.U8()}
	sb.BaseAddress = d.Offset()
	sb.ExtensionAddress = d.Offset()
	sb.EOFAddress = d.Offset()
	sb.RootAddress = d.Offset()
	return sb, d.Err()
}

// Size returns the encoded size of a version 2 superblock.
func Size(sizes binary.Sizes) int {
	return 12 + 4*sizes.Offset + 4
}

// New returns a version 2 superblock for a file written by this package.
func New(root, eof uint64) *Superblock {
	return &Superblock{
		Version:          2,
		Sizes:            binary.DefaultSizes,
		ExtensionAddress: binary.DefaultSizes.Undefined(),
		RootAddress:      root,
		EOFAddress:       eof,
	}
}

// Encode returns the version 2 encoding of sb. Older versions are upgraded;
// their B-tree K values are not representable and are dropped.
func (sb *Superblock) Encode() []byte {
	e := binary.NewEncoder(sb.Sizes)
	e.Write(Signature)
	e.U8(2)
	e.U8(uint8(sb.Sizes.Offset))
	e.U8(uint8(sb.Sizes.Length))
	e.U8(0)
	e.Offset(sb.BaseAddress)
	e.Offset(sb.ExtensionAddress)
	e.Offset(sb.EOFAddress)
	e.Offset(sb.RootAddress)
	e.AppendChecksum()
	return e.Bytes()
}

// WriteTo writes the version 2 encoding at the superblock's offset.
func (sb *Superblock) WriteTo(w io.WriterAt) error {
	if _, err := w.WriteAt(sb.Encode(), sb.Offset); err != nil {
		return fmt.Errorf("write superblock: %w", err)
	}
	sb.Version = 2
	sb.Flags = 0
	return nil
}
