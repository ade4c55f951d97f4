package hdf5

// Mode selects how OpenFile opens a file.
type Mode int

const (
	// ReadOnly opens an existing file for reading.
	ReadOnly Mode = iota
	// ReadWrite opens an existing file for reading and writing.
	ReadWrite
	// Append opens a file for reading and writing, creating it if missing.
	Append
	// Truncate creates a new empty file, replacing any existing one.
	Truncate
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "r"
	case ReadWrite:
		return "r+"
	case Append:
		return "a"
	case Truncate:
		return "w"
	}
	return "mode(?)"
}

func (m Mode) writable() bool { return m != ReadOnly }

// FileOption configures OpenFile.
type FileOption func(*fileOptions)

type fileOptions struct {
	locking bool
	sync    bool
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{locking: true}
}

// WithLocking enables or disables advisory file locking. Writers take an
// exclusive lock and readers a shared one. Locking is on by default.
func WithLocking(on bool) FileOption {
	return func(o *fileOptions) { o.locking = on }
}

// WithSync makes Flush call fsync after writing the superblock.
func WithSync(on bool) FileOption {
	return func(o *fileOptions) { o.sync = on }
}

// DatasetOption configures CreateDataset.
type DatasetOption func(*datasetOptions)

type attrDef struct {
	name  string
	value any
}

type datasetOptions struct {
	compression int
	shuffle     bool
	fletcher32  bool
	shape       []uint64
	attributes  []attrDef
}

// WithCompression stores the dataset as one deflate-compressed chunk.
// Levels outside 1-9 leave the data uncompressed.
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.compression = level
		}
	}
}

// WithShuffle adds the byte shuffle filter ahead of compression.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) { o.shuffle = true }
}

// WithFletcher32 adds a Fletcher-32 checksum to the stored chunk.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) { o.fletcher32 = true }
}

// WithShape gives the dimensions of a dataset created from a flat slice.
// The product of dims must equal the slice length.
func WithShape(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) { o.shape = dims }
}

// WithAttribute attaches an attribute when the dataset is created. The value
// may be any type accepted by SetAttr.
func WithAttribute(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}
