// Package binary provides the little-endian encoding primitives shared by the
// HDF5 reader and writer: variable-width offsets and lengths, a sticky-error
// decoder over in-memory buffers, an appending encoder, positional file reads,
// and the Jenkins lookup3 checksum used for v2 metadata.
package binary
