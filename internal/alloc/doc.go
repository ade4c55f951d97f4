// Package alloc places new file structures at the end of an HDF5 file.
//
// Writing never overwrites live structures other than the superblock: every
// object header, heap collection and chunk produced by a flush is appended
// after the current end of file, aligned to 8 bytes. The structures they
// replace stay in the file as unreferenced space, which [Appender.Stats]
// reports so callers can decide when a repack is worthwhile.
//
//	a := alloc.New(f, sb.EOFAddress)
//	addr, err := a.Place(header)
package alloc
