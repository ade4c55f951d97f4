// Package hdf5 reads and writes HDF5 files in pure Go.
//
// A [File] exposes a tree of [Group] and [Dataset] objects, each carrying
// [Attribute] values. Files produced by h5py and libhdf5 can be read whether
// they use the original symbol-table groups (superblock version 0) or the
// newer compact link storage.
//
// Writing is copy-on-write. Changes are held in memory until [File.Flush] or
// [File.Close]; a flush appends a fresh object header for every changed
// object and for each of its ancestors, then rewrites the superblock to
// point at the new root. Objects that did not change keep their addresses,
// and header messages this package does not interpret are carried over
// unchanged.
//
//	f, err := hdf5.OpenFile("run.hdf5", hdf5.Append)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	g, err := f.Root().CreateGroup("settings")
//	...
//	err = g.SetAttr("gain", 0.5)
package hdf5
