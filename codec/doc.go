// Package codec maps nested Go values onto an HDF5 group tree and back.
//
// A Map becomes one child per key under the target group. Scalars and
// Null are stored as attributes, arrays and uniform lists as datasets,
// and nested maps, mixed lists and tuples as child groups. Shapes that
// the container alone cannot tell apart carry a "list_type" attribute
// ("array", "str", "generic_list" or "generic_tuple"), and generic
// sequences also record "list_length". Null and the empty list are
// written as the reserved strings "NoneType:__None__" and
// "NoneType:__emptylist__".
//
// The encoding is the one produced by qcore's write_dict_to_hdf5 with
// h5py, so files written by either side decode on the other.
package codec
