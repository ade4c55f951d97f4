// Package dtype converts between raw HDF5 element bytes and Go values.
//
// Reading yields one flat slice per dataset or attribute:
//
//	fixed-point (signed, or unsigned < 8 bytes)  []int64
//	fixed-point unsigned 8 bytes                 []uint64
//	float (2, 4 or 8 bytes)                      []float64
//	string, vlen string                          []string
//	enum FALSE/TRUE                              []bool
//	other enums                                  []string (member names)
//	bitfield, reference                          []uint64
//	opaque                                       [][]byte
//	compound                                     []map[string]any
//	array, vlen sequence                         []any
//
// Writing infers the datatype and shape from a Go value: scalars, slices and
// rectangular nested slices of integers, floats, bools and strings. Strings
// are stored as variable-length UTF-8, so their bytes are returned separately
// for the caller to place in a global heap.
package dtype
