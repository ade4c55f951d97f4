// Package object reads and writes HDF5 object headers.
//
// An object header is the list of messages that defines a group, dataset or
// committed datatype. [Read] follows continuation chunks of version 1 and
// version 2 headers and returns every message as raw bytes. [Encode] writes a
// single-chunk version 2 header; it is used for every object the writer
// creates or modifies.
package object
