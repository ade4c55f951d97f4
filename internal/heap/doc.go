// Package heap reads local heaps (the name storage of old-style groups) and
// reads and writes global heap collections, which hold variable-length data
// such as vlen strings.
package heap
