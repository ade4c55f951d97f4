// Package superblock reads and writes the HDF5 superblock, the fixed
// structure that locates the root group and records the file's address width
// and end-of-file address.
//
// Versions 0 through 3 are read. The signature is searched for at offsets 0,
// 512, 1024 and 2048 to allow for a user block. Only version 2 is written:
// it is smaller than every other version with the same address width, so a
// rewritten superblock always fits over the one it replaces.
package superblock
