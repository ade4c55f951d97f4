// Package btree reads version 1 B-trees, which index the members of
// old-style (symbol table) groups and the chunks of chunked datasets, and
// writes the single-leaf chunk B-tree used for one-chunk datasets.
package btree
