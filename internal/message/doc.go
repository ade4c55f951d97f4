// Package message decodes and encodes HDF5 object header messages.
//
// Each message kind has a Go type implementing [Message]. Kinds this module
// writes also implement [Encodable]. Anything [Parse] does not interpret is
// returned as [*Unknown] so that object headers can carry it through a rewrite
// byte-for-byte.
//
// Supported kinds:
//
//   - Dataspace (0x01): scalar, simple and null, versions 1 and 2
//   - Link info (0x02) and group info (0x0A)
//   - Datatype (0x03): fixed-point, float, string, bitfield, opaque, compound,
//     reference, enum, variable-length and array classes
//   - Fill value (0x05)
//   - Link (0x06): hard, soft and external
//   - Data layout (0x08): versions 1 to 4
//   - Filter pipeline (0x0B): versions 1 and 2
//   - Attribute (0x0C): versions 1 to 3
//   - Continuation (0x10) and symbol table (0x11)
package message
