// Package superblock handles the fixed header at offset 0 of a container file.
//
// The superblock identifies the file and points at the current catalog, the
// metadata block describing every group and dataset. It is the last thing
// rewritten when changes are committed, so a reader always sees either the
// previous catalog or the new one.
//
// # Layout
//
//	offset  size  field
//	0       8     signature 0x89 'H' '5' 'F' '\r' '\n' 0x1a '\n'
//	8       1     version
//	9       1     offset size (4 or 8)
//	10      1     length size (4 or 8)
//	11      1     flags
//	12      O     end-of-file address
//	12+O    O     catalog address
//	12+2O   L     catalog size
//	12+2O+L 4     checksum (low 32 bits of xxh3 over the preceding bytes)
//
// # Errors
//
//   - [ErrNotContainer]: the signature is missing or the file is too short
//   - [ErrUnsupportedVersion]: the version byte is unknown
//   - [ErrChecksum]: the stored checksum does not match
package superblock
