// Package alloc provides space allocation management for container writing.
//
// Chunks and catalogs are placed at specific file offsets. This package hands
// out those offsets and tracks file growth so that no two writes overlap.
//
// # Allocator
//
// The [Allocator] type is safe for concurrent use and works append-only: every
// allocation is placed at the current end-of-file address, which is then
// advanced. Blocks that are no longer referenced (an old catalog, the chunks
// of a deleted group) are counted as garbage through [Allocator.Release] and
// are never reused.
//
// # Usage
//
// Create an allocator with a base address (typically after the superblock):
//
//	a := alloc.New(40)                     // start after the 40-byte superblock
//	addr := a.AllocTagged(1024, "catalog") // allocate 1024 bytes
//	a.Release(512)                         // an older 512-byte catalog is now dead
package alloc
