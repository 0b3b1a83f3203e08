package alloc

import (
	"fmt"
	"sync"
)

// Allocator hands out file space. Allocation is append-only: every block
// starts at the current end of file. Space released by a rewritten catalog
// is recorded as garbage but never reused.
type Allocator struct {
	mu sync.Mutex

	// eofAddr is the next allocation point.
	eofAddr uint64

	// baseAddr is the minimum address that can be allocated
	// (right after the superblock).
	baseAddr uint64

	allocations []Allocation
	stats       Stats
}

// Allocation represents a single allocation made.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64 // Number of allocations made
	TotalBytesAlloc  uint64 // Total bytes allocated
	GarbageBytes     uint64 // Bytes released and not reclaimable
	LargestAlloc     uint64 // Largest single allocation
}

// New creates an Allocator whose first block starts at baseAddr.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		eofAddr:  baseAddr,
		baseAddr: baseAddr,
	}
}

// Alloc allocates a block of the given size and returns its address.
func (a *Allocator) Alloc(size uint64) uint64 {
	return a.AllocTagged(size, "")
}

// AllocTagged allocates a block labelled with tag (e.g. "chunk:features").
func (a *Allocator) AllocTagged(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return a.eofAddr
	}

	addr := a.eofAddr
	a.eofAddr += size

	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})
	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}
	return addr
}

// Release records a block that is no longer referenced.
func (a *Allocator) Release(size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.GarbageBytes += size
}

// EOFAddr returns the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Allocations returns a copy of the allocations made in this session.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]Allocation, len(a.allocations))
	copy(result, a.allocations)
	return result
}

// Validate checks that allocations don't overlap and are within bounds.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var prevEnd uint64
	for i, al := range a.allocations {
		if al.Addr < a.baseAddr {
			return fmt.Errorf("allocation at 0x%x is before base address 0x%x", al.Addr, a.baseAddr)
		}
		if al.Addr+al.Size > a.eofAddr {
			return fmt.Errorf("allocation at 0x%x size %d extends past EOF 0x%x", al.Addr, al.Size, a.eofAddr)
		}
		// Append-only: each block begins at or after the previous end.
		if i > 0 && al.Addr < prevEnd {
			return fmt.Errorf("overlapping allocations at 0x%x (previous ends at 0x%x)", al.Addr, prevEnd)
		}
		prevEnd = al.Addr + al.Size
	}
	return nil
}
