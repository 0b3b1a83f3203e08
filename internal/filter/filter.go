package filter

import (
	"fmt"
)

// Filter identifiers.
const (
	IDDeflate    uint16 = 1
	IDShuffle    uint16 = 2
	IDFletcher32 uint16 = 3
	IDZstd       uint16 = 32015
)

// Filter transforms chunk bytes in both directions.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Encode transforms raw data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to raw form.
	Decode(input []byte) ([]byte, error)
}

// Info is the persisted description of one filter.
type Info struct {
	ID         uint16
	ClientData []uint32
}

// Registry maps filter IDs to filter constructors.
var Registry = map[uint16]func([]uint32) Filter{
	IDDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	IDShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	IDFletcher32: func(cd []uint32) Filter { return NewFletcher32(cd) },
	IDZstd:       func(cd []uint32) Filter { return NewZstd(cd) },
}

// Name returns a readable name for a filter ID.
func Name(id uint16) string {
	switch id {
	case IDDeflate:
		return "deflate"
	case IDShuffle:
		return "shuffle"
	case IDFletcher32:
		return "fletcher32"
	case IDZstd:
		return "zstd"
	default:
		return fmt.Sprintf("filter(%d)", id)
	}
}

// New creates a filter from its persisted description.
func New(info Info) (Filter, error) {
	constructor, ok := Registry[info.ID]
	if !ok {
		return nil, fmt.Errorf("unsupported filter ID: %d", info.ID)
	}
	return constructor(info.ClientData), nil
}
