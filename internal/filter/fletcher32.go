package filter

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/14thibea/h5features/internal/binary"
)

// Fletcher32 appends a Fletcher-32 checksum to each chunk.
type Fletcher32 struct{}

// NewFletcher32 creates a Fletcher-32 filter.
func NewFletcher32([]uint32) *Fletcher32 {
	return &Fletcher32{}
}

func (f *Fletcher32) ID() uint16 {
	return IDFletcher32
}

// Encode appends the little-endian checksum of input.
func (f *Fletcher32) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input), len(input)+4)
	copy(out, input)
	return binary.LittleEndian.AppendUint32(out, binpkg.Fletcher32(input)), nil
}

// Decode verifies and strips the trailing checksum.
func (f *Fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}
	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	if computed := binpkg.Fletcher32(data); stored != computed {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored=0x%08x, computed=0x%08x)", stored, computed)
	}
	return data, nil
}
