package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"

	binpkg "github.com/14thibea/h5features/internal/binary"
)

// Signature marks the first eight bytes of every container file.
var Signature = []byte{0x89, 'H', '5', 'F', '\r', '\n', 0x1a, '\n'}

// Version is the superblock format version written by this package.
const Version uint8 = 1

// Errors
var (
	ErrNotContainer       = errors.New("not a container file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock holds the file-level metadata.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8

	// EOFAddress is the logical end of the committed file.
	EOFAddress uint64

	// CatalogAddress and CatalogSize locate the committed catalog.
	// A zero size means the file has no groups yet.
	CatalogAddress uint64
	CatalogSize    uint64
}

// New returns a superblock with 8-byte offsets and lengths.
func New() *Superblock {
	return &Superblock{
		Version:    Version,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// Size returns the encoded size in bytes.
func (sb *Superblock) Size() int {
	return 12 + 2*int(sb.OffsetSize) + int(sb.LengthSize) + 4
}

// Config returns the binary encoding parameters recorded in the superblock.
func (sb *Superblock) Config() binpkg.Config {
	cfg := binpkg.DefaultConfig()
	cfg.OffsetSize = int(sb.OffsetSize)
	cfg.LengthSize = int(sb.LengthSize)
	return cfg
}

// Read parses and verifies the superblock at offset 0.
func Read(r io.ReaderAt) (*Superblock, error) {
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotContainer
		}
		return nil, err
	}
	if !bytes.Equal(head[:8], Signature) {
		return nil, ErrNotContainer
	}
	if head[8] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head[8])
	}

	sb := &Superblock{
		Version:    head[8],
		OffsetSize: head[9],
		LengthSize: head[10],
		Flags:      head[11],
	}
	if err := sb.Config().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotContainer, err)
	}

	raw := make([]byte, sb.Size())
	if _, err := r.ReadAt(raw, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: truncated superblock", ErrNotContainer)
		}
		return nil, err
	}

	br := binpkg.NewReader(bytes.NewReader(raw), sb.Config()).At(12)
	var err error
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.CatalogAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.CatalogSize, err = br.ReadLength(); err != nil {
		return nil, err
	}
	stored, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	if Checksum(raw[:len(raw)-4]) != stored {
		return nil, ErrChecksum
	}
	return sb, nil
}

// Write encodes the superblock at the writer's position.
func (sb *Superblock) Write(w *binpkg.Writer) error {
	buf := &binpkg.Buffer{}
	bw := binpkg.NewWriter(buf, sb.Config())

	if err := bw.WriteBytes(Signature); err != nil {
		return err
	}
	for _, b := range []uint8{sb.Version, sb.OffsetSize, sb.LengthSize, sb.Flags} {
		if err := bw.WriteUint8(b); err != nil {
			return err
		}
	}
	if err := bw.WriteOffset(sb.EOFAddress); err != nil {
		return err
	}
	if err := bw.WriteOffset(sb.CatalogAddress); err != nil {
		return err
	}
	if err := bw.WriteLength(sb.CatalogSize); err != nil {
		return err
	}
	if err := bw.WriteUint32(Checksum(buf.Bytes())); err != nil {
		return err
	}
	return w.WriteBytes(buf.Bytes())
}

// Checksum returns the low 32 bits of the xxh3 hash of data.
func Checksum(data []byte) uint32 {
	return uint32(xxh3.Hash(data))
}
