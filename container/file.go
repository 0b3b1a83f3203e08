package container

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/14thibea/h5features/internal/alloc"
	binpkg "github.com/14thibea/h5features/internal/binary"
	"github.com/14thibea/h5features/internal/superblock"
)

// File represents an open container file.
type File struct {
	path       string
	file       *os.File
	reader     *binpkg.Reader
	superblock *superblock.Superblock
	catalog    *catalog
	closed     bool

	// Write support fields
	writable  bool
	dirty     bool
	writer    *binpkg.Writer
	allocator *alloc.Allocator
}

// Exists reports whether something exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Probe checks that path is a readable container file.
// The error wraps ErrNotFound when nothing exists at path and
// ErrNotContainer (or ErrCorrupt) when the file is not a usable container.
func Probe(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotContainer, path)
	}
	f, err := Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// IsValid reports whether path is a readable container file.
func IsValid(path string) bool {
	return Probe(path) == nil
}

// Open opens a container file for reading.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := load(path, osFile)
	if err != nil {
		osFile.Close()
		return nil, err
	}
	return f, nil
}

// OpenReadWrite opens an existing container file for reading and writing.
// New groups and rows can be added; they become visible to other readers
// on Flush or Close.
func OpenReadWrite(path string) (*File, error) {
	osFile, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := load(path, osFile)
	if err != nil {
		osFile.Close()
		return nil, err
	}

	// Writer shares the reader configuration, allocation resumes at the
	// committed EOF.
	f.writable = true
	f.writer = binpkg.NewWriter(osFile, f.superblock.Config())
	f.allocator = alloc.New(f.superblock.EOFAddress)
	return f, nil
}

// load parses the superblock and catalog of an opened file.
func load(path string, osFile *os.File) (*File, error) {
	sb, err := superblock.Read(osFile)
	if err != nil {
		switch {
		case errors.Is(err, superblock.ErrNotContainer), errors.Is(err, superblock.ErrUnsupportedVersion):
			return nil, fmt.Errorf("%w: %s: %v", ErrNotContainer, path, err)
		case errors.Is(err, superblock.ErrChecksum):
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}

	f := &File{
		path:       path,
		file:       osFile,
		reader:     binpkg.NewReader(osFile, sb.Config()),
		superblock: sb,
		catalog:    newCatalog(),
	}

	if sb.CatalogSize == 0 {
		return f, nil
	}
	if sb.CatalogAddress+sb.CatalogSize > sb.EOFAddress {
		return nil, fmt.Errorf("%w: catalog at 0x%x+%d past EOF 0x%x", ErrCorrupt, sb.CatalogAddress, sb.CatalogSize, sb.EOFAddress)
	}
	raw, err := f.reader.At(int64(sb.CatalogAddress)).ReadBytes(int(sb.CatalogSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading catalog: %v", ErrCorrupt, err)
	}
	if f.catalog, err = decodeCatalog(raw, sb.Config()); err != nil {
		return nil, err
	}
	return f, nil
}

// Create creates a new, empty container file at the given path.
// An existing file is truncated.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	sb := superblock.New()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)
	sb.EOFAddress = uint64(sb.Size())

	writer := binpkg.NewWriter(osFile, sb.Config())
	if err := sb.Write(writer); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing superblock: %w", err)
	}

	return &File{
		path:       path,
		file:       osFile,
		reader:     binpkg.NewReader(osFile, sb.Config()),
		superblock: sb,
		catalog:    newCatalog(),
		writable:   true,
		writer:     writer,
		allocator:  alloc.New(sb.EOFAddress),
	}, nil
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock format version.
func (f *File) Version() uint8 {
	return f.superblock.Version
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// Groups returns the sorted names of all groups.
func (f *File) Groups() []string {
	return sortedKeys(f.catalog.groups)
}

// HasGroup reports whether a group exists.
func (f *File) HasGroup(name string) bool {
	_, ok := f.catalog.groups[name]
	return ok
}

// Group opens an existing group.
func (f *File) Group(name string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	entry, ok := f.catalog.groups[name]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	return &Group{file: f, entry: entry}, nil
}

// CreateGroup creates a new, empty group.
func (f *File) CreateGroup(name string) (*Group, error) {
	if err := f.checkWritable(); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, ok := f.catalog.groups[name]; ok {
		return nil, fmt.Errorf("group %q: %w", name, ErrExists)
	}
	entry := newGroupEntry(name)
	f.catalog.groups[name] = entry
	f.dirty = true
	return &Group{file: f, entry: entry}, nil
}

// DeleteGroup removes a group and all its datasets.
// The chunk space is not reclaimed.
func (f *File) DeleteGroup(name string) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	entry, ok := f.catalog.groups[name]
	if !ok {
		return fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	for _, ds := range entry.datasets {
		for _, ch := range ds.chunks {
			f.allocator.Release(ch.Size)
		}
	}
	delete(f.catalog.groups, name)
	f.dirty = true
	return nil
}

// Flush commits pending changes: the catalog is written to new space, then
// the superblock is updated to point at it.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable || !f.dirty {
		return nil
	}

	raw, err := f.catalog.encode(f.superblock.Config())
	if err != nil {
		return err
	}
	addr := f.allocator.AllocTagged(uint64(len(raw)), "catalog")
	if err := f.writer.At(int64(addr)).WriteBytes(raw); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if f.superblock.CatalogSize > 0 {
		f.allocator.Release(f.superblock.CatalogSize)
	}
	if err := f.allocator.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	sb := *f.superblock
	sb.CatalogAddress = addr
	sb.CatalogSize = uint64(len(raw))
	sb.EOFAddress = f.allocator.EOFAddr()
	if err := sb.Write(f.writer.At(0)); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return err
	}
	f.superblock = &sb
	f.dirty = false
	return nil
}

// Close commits pending changes and closes the file.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	if f.writable {
		if err := f.Flush(); err != nil {
			f.closed = true
			f.file.Close()
			return err
		}
	}
	f.closed = true
	return f.file.Close()
}

// Discard closes the file without committing pending changes. Chunks
// written since the last Flush stay in the file as unreferenced bytes.
func (f *File) Discard() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.dirty = false
	return f.file.Close()
}

// AllocStats returns allocation statistics for this session.
func (f *File) AllocStats() alloc.Stats {
	if f.allocator == nil {
		return alloc.Stats{}
	}
	return f.allocator.Stats()
}

// CommittedSize returns the end of the committed file in bytes.
func (f *File) CommittedSize() uint64 {
	return f.superblock.EOFAddress
}

func (f *File) checkWritable() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	return nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "/@") || len(name) > 0xFFFF {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
