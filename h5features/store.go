package h5features

import (
	"fmt"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/dtype"
)

// IndexEntry maps a stored file to its rows [Start, End) in the times and
// features datasets.
type IndexEntry struct {
	File  string
	Start int
	End   int
}

// Store is the container the write path works against.
type Store interface {
	GroupExists(group string) bool
	ReadGroupSchema(group string) (*GroupSchema, error)

	// CreateGroup writes the schema attributes and creates the empty
	// datasets of the schema's format.
	CreateGroup(group string, schema *GroupSchema, opts ...container.DatasetOption) error

	// ExtendDataset appends rows, given as a flat row-major slice.
	ExtendDataset(group, dataset string, data any) error

	// AppendFileIndex appends files and their row ranges. The first entry
	// must start where the stored index ends.
	AppendFileIndex(group string, entries []IndexEntry) error

	DatasetRows(group, dataset string) (int, error)
	ReadFiles(group string) ([]string, error)

	// Commit makes every change since the last commit visible.
	Commit() error
}

// FileStore implements Store on an open container file.
type FileStore struct {
	file *container.File
}

// NewStore returns a Store backed by f.
func NewStore(f *container.File) *FileStore {
	return &FileStore{file: f}
}

// File returns the underlying container file.
func (s *FileStore) File() *container.File {
	return s.file
}

func (s *FileStore) GroupExists(group string) bool {
	return s.file.HasGroup(group)
}

// ReadGroupSchema reads the schema attributes and dataset names. Missing or
// unreadable attributes are left at their zero value so that the decision
// reports them as a mismatch.
func (s *FileStore) ReadGroupSchema(group string) (*GroupSchema, error) {
	g, err := s.file.Group(group)
	if err != nil {
		return nil, err
	}
	schema := &GroupSchema{Datasets: g.Datasets()}
	if v, ok := g.Attr(AttrFormat); ok {
		if str, ok := v.(string); ok {
			schema.Format, _ = ParseFormat(str)
		}
	}
	if v, ok := g.Attr(AttrDim); ok {
		if n, ok := v.(int64); ok {
			schema.Dim = int(n)
		}
	}
	if v, ok := g.Attr(AttrDtype); ok {
		if str, ok := v.(string); ok {
			schema.Dtype, _ = dtype.Parse(str)
		}
	}
	if v, ok := g.Attr(AttrVersion); ok {
		schema.Version, _ = v.(string)
	}
	if v, ok := g.Attr(AttrTimesDim); ok {
		if n, ok := v.(int64); ok {
			schema.TimesDim = int(n)
		}
	}
	return schema, nil
}

// CreateGroup creates the group, or fills an existing group that holds no
// datasets. It fails with container.ErrExists otherwise.
func (s *FileStore) CreateGroup(group string, schema *GroupSchema, opts ...container.DatasetOption) error {
	var g *container.Group
	var err error
	if s.file.HasGroup(group) {
		if g, err = s.file.Group(group); err != nil {
			return err
		}
		if len(g.Datasets()) > 0 {
			return fmt.Errorf("group %q: %w", group, container.ErrExists)
		}
	} else if g, err = s.file.CreateGroup(group); err != nil {
		return err
	}

	attrs := []struct {
		name  string
		value any
	}{
		{AttrFormat, schema.Format.String()},
		{AttrDim, schema.Dim},
		{AttrDtype, schema.Dtype.String()},
		{AttrVersion, schema.Version},
		{AttrTimesDim, schema.TimesDim},
	}
	for _, a := range attrs {
		if err := g.SetAttr(a.name, a.value); err != nil {
			return err
		}
	}

	featureWidth := schema.Dim
	if schema.Format == Sparse {
		featureWidth = 1
	}
	datasets := map[string]struct {
		dt    dtype.Dtype
		width int
	}{
		DatasetFiles:       {dtype.String, 1},
		DatasetTimes:       {dtype.Float64, schema.TimesDim},
		DatasetFeatures:    {schema.Dtype, featureWidth},
		DatasetFileIndex:   {dtype.Int64, 2},
		DatasetCoordinates: {dtype.Int64, 2},
	}
	for _, name := range schema.Format.Datasets() {
		layout := datasets[name]
		if _, err := g.CreateDataset(name, layout.dt, layout.width, opts...); err != nil {
			return fmt.Errorf("creating dataset %s/%s: %w", group, name, err)
		}
	}
	return nil
}

func (s *FileStore) dataset(group, name string) (*container.Dataset, error) {
	g, err := s.file.Group(group)
	if err != nil {
		return nil, err
	}
	return g.Dataset(name)
}

func (s *FileStore) ExtendDataset(group, dataset string, data any) error {
	ds, err := s.dataset(group, dataset)
	if err != nil {
		return err
	}
	return ds.Append(data)
}

func (s *FileStore) AppendFileIndex(group string, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	files, err := s.dataset(group, DatasetFiles)
	if err != nil {
		return err
	}
	index, err := s.dataset(group, DatasetFileIndex)
	if err != nil {
		return err
	}

	end := 0
	if n := index.Rows(); n > 0 {
		last, err := index.ReadRows(n-1, n)
		if err != nil {
			return err
		}
		end = int(last.([]int64)[1])
	}

	names := make([]string, len(entries))
	ranges := make([]int64, 0, 2*len(entries))
	for i, e := range entries {
		if e.Start != end || e.End <= e.Start {
			return fmt.Errorf("%w: %q has rows [%d, %d), expected to start at %d", ErrCorruptIndex, e.File, e.Start, e.End, end)
		}
		names[i] = e.File
		ranges = append(ranges, int64(e.Start), int64(e.End))
		end = e.End
	}
	if err := files.Append(names); err != nil {
		return err
	}
	return index.Append(ranges)
}

func (s *FileStore) DatasetRows(group, dataset string) (int, error) {
	ds, err := s.dataset(group, dataset)
	if err != nil {
		return 0, err
	}
	return ds.Rows(), nil
}

func (s *FileStore) ReadFiles(group string) ([]string, error) {
	ds, err := s.dataset(group, DatasetFiles)
	if err != nil {
		return nil, err
	}
	return ds.ReadStrings()
}

func (s *FileStore) Commit() error {
	return s.file.Flush()
}
