package h5features

import (
	"fmt"
	"sort"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/dtype"
)

// Reader reads back the files of one group.
type Reader struct {
	file   *container.File
	group  *container.Group
	schema *GroupSchema
	index  []IndexEntry
	byName map[string]int

	// valueRows holds the frame row of every stored sparse value, loaded
	// on the first sparse read.
	valueRows []int64
}

// OpenReader opens a group for reading and checks its file index.
func OpenReader(path, group string) (*Reader, error) {
	f, err := container.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f, group)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f *container.File, group string) (*Reader, error) {
	store := NewStore(f)
	schema, ok, err := InspectGroup(store, group)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("group %q: %w", group, container.ErrNotFound)
	}
	g, err := f.Group(group)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: f, group: g, schema: schema}
	if err := r.loadIndex(store); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) loadIndex(store *FileStore) error {
	name := r.group.Name()
	files, err := store.ReadFiles(name)
	if err != nil {
		return err
	}
	ds, err := r.group.Dataset(DatasetFileIndex)
	if err != nil {
		return err
	}
	ranges, err := ds.ReadInt64()
	if err != nil {
		return err
	}
	rows, err := store.DatasetRows(name, DatasetTimes)
	if err != nil {
		return err
	}

	if len(ranges) != 2*len(files) {
		return fmt.Errorf("%w: %d files for %d index entries", ErrCorruptIndex, len(files), len(ranges)/2)
	}
	r.index = make([]IndexEntry, len(files))
	r.byName = make(map[string]int, len(files))
	end := 0
	for i, file := range files {
		e := IndexEntry{File: file, Start: int(ranges[2*i]), End: int(ranges[2*i+1])}
		if e.Start != end || e.End <= e.Start {
			return fmt.Errorf("%w: %q has rows [%d, %d), expected to start at %d", ErrCorruptIndex, file, e.Start, e.End, end)
		}
		if _, dup := r.byName[file]; dup {
			return fmt.Errorf("%w: %q is indexed twice", ErrCorruptIndex, file)
		}
		r.index[i] = e
		r.byName[file] = i
		end = e.End
	}
	if end != rows {
		return fmt.Errorf("%w: index ends at row %d, times has %d rows", ErrCorruptIndex, end, rows)
	}
	return nil
}

// Schema returns the group schema.
func (r *Reader) Schema() *GroupSchema {
	return r.schema
}

// Files returns the stored files in write order.
func (r *Reader) Files() []string {
	files := make([]string, len(r.index))
	for i, e := range r.index {
		files[i] = e.File
	}
	return files
}

// Index returns a copy of the file index.
func (r *Reader) Index() []IndexEntry {
	return append([]IndexEntry(nil), r.index...)
}

// Read returns the features and times of one file. Times are returned as a
// 1-D array when the group stores one timestamp per frame.
func (r *Reader) Read(file string) (features, times Matrix, err error) {
	i, ok := r.byName[file]
	if !ok {
		return Matrix{}, Matrix{}, fmt.Errorf("%w: %q", ErrFileNotFound, file)
	}
	e := r.index[i]
	frames := e.End - e.Start

	tds, err := r.group.Dataset(DatasetTimes)
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	t, err := tds.ReadRows(e.Start, e.End)
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	times = Matrix{Shape: []int{frames, r.schema.TimesDim}, Float64: t.([]float64)}
	if r.schema.TimesDim == 1 {
		times.Shape = []int{frames}
	}

	if r.schema.Format == Sparse {
		features, err = r.readSparse(e)
	} else {
		features, err = r.readDense(e)
	}
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	return features, times, nil
}

func (r *Reader) readDense(e IndexEntry) (Matrix, error) {
	ds, err := r.group.Dataset(DatasetFeatures)
	if err != nil {
		return Matrix{}, err
	}
	data, err := ds.ReadRows(e.Start, e.End)
	if err != nil {
		return Matrix{}, err
	}
	m := Matrix{Shape: []int{e.End - e.Start, r.schema.Dim}}
	switch v := data.(type) {
	case []float32:
		m.Float32 = v
	case []float64:
		m.Float64 = v
	default:
		return Matrix{}, fmt.Errorf("features of group %q: %w: %T", r.group.Name(), dtype.ErrUnsupported, data)
	}
	return m, nil
}

// readSparse rebuilds the dense matrix of one file from the non-zero values
// whose coordinates fall in its rows. Only the values of the file are read.
func (r *Reader) readSparse(e IndexEntry) (Matrix, error) {
	rows, err := r.sparseRows()
	if err != nil {
		return Matrix{}, fmt.Errorf("features of group %q: %w", r.group.Name(), err)
	}
	lo := sort.Search(len(rows), func(i int) bool { return rows[i] >= int64(e.Start) })
	hi := sort.Search(len(rows), func(i int) bool { return rows[i] >= int64(e.End) })

	cds, err := r.group.Dataset(DatasetCoordinates)
	if err != nil {
		return Matrix{}, err
	}
	raw, err := cds.ReadRows(lo, hi)
	if err != nil {
		return Matrix{}, err
	}
	coords, _ := raw.([]int64)
	vds, err := r.group.Dataset(DatasetFeatures)
	if err != nil {
		return Matrix{}, err
	}
	values, err := vds.ReadRows(lo, hi)
	if err != nil {
		return Matrix{}, err
	}

	frames, dim := e.End-e.Start, r.schema.Dim
	m := Matrix{Shape: []int{frames, dim}}
	switch v := values.(type) {
	case []float32:
		m.Float32, err = scatter(v, coords, e, dim)
	case []float64:
		m.Float64, err = scatter(v, coords, e, dim)
	default:
		err = fmt.Errorf("%w: %T", dtype.ErrUnsupported, values)
	}
	if err != nil {
		return Matrix{}, fmt.Errorf("features of group %q: %w", r.group.Name(), err)
	}
	return m, nil
}

// sparseRows returns the frame row of every stored value. Rows never
// decrease, so the values of a file form one contiguous range.
func (r *Reader) sparseRows() ([]int64, error) {
	if r.valueRows != nil {
		return r.valueRows, nil
	}
	cds, err := r.group.Dataset(DatasetCoordinates)
	if err != nil {
		return nil, err
	}
	vds, err := r.group.Dataset(DatasetFeatures)
	if err != nil {
		return nil, err
	}
	if cds.Rows() != vds.Rows() {
		return nil, fmt.Errorf("%w: %d coordinates for %d values", ErrCorruptIndex, cds.Rows(), vds.Rows())
	}
	coords, err := cds.ReadInt64()
	if err != nil {
		return nil, err
	}
	rows := make([]int64, len(coords)/2)
	for k := range rows {
		rows[k] = coords[2*k]
		if k > 0 && rows[k] < rows[k-1] {
			return nil, fmt.Errorf("%w: coordinate rows decrease at value %d", ErrCorruptIndex, k)
		}
	}
	r.valueRows = rows
	return rows, nil
}

func scatter[T float32 | float64](values []T, coords []int64, e IndexEntry, dim int) ([]T, error) {
	if len(coords) != 2*len(values) {
		return nil, fmt.Errorf("%w: %d coordinates for %d values", ErrCorruptIndex, len(coords)/2, len(values))
	}
	out := make([]T, (e.End-e.Start)*dim)
	for k, v := range values {
		row, col := int(coords[2*k]), int(coords[2*k+1])
		if row < e.Start || row >= e.End {
			continue
		}
		if col < 0 || col >= dim {
			return nil, fmt.Errorf("%w: column %d outside dim %d", ErrCorruptIndex, col, dim)
		}
		out[(row-e.Start)*dim+col] = v
	}
	return out, nil
}

// Close closes the underlying container.
func (r *Reader) Close() error {
	return r.file.Close()
}
