package container

import (
	"fmt"

	"github.com/14thibea/h5features/internal/dtype"
	"github.com/14thibea/h5features/internal/filter"
)

// Dataset is an extendable two-dimensional array of rows x width elements.
type Dataset struct {
	group    *Group
	entry    *datasetEntry
	pipeline *filter.Pipeline
}

func newDataset(g *Group, entry *datasetEntry) (*Dataset, error) {
	p, err := filter.NewPipeline(entry.filters)
	if err != nil {
		return nil, fmt.Errorf("dataset %s/%s: %w", g.entry.name, entry.name, err)
	}
	return &Dataset{group: g, entry: entry, pipeline: p}, nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.entry.name
}

// Path returns the absolute path of the dataset, e.g. "/features/times".
func (d *Dataset) Path() string {
	return d.group.Path() + "/" + d.entry.name
}

// Dtype returns the element type.
func (d *Dataset) Dtype() dtype.Dtype {
	return d.entry.dtype
}

// Width returns the number of elements per row.
func (d *Dataset) Width() int {
	return d.entry.width
}

// Rows returns the number of stored rows.
func (d *Dataset) Rows() int {
	return int(d.entry.rows)
}

// Shape returns [rows, width].
func (d *Dataset) Shape() []int {
	return []int{d.Rows(), d.Width()}
}

// Chunks returns the number of stored chunks.
func (d *Dataset) Chunks() int {
	return len(d.entry.chunks)
}

// Filters returns the filter pipeline description.
func (d *Dataset) Filters() []filter.Info {
	return append([]filter.Info(nil), d.entry.filters...)
}

// StoredBytes returns the total size of the stored chunks.
func (d *Dataset) StoredBytes() uint64 {
	var n uint64
	for _, ch := range d.entry.chunks {
		n += ch.Size
	}
	return n
}

// Append writes data as one new chunk at the end of the dataset.
// data is a flat row-major slice ([]float32, []float64, []int64 or []string)
// of the dataset type whose length is a multiple of the width.
func (d *Dataset) Append(data any) error {
	f := d.group.file
	if err := f.checkWritable(); err != nil {
		return err
	}
	dt, n, err := dtype.Of(data)
	if err != nil {
		return fmt.Errorf("appending to %s: %w", d.Path(), err)
	}
	if dt != d.entry.dtype {
		return fmt.Errorf("appending %s to %s dataset %s: %w", dt, d.entry.dtype, d.Path(), ErrTypeMismatch)
	}
	if n%d.entry.width != 0 {
		return fmt.Errorf("appending %d elements to %s of width %d: %w", n, d.Path(), d.entry.width, ErrShape)
	}
	if n == 0 {
		return nil
	}

	raw, err := dtype.Encode(dt, data)
	if err != nil {
		return err
	}
	stored, err := d.pipeline.Encode(raw)
	if err != nil {
		return fmt.Errorf("filtering chunk of %s: %w", d.Path(), err)
	}

	addr := f.allocator.AllocTagged(uint64(len(stored)), "chunk:"+d.Path())
	if err := f.writer.At(int64(addr)).WriteBytes(stored); err != nil {
		return fmt.Errorf("writing chunk of %s: %w", d.Path(), err)
	}

	rows := uint64(n / d.entry.width)
	d.entry.chunks = append(d.entry.chunks, chunkRef{Addr: addr, Size: uint64(len(stored)), Rows: rows})
	d.entry.rows += rows
	f.dirty = true
	return nil
}

// ReadRows reads rows [start, end) as a flat row-major slice of the
// dataset type.
func (d *Dataset) ReadRows(start, end int) (any, error) {
	switch d.entry.dtype {
	case dtype.Float32:
		return readRows[float32](d, start, end)
	case dtype.Float64:
		return readRows[float64](d, start, end)
	case dtype.Int64:
		return readRows[int64](d, start, end)
	case dtype.String:
		return readRows[string](d, start, end)
	}
	return nil, fmt.Errorf("%w: %s", dtype.ErrUnsupported, d.entry.dtype)
}

// ReadFloat64 reads the whole dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	return readAll[float64](d, dtype.Float64)
}

// ReadFloat32 reads the whole dataset as float32 values.
func (d *Dataset) ReadFloat32() ([]float32, error) {
	return readAll[float32](d, dtype.Float32)
}

// ReadInt64 reads the whole dataset as int64 values.
func (d *Dataset) ReadInt64() ([]int64, error) {
	return readAll[int64](d, dtype.Int64)
}

// ReadStrings reads the whole dataset as strings.
func (d *Dataset) ReadStrings() ([]string, error) {
	return readAll[string](d, dtype.String)
}

func readAll[T any](d *Dataset, want dtype.Dtype) ([]T, error) {
	if d.entry.dtype != want {
		return nil, fmt.Errorf("reading %s dataset %s as %s: %w", d.entry.dtype, d.Path(), want, ErrTypeMismatch)
	}
	return readRows[T](d, 0, d.Rows())
}

func readRows[T any](d *Dataset, start, end int) ([]T, error) {
	if d.group.file.closed {
		return nil, ErrClosed
	}
	if start < 0 || end < start || end > d.Rows() {
		return nil, fmt.Errorf("rows [%d, %d) of %s with %d rows: %w", start, end, d.Path(), d.Rows(), ErrShape)
	}

	w := d.entry.width
	out := make([]T, 0, (end-start)*w)
	first := 0
	for _, ch := range d.entry.chunks {
		chStart, chEnd := first, first+int(ch.Rows)
		first = chEnd
		if chEnd <= start {
			continue
		}
		if chStart >= end {
			break
		}

		v, err := d.readChunk(ch)
		if err != nil {
			return nil, err
		}
		vals, ok := v.([]T)
		if !ok {
			return nil, fmt.Errorf("chunk of %s decoded as %T: %w", d.Path(), v, ErrTypeMismatch)
		}
		lo := max(start, chStart) - chStart
		hi := min(end, chEnd) - chStart
		out = append(out, vals[lo*w:hi*w]...)
	}
	return out, nil
}

func (d *Dataset) readChunk(ch chunkRef) (any, error) {
	stored, err := d.group.file.reader.At(int64(ch.Addr)).ReadBytes(int(ch.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: reading chunk at 0x%x of %s: %v", ErrCorrupt, ch.Addr, d.Path(), err)
	}
	raw, err := d.pipeline.Decode(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk at 0x%x of %s: %v", ErrCorrupt, ch.Addr, d.Path(), err)
	}
	v, err := dtype.Decode(d.entry.dtype, raw, int(ch.Rows)*d.entry.width)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk at 0x%x of %s: %v", ErrCorrupt, ch.Addr, d.Path(), err)
	}
	return v, nil
}
