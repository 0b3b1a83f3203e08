package container

import (
	"fmt"
	"maps"

	"github.com/14thibea/h5features/internal/dtype"
)

// Group is a named set of attributes and datasets.
type Group struct {
	file  *File
	entry *groupEntry
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.entry.name
}

// Path returns the absolute path of the group, e.g. "/features".
func (g *Group) Path() string {
	return "/" + g.entry.name
}

// Attrs returns a copy of the group attributes.
// Values are string, int64 or float64.
func (g *Group) Attrs() map[string]any {
	return maps.Clone(g.entry.attrs)
}

// Attr returns a single attribute value.
func (g *Group) Attr(name string) (any, bool) {
	v, ok := g.entry.attrs[name]
	return v, ok
}

// SetAttr sets an attribute. The value can be a string, any signed or
// unsigned integer that fits in an int64, or a float32/float64.
func (g *Group) SetAttr(name string, value any) error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	v, err := normalizeAttr(value)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", name, err)
	}
	g.entry.attrs[name] = v
	g.file.dirty = true
	return nil
}

func normalizeAttr(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return nil, fmt.Errorf("%w: %T", dtype.ErrUnsupported, value)
}

// Datasets returns the sorted dataset names.
func (g *Group) Datasets() []string {
	return sortedKeys(g.entry.datasets)
}

// HasDataset reports whether the group holds a dataset with that name.
func (g *Group) HasDataset(name string) bool {
	_, ok := g.entry.datasets[name]
	return ok
}

// Dataset opens an existing dataset.
func (g *Group) Dataset(name string) (*Dataset, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	entry, ok := g.entry.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %s/%s: %w", g.entry.name, name, ErrNotFound)
	}
	return newDataset(g, entry)
}

// CreateDataset creates an empty dataset whose rows hold width elements of
// type dt. Rows are added with Dataset.Append.
//
// Example:
//
//	ds, err := g.CreateDataset("features", dtype.Float64, 20,
//	    container.WithShuffle(), container.WithCompression(4))
func (g *Group) CreateDataset(name string, dt dtype.Dtype, width int, opts ...DatasetOption) (*Dataset, error) {
	if err := g.file.checkWritable(); err != nil {
		return nil, err
	}
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !dt.Valid() {
		return nil, fmt.Errorf("dataset %s: %w: %s", name, dtype.ErrUnsupported, dt)
	}
	if width < 1 {
		return nil, fmt.Errorf("dataset %s: %w: width %d", name, ErrShape, width)
	}
	if _, ok := g.entry.datasets[name]; ok {
		return nil, fmt.Errorf("dataset %s/%s: %w", g.entry.name, name, ErrExists)
	}

	options := &datasetOptions{}
	for _, opt := range opts {
		opt(options)
	}
	entry := &datasetEntry{
		name:    name,
		dtype:   dt,
		width:   width,
		filters: options.pipeline(dt.Size()),
	}
	ds, err := newDataset(g, entry)
	if err != nil {
		return nil, err
	}
	g.entry.datasets[name] = entry
	g.file.dirty = true
	return ds, nil
}
