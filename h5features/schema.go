package h5features

import (
	"fmt"

	"github.com/14thibea/h5features/internal/dtype"
)

// Version is the schema version written to new groups.
const Version = "1.1"

// Group attribute names.
const (
	AttrFormat   = "format"
	AttrDim      = "dim"
	AttrDtype    = "dtype"
	AttrVersion  = "version"
	AttrTimesDim = "times_dim"
)

// GroupSchema is the persisted identity of a group.
type GroupSchema struct {
	Format   Format
	Dim      int
	Dtype    dtype.Dtype
	Version  string
	TimesDim int

	// Datasets holds the sorted dataset names.
	Datasets []string
}

// NewGroupSchema returns the schema a fresh group gets for req.
func NewGroupSchema(req *WriteRequest) *GroupSchema {
	return &GroupSchema{
		Format:   req.Format,
		Dim:      req.Dim,
		Dtype:    req.Dtype,
		Version:  Version,
		TimesDim: req.TimesDim,
		Datasets: req.Format.Datasets(),
	}
}

func (s *GroupSchema) String() string {
	return fmt.Sprintf("{format: %s, dim: %d, dtype: %s, version: %s, times_dim: %d}",
		s.Format, s.Dim, s.Dtype, s.Version, s.TimesDim)
}

// empty reports whether s carries no schema attributes and no datasets.
func (s *GroupSchema) empty() bool {
	return s.Format == FormatInvalid && s.Dim == 0 && s.Dtype == dtype.Invalid &&
		s.Version == "" && s.TimesDim == 0 && len(s.Datasets) == 0
}

// InspectGroup reports the schema of a group. The boolean is false when the
// group is absent, which is not an error. A group that exists but holds no
// attributes and no datasets counts as absent.
func InspectGroup(store Store, group string) (*GroupSchema, bool, error) {
	if !store.GroupExists(group) {
		return nil, false, nil
	}
	schema, err := store.ReadGroupSchema(group)
	if err != nil {
		return nil, false, fmt.Errorf("reading schema of group %q: %w", group, err)
	}
	if schema.empty() {
		return nil, false, nil
	}
	return schema, true, nil
}
