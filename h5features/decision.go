package h5features

import (
	"fmt"
	"slices"
	"strconv"
)

// Action is the outcome of Decide.
type Action uint8

const (
	Create Action = iota + 1
	Append
	Reject
)

func (a Action) String() string {
	switch a {
	case Create:
		return "CREATE"
	case Append:
		return "APPEND"
	case Reject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}

// Decision tells the writer what to do with a validated request.
type Decision struct {
	Action Action

	// Schema is the schema of the batch. Existing is the stored schema,
	// nil on Create.
	Schema   *GroupSchema
	Existing *GroupSchema

	// StartRow and StartFile are the current row and file counts of the
	// group; appended data starts there.
	StartRow  int
	StartFile int

	// Err is set on Reject.
	Err error
}

// Decide chooses between creating the target group, appending to it and
// rejecting the write. It never modifies the store.
//
// An existing group is compared to the batch in this order: format, dataset
// names, dim, dtype, version, times width, then the files it already
// holds. The first disagreement rejects the write; the returned error is
// also stored in Decision.Err.
func Decide(store Store, req *WriteRequest) (Decision, error) {
	want := NewGroupSchema(req)
	existing, ok, err := InspectGroup(store, req.Group)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Action: Create, Schema: want}, nil
	}

	d := Decision{Schema: want, Existing: existing}
	reject := func(err error) (Decision, error) {
		d.Action = Reject
		d.Err = err
		return d, err
	}

	if err := compareSchema(req.Group, existing, want); err != nil {
		return reject(err)
	}

	stored, err := store.ReadFiles(req.Group)
	if err != nil {
		return Decision{}, fmt.Errorf("reading files of group %q: %w", req.Group, err)
	}
	known := make(map[string]struct{}, len(stored))
	for _, f := range stored {
		known[f] = struct{}{}
	}
	for _, f := range req.Batch.Files {
		if _, ok := known[f]; ok {
			return reject(fmt.Errorf("%w: %q is already stored in group %q", ErrDuplicateFile, f, req.Group))
		}
	}

	rows, err := store.DatasetRows(req.Group, DatasetTimes)
	if err != nil {
		return Decision{}, fmt.Errorf("reading rows of group %q: %w", req.Group, err)
	}
	d.Action = Append
	d.StartRow = rows
	d.StartFile = len(stored)
	return d, nil
}

func compareSchema(group string, existing, want *GroupSchema) error {
	mismatch := func(field, stored, got string) error {
		return &SchemaMismatchError{Group: group, Field: field, Expected: stored, Got: got}
	}

	// A group with a known format is judged on its format first; its
	// dataset names follow from it.
	if existing.Format.Valid() && existing.Format != want.Format {
		return mismatch("format", existing.Format.String(), want.Format.String())
	}
	if !slices.Equal(existing.Datasets, want.Datasets) {
		return mismatch("datasets", fmt.Sprint(existing.Datasets), fmt.Sprint(want.Datasets))
	}
	if existing.Format != want.Format {
		return mismatch("format", existing.Format.String(), want.Format.String())
	}
	if existing.Dim != want.Dim {
		return &DimensionMismatchError{Group: group, Expected: existing.Dim, Got: want.Dim}
	}
	if existing.Dtype != want.Dtype {
		return mismatch("dtype", existing.Dtype.String(), want.Dtype.String())
	}
	if existing.Version != want.Version {
		return mismatch("version", existing.Version, want.Version)
	}
	if existing.TimesDim != want.TimesDim {
		return mismatch("times_dim", strconv.Itoa(existing.TimesDim), strconv.Itoa(want.TimesDim))
	}
	return nil
}
