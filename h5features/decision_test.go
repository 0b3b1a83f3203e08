package h5features

import (
	"errors"
	"strings"
	"testing"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/dtype"
)

// openStore opens path read-write, creating it when missing.
func openStore(t *testing.T, path string) *FileStore {
	t.Helper()
	var f *container.File
	var err error
	if container.Exists(path) {
		f, err = container.OpenReadWrite(path)
	} else {
		f, err = container.Create(path)
	}
	if err != nil {
		t.Fatalf("opening container failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return NewStore(f)
}

func mustValidate(t *testing.T, path, group string, format Format, batch FeatureBatch) *WriteRequest {
	t.Helper()
	req, err := ValidateWrite(path, group, format, 81920, batch)
	if err != nil {
		t.Fatalf("ValidateWrite failed: %v", err)
	}
	return req
}

func mustWrite(t *testing.T, path, group string, batch FeatureBatch, opts ...Option) *WriteResult {
	t.Helper()
	res, err := Write(path, group, batch, append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return res
}

func TestDecideCreate(t *testing.T) {
	path := tempPath(t)
	req := mustValidate(t, path, "features", Dense, makeBatch("f", 10, 20, 5))
	store := openStore(t, path)

	d, err := Decide(store, req)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Action != Create {
		t.Fatalf("Action: got %s, want CREATE", d.Action)
	}
	if d.Existing != nil || d.StartRow != 0 {
		t.Errorf("unexpected existing schema %v or start row %d", d.Existing, d.StartRow)
	}
	s := d.Schema
	if s.Format != Dense || s.Dim != 20 || s.Version != Version || s.Dtype != dtype.Float64 {
		t.Errorf("Schema: got %s", s)
	}
	if store.GroupExists("features") {
		t.Error("Decide must not create the group")
	}
}

func TestDecideRejectDimension(t *testing.T) {
	path := tempPath(t)
	mustWrite(t, path, "features", makeBatch("a", 3, 20, 4))

	req := mustValidate(t, path, "features", Dense, makeBatch("b", 2, 21, 4))
	store := openStore(t, path)
	before, _ := store.DatasetRows("features", DatasetFeatures)

	d, err := Decide(store, req)
	if d.Action != Reject || d.Err != err {
		t.Fatalf("got action %s err %v", d.Action, err)
	}
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("got %T (%v), want *DimensionMismatchError", err, err)
	}
	if !strings.Contains(err.Error(), "20") || !strings.Contains(err.Error(), "21") {
		t.Errorf("message should name 20 and 21: %s", err)
	}

	after, _ := store.DatasetRows("features", DatasetFeatures)
	if before != after {
		t.Errorf("rows changed from %d to %d", before, after)
	}
}

func TestDecideAppend(t *testing.T) {
	path := tempPath(t)
	first := mustWrite(t, path, "features", makeBatch("a", 3, 5, 4))

	req := mustValidate(t, path, "features", Dense, makeBatch("b", 2, 5, 4))
	d, err := Decide(openStore(t, path), req)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Action != Append {
		t.Fatalf("Action: got %s, want APPEND", d.Action)
	}
	if d.StartRow != first.Frames || d.StartFile != 3 {
		t.Errorf("start: got row %d file %d, want row %d file 3", d.StartRow, d.StartFile, first.Frames)
	}
}

func TestDecideAbsentGroups(t *testing.T) {
	path := tempPath(t)
	mustWrite(t, path, "features", makeBatch("a", 1, 5, 4))

	store := openStore(t, path)
	if _, err := store.File().CreateGroup("empty"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	for _, group := range []string{"toto", "empty"} {
		t.Run(group, func(t *testing.T) {
			req := mustValidate(t, path, group, Dense, makeBatch("a", 1, 6, 2))
			if _, ok, err := InspectGroup(store, group); ok || err != nil {
				t.Fatalf("InspectGroup: got present=%v err=%v", ok, err)
			}
			d, err := Decide(store, req)
			if err != nil || d.Action != Create {
				t.Errorf("got %s, %v; want CREATE", d.Action, err)
			}
		})
	}
}

func TestDecideSchemaMismatch(t *testing.T) {
	path := tempPath(t)
	mustWrite(t, path, "features", makeBatch("a", 2, 4, 3))
	store := openStore(t, path)

	foreign, _ := store.File().CreateGroup("foreign")
	foreign.CreateDataset("other", dtype.Int64, 1)

	f32 := FeatureBatch{}
	f32.Add("x", FromRows32([][]float32{{1, 2, 3, 4}}), Vector([]float64{0}))

	wideTimes := FeatureBatch{}
	wideTimes.Add("x", FromRows([][]float64{{1, 2, 3, 4}}), FromRows([][]float64{{0, 1}}))

	tests := []struct {
		name   string
		group  string
		format Format
		batch  FeatureBatch
		setup  func(g *container.Group)
		field  string
	}{
		{"foreign datasets", "foreign", Dense, makeBatch("x", 1, 4, 1), nil, "datasets"},
		{"sparse into dense", "features", Sparse, makeBatch("x", 1, 4, 1), nil, "format"},
		{"sparse into dense, other dim", "features", Sparse, makeBatch("x", 1, 5, 1), nil, "format"},
		{"dtype", "features", Dense, f32, nil, "dtype"},
		{"times width", "features", Dense, wideTimes, nil, "times_dim"},
		{"format attribute", "features", Dense, makeBatch("x", 1, 4, 1), func(g *container.Group) {
			g.SetAttr(AttrFormat, "sparse")
		}, "format"},
		{"version", "features", Dense, makeBatch("x", 1, 4, 1), func(g *container.Group) {
			g.SetAttr(AttrVersion, "1.0")
		}, "version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := store.File().Group(tt.group)
			if tt.setup != nil {
				saved := g.Attrs()
				tt.setup(g)
				defer func() {
					for k, v := range saved {
						g.SetAttr(k, v)
					}
				}()
			}

			req := mustValidate(t, path, tt.group, tt.format, tt.batch)
			d, err := Decide(store, req)
			if d.Action != Reject {
				t.Fatalf("Action: got %s, want REJECT", d.Action)
			}
			var schemaErr *SchemaMismatchError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("got %T (%v), want *SchemaMismatchError", err, err)
			}
			if schemaErr.Field != tt.field {
				t.Errorf("Field: got %s, want %s", schemaErr.Field, tt.field)
			}
			if !IsValidation(err) {
				t.Error("schema mismatch should be a validation error")
			}
		})
	}
}

func TestDecideDuplicateStoredFile(t *testing.T) {
	path := tempPath(t)
	mustWrite(t, path, "features", makeBatch("a", 3, 4, 2))

	batch := makeBatch("b", 1, 4, 2)
	batch.Add("a1", FromRows([][]float64{{1, 2, 3, 4}}), Vector([]float64{0}))
	req := mustValidate(t, path, "features", Dense, batch)

	d, err := Decide(openStore(t, path), req)
	if d.Action != Reject || !errors.Is(err, ErrDuplicateFile) {
		t.Errorf("got %s, %v; want REJECT with ErrDuplicateFile", d.Action, err)
	}
}
