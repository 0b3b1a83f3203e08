package container

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/14thibea/h5features/internal/dtype"
	"github.com/14thibea/h5features/internal/filter"
)

func TestDatasetReadRows(t *testing.T) {
	tests := []struct {
		name string
		opts []DatasetOption
	}{
		{"plain", nil},
		{"deflate", []DatasetOption{WithCompression(6)}},
		{"shuffle deflate fletcher", []DatasetOption{WithShuffle(), WithCompression(4), WithFletcher32()}},
		{"zstd", []DatasetOption{WithShuffle(), WithZstd(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "rows.h5f")
			f, err := Create(testFile)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			g, _ := f.CreateGroup("g")
			ds, err := g.CreateDataset("features", dtype.Float64, 3, tt.opts...)
			if err != nil {
				t.Fatalf("CreateDataset failed: %v", err)
			}

			// Three chunks of 2, 3 and 1 rows.
			var all []float64
			for _, rows := range []int{2, 3, 1} {
				chunk := make([]float64, rows*3)
				for i := range chunk {
					chunk[i] = float64(len(all) + i)
				}
				all = append(all, chunk...)
				if err := ds.Append(chunk); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}
			if err := f.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			ro, err := Open(testFile)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer ro.Close()
			g2, _ := ro.Group("g")
			ds2, err := g2.Dataset("features")
			if err != nil {
				t.Fatalf("Dataset failed: %v", err)
			}
			if ds2.Rows() != 6 || ds2.Width() != 3 || ds2.Chunks() != 3 {
				t.Fatalf("got rows=%d width=%d chunks=%d", ds2.Rows(), ds2.Width(), ds2.Chunks())
			}
			if len(ds2.Filters()) != len(ds.Filters()) {
				t.Errorf("Filters: got %v, want %v", ds2.Filters(), ds.Filters())
			}

			full, err := ds2.ReadFloat64()
			if err != nil {
				t.Fatalf("ReadFloat64 failed: %v", err)
			}
			if !reflect.DeepEqual(full, all) {
				t.Errorf("ReadFloat64: got %v, want %v", full, all)
			}

			for _, r := range [][2]int{{0, 6}, {1, 4}, {2, 5}, {5, 6}, {3, 3}} {
				got, err := ds2.ReadRows(r[0], r[1])
				if err != nil {
					t.Fatalf("ReadRows%v failed: %v", r, err)
				}
				want := all[r[0]*3 : r[1]*3]
				if !reflect.DeepEqual(got.([]float64), want) {
					t.Errorf("ReadRows%v: got %v, want %v", r, got, want)
				}
			}
			if _, err := ds2.ReadRows(4, 7); !errors.Is(err, ErrShape) {
				t.Errorf("ReadRows out of range: got %v, want ErrShape", err)
			}
		})
	}
}

func TestDatasetTypes(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "types.h5f")
	f, _ := Create(testFile)
	g, _ := f.CreateGroup("g")

	files, _ := g.CreateDataset("files", dtype.String, 1, WithShuffle(), WithCompression(1))
	files.Append([]string{"a.wav", "bb.wav"})
	files.Append([]string{"ccc.wav"})

	f32, _ := g.CreateDataset("f32", dtype.Float32, 2)
	f32.Append([]float32{1.5, 2.5})

	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ro, _ := Open(testFile)
	defer ro.Close()
	g2, _ := ro.Group("g")

	fds, _ := g2.Dataset("files")
	if len(fds.Filters()) != 1 || fds.Filters()[0].ID != filter.IDDeflate {
		t.Errorf("string dataset should skip shuffle, got %v", fds.Filters())
	}
	names, err := fds.ReadStrings()
	if err != nil {
		t.Fatalf("ReadStrings failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a.wav", "bb.wav", "ccc.wav"}) {
		t.Errorf("ReadStrings: got %v", names)
	}
	if _, err := fds.ReadFloat64(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("ReadFloat64 on strings: got %v, want ErrTypeMismatch", err)
	}

	fl, _ := g2.Dataset("f32")
	vals, err := fl.ReadFloat32()
	if err != nil || !reflect.DeepEqual(vals, []float32{1.5, 2.5}) {
		t.Errorf("ReadFloat32: got %v, %v", vals, err)
	}
	if fl.Path() != "/g/f32" {
		t.Errorf("Path: got %s", fl.Path())
	}
}

func TestDatasetAppendErrors(t *testing.T) {
	f, _ := Create(filepath.Join(t.TempDir(), "errors.h5f"))
	defer f.Close()
	g, _ := f.CreateGroup("g")
	ds, _ := g.CreateDataset("x", dtype.Float64, 2)

	if err := ds.Append([]float32{1, 2}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("wrong type: got %v, want ErrTypeMismatch", err)
	}
	if err := ds.Append([]float64{1, 2, 3}); !errors.Is(err, ErrShape) {
		t.Errorf("ragged: got %v, want ErrShape", err)
	}
	if err := ds.Append([]int{1, 2}); !errors.Is(err, dtype.ErrUnsupported) {
		t.Errorf("unsupported: got %v, want dtype.ErrUnsupported", err)
	}
	if err := ds.Append([]float64{}); err != nil || ds.Chunks() != 0 {
		t.Errorf("empty append should be a no-op, got %v with %d chunks", err, ds.Chunks())
	}
	if _, err := g.CreateDataset("x", dtype.Float64, 2); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate dataset: got %v, want ErrExists", err)
	}
	if _, err := g.CreateDataset("y", dtype.Float64, 0); !errors.Is(err, ErrShape) {
		t.Errorf("zero width: got %v, want ErrShape", err)
	}
	if _, err := g.Dataset("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing dataset: got %v, want ErrNotFound", err)
	}
}

func TestAttributes(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "attrs.h5f")
	f, _ := Create(testFile)
	g, _ := f.CreateGroup("g")

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"format", "dense", "dense"},
		{"dim", 20, int64(20)},
		{"small", uint8(3), int64(3)},
		{"scale", float32(0.5), float64(0.5)},
		{"ratio", 0.25, 0.25},
	}
	for _, tt := range tests {
		if err := g.SetAttr(tt.name, tt.value); err != nil {
			t.Fatalf("SetAttr(%s) failed: %v", tt.name, err)
		}
	}
	if err := g.SetAttr("bad", []int{1}); !errors.Is(err, dtype.ErrUnsupported) {
		t.Errorf("SetAttr slice: got %v, want ErrUnsupported", err)
	}
	f.Close()

	ro, _ := Open(testFile)
	defer ro.Close()
	g2, _ := ro.Group("g")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g2.Attr(tt.name)
			if !ok {
				t.Fatal("attribute missing")
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
	if len(g2.Attrs()) != len(tests) {
		t.Errorf("Attrs: got %d entries, want %d", len(g2.Attrs()), len(tests))
	}
}
