package container

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/14thibea/h5features/internal/dtype"
)

func TestCreate(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.h5f")

	f, err := Create(testFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !f.IsWritable() {
		t.Error("File should be writable")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	if len(f2.Groups()) != 0 {
		t.Errorf("expected no groups, got %v", f2.Groups())
	}
	if f2.CommittedSize() != 40 {
		t.Errorf("CommittedSize: got %d, want 40", f2.CommittedSize())
	}
	if f2.Version() != 1 {
		t.Errorf("Version: got %d, want 1", f2.Version())
	}
}

func TestCreateWithOptions(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "small.h5f")

	f, err := Create(testFile, WithOffsetSize(4), WithLengthSize(4))
	if err != nil {
		t.Fatalf("Create with options failed: %v", err)
	}
	g, _ := f.CreateGroup("g")
	ds, _ := g.CreateDataset("x", dtype.Int64, 1)
	if err := ds.Append([]int64{7, 8, 9}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()
	if f2.superblock.OffsetSize != 4 {
		t.Errorf("OffsetSize: got %d, want 4", f2.superblock.OffsetSize)
	}
	g2, _ := f2.Group("g")
	ds2, _ := g2.Dataset("x")
	got, err := ds2.ReadInt64()
	if err != nil {
		t.Fatalf("ReadInt64 failed: %v", err)
	}
	if len(got) != 3 || got[2] != 9 {
		t.Errorf("got %v", got)
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.h5f")
	f, err := Create(valid)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Close()

	text := filepath.Join(dir, "notes.txt")
	os.WriteFile(text, []byte("this is not a container file at all"), 0o644)

	empty := filepath.Join(dir, "empty")
	os.WriteFile(empty, nil, 0o644)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"valid", valid, nil},
		{"missing", filepath.Join(dir, "missing.h5f"), ErrNotFound},
		{"text file", text, ErrNotContainer},
		{"empty file", empty, ErrNotContainer},
		{"directory", dir, ErrNotContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Probe(tt.path)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Probe failed: %v", err)
				}
				if !IsValid(tt.path) {
					t.Error("IsValid should be true")
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Probe: got %v, want %v", err, tt.want)
			}
			if IsValid(tt.path) {
				t.Error("IsValid should be false")
			}
		})
	}

	if !Exists(text) || Exists(filepath.Join(dir, "missing.h5f")) {
		t.Error("Exists returned wrong result")
	}
}

func TestGroups(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "groups.h5f")
	f, err := Create(testFile)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, name := range []string{"mfcc", "abx", "zz"} {
		if _, err := f.CreateGroup(name); err != nil {
			t.Fatalf("CreateGroup(%s) failed: %v", name, err)
		}
	}
	if _, err := f.CreateGroup("mfcc"); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate group: got %v, want ErrExists", err)
	}
	for _, bad := range []string{"", "a/b", "a@b"} {
		if _, err := f.CreateGroup(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("CreateGroup(%q): got %v, want ErrInvalidName", bad, err)
		}
	}
	if err := f.DeleteGroup("zz"); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if err := f.DeleteGroup("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteGroup: got %v, want ErrNotFound", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f2, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f2.Close()

	got := f2.Groups()
	if len(got) != 2 || got[0] != "abx" || got[1] != "mfcc" {
		t.Errorf("Groups: got %v", got)
	}
	if !f2.HasGroup("mfcc") || f2.HasGroup("zz") {
		t.Error("HasGroup returned wrong result")
	}
	if _, err := f2.Group("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Group(zz): got %v, want ErrNotFound", err)
	}
}

func TestReadOnly(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "ro.h5f")
	f, _ := Create(testFile)
	g, _ := f.CreateGroup("g")
	g.CreateDataset("x", dtype.Float64, 2)
	f.Close()

	ro, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer ro.Close()

	if _, err := ro.CreateGroup("h"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateGroup: got %v, want ErrReadOnly", err)
	}
	g2, _ := ro.Group("g")
	if err := g2.SetAttr("a", "b"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetAttr: got %v, want ErrReadOnly", err)
	}
	ds, _ := g2.Dataset("x")
	if err := ds.Append([]float64{1, 2}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Append: got %v, want ErrReadOnly", err)
	}
}

func TestClosed(t *testing.T) {
	f, _ := Create(filepath.Join(t.TempDir(), "closed.h5f"))
	g, _ := f.CreateGroup("g")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := f.Group("g"); !errors.Is(err, ErrClosed) {
		t.Errorf("Group: got %v, want ErrClosed", err)
	}
	if _, err := g.CreateDataset("x", dtype.Float64, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateDataset: got %v, want ErrClosed", err)
	}
	if err := f.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Flush: got %v, want ErrClosed", err)
	}
}

func TestDiscardKeepsCommittedCatalog(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "discard.h5f")

	f, _ := Create(testFile)
	g, _ := f.CreateGroup("g")
	ds, _ := g.CreateDataset("x", dtype.Float64, 1)
	ds.Append([]float64{1, 2, 3})
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rw, err := OpenReadWrite(testFile)
	if err != nil {
		t.Fatalf("OpenReadWrite failed: %v", err)
	}
	g2, _ := rw.Group("g")
	ds2, _ := g2.Dataset("x")
	if err := ds2.Append([]float64{4, 5}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rw.CreateGroup("other")
	if err := rw.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	ro, err := Open(testFile)
	if err != nil {
		t.Fatalf("Open after discard failed: %v", err)
	}
	defer ro.Close()
	if ro.HasGroup("other") {
		t.Error("discarded group is visible")
	}
	g3, _ := ro.Group("g")
	ds3, _ := g3.Dataset("x")
	if ds3.Rows() != 3 {
		t.Errorf("Rows after discard: got %d, want 3", ds3.Rows())
	}
}

func TestReopenAppendAndGarbage(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "reopen.h5f")

	f, _ := Create(testFile)
	g, _ := f.CreateGroup("g")
	ds, _ := g.CreateDataset("x", dtype.Int64, 2)
	ds.Append([]int64{0, 1, 2, 3})
	f.Close()

	for i := int64(0); i < 3; i++ {
		rw, err := OpenReadWrite(testFile)
		if err != nil {
			t.Fatalf("OpenReadWrite failed: %v", err)
		}
		g, _ := rw.Group("g")
		ds, _ := g.Dataset("x")
		if err := ds.Append([]int64{10 * i, 10*i + 1}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := rw.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		if stats := rw.AllocStats(); stats.GarbageBytes == 0 {
			t.Error("old catalog should be counted as garbage")
		}
		if err := rw.allocator.Validate(); err != nil {
			t.Errorf("allocator: %v", err)
		}
		rw.Close()
	}

	ro, _ := Open(testFile)
	defer ro.Close()
	g2, _ := ro.Group("g")
	ds2, _ := g2.Dataset("x")
	if got := ds2.Shape(); got[0] != 5 || got[1] != 2 {
		t.Errorf("Shape: got %v, want [5 2]", got)
	}
	if ds2.Chunks() != 4 {
		t.Errorf("Chunks: got %d, want 4", ds2.Chunks())
	}
}

func TestCorruptCatalog(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "corrupt.h5f")
	f, _ := Create(testFile)
	f.CreateGroup("g")
	f.Close()

	raw, _ := os.ReadFile(testFile)
	raw[len(raw)-6] ^= 0xFF
	os.WriteFile(testFile, raw, 0o644)

	if _, err := Open(testFile); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Open: got %v, want ErrCorrupt", err)
	}
}
