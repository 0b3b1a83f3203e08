package container

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/14thibea/h5features/internal/dtype"
)

func TestWalk(t *testing.T) {
	f, _ := Create(filepath.Join(t.TempDir(), "walk.h5f"))
	defer f.Close()

	for _, name := range []string{"b", "a"} {
		g, _ := f.CreateGroup(name)
		g.CreateDataset("times", dtype.Float64, 1)
		g.CreateDataset("features", dtype.Float32, 4)
	}

	var paths []string
	var datasets int
	err := Walk(f, func(path string, obj any, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		if _, ok := obj.(*Dataset); ok {
			datasets++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/a", "/a/features", "/a/times", "/b", "/b/features", "/b/times"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths: got %v, want %v", paths, want)
	}
	if datasets != 4 {
		t.Errorf("datasets: got %d, want 4", datasets)
	}
}

func TestWalkStop(t *testing.T) {
	f, _ := Create(filepath.Join(t.TempDir(), "stop.h5f"))
	defer f.Close()
	f.CreateGroup("a")
	f.CreateGroup("b")

	stop := errors.New("stop")
	visited := 0
	err := Walk(f, func(string, any, error) error {
		visited++
		return stop
	})
	if !errors.Is(err, stop) || visited != 1 {
		t.Errorf("got err=%v visited=%d", err, visited)
	}
}
