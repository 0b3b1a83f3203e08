package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/parquet"
)

func oneFile(name string, frames int) h5features.FeatureBatch {
	var b h5features.FeatureBatch
	rows := make([][]float64, frames)
	times := make([]float64, frames)
	for i := range rows {
		rows[i] = []float64{float64(i), 1}
		times[i] = float64(i)
	}
	b.Add(name, h5features.FromRows(rows), h5features.Vector(times))
	return b
}

func TestLoadAllOrder(t *testing.T) {
	paths := []string{"c", "a", "d", "b", "e"}
	load := func(path string) (h5features.FeatureBatch, error) {
		// Later paths finish first.
		time.Sleep(time.Duration(len(paths)-int(path[0]-'a')) * time.Millisecond)
		return oneFile(path, 2), nil
	}
	b, err := LoadAll(context.Background(), paths, 3, load)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if b.Len() != len(paths) {
		t.Fatalf("got %d files", b.Len())
	}
	for i, p := range paths {
		if b.Files[i] != p {
			t.Errorf("Files[%d] = %q, want %q", i, b.Files[i], p)
		}
	}
}

func TestLoadAllError(t *testing.T) {
	boom := errors.New("boom")
	load := func(path string) (h5features.FeatureBatch, error) {
		if path == "bad" {
			return h5features.FeatureBatch{}, boom
		}
		return oneFile(path, 1), nil
	}
	_, err := LoadAll(context.Background(), []string{"a", "bad", "c"}, 1, load)
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
}

func TestLoadAllParquet(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"x", "y"} {
		p := filepath.Join(dir, name+".parquet")
		if err := parquet.WriteBatch(p, oneFile(name, 3), parquet.DefaultOptions()); err != nil {
			t.Fatalf("WriteBatch failed: %v", err)
		}
		paths = append(paths, p)
	}
	b, err := LoadAll(context.Background(), paths, 0, nil)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if b.Len() != 2 || b.Frames() != 6 || b.Files[1] != "y" {
		t.Errorf("got files %v, %d frames", b.Files, b.Frames())
	}
}

func TestMerge(t *testing.T) {
	b := Merge(oneFile("a", 1), h5features.FeatureBatch{}, oneFile("b", 2))
	if b.Len() != 2 || b.Frames() != 3 {
		t.Errorf("got %d files, %d frames", b.Len(), b.Frames())
	}
}

func TestSettled(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b": now.Add(-time.Second),
		"a": now.Add(-2 * time.Second),
		"c": now,
	}
	got := settled(pending, now, time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("settled = %v", got)
	}
	if _, ok := pending["c"]; !ok || len(pending) != 1 {
		t.Errorf("pending = %v", pending)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	var handled []string
	done := make(chan struct{}, 4)

	w := &Watcher{
		Dir:     dir,
		Pattern: "*.parquet",
		Settle:  50 * time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Handler: func(ctx context.Context, path string) error {
			mu.Lock()
			handled = append(handled, filepath.Base(path))
			mu.Unlock()
			done <- struct{}{}
			return errors.New("handler errors are logged")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in.parquet"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}
	// Let a second, unexpected call surface.
	time.Sleep(200 * time.Millisecond)
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != "in.parquet" {
		t.Errorf("handled = %v", handled)
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "missing"), Handler: func(context.Context, string) error { return nil }}
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
