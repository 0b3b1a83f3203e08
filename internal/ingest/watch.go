package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay unchanged before it is handled.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one input file.
type Handler func(ctx context.Context, path string) error

// Watcher calls a handler for every file created or rewritten in a
// directory. Files are handled one at a time, once no event has been seen
// for them during the settle period.
type Watcher struct {
	Dir     string
	Pattern string
	Settle  time.Duration
	Handler Handler
	Logger  *slog.Logger
}

// Run watches until ctx is done. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	log.Info("watching", "dir", w.Dir, "pattern", w.Pattern)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case now := <-ticker.C:
			for _, path := range settled(pending, now, settle) {
				log.Debug("handling file", "path", path)
				if err := w.Handler(ctx, path); err != nil {
					log.Warn("handling file failed", "path", path, "error", err)
				}
			}
		}
	}
}

func (w *Watcher) matches(path string) bool {
	if w.Pattern == "" {
		return true
	}
	ok, _ := filepath.Match(w.Pattern, filepath.Base(path))
	return ok
}

// settled removes and returns, sorted, the paths last seen at least settle
// before now.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, seen := range pending {
		if now.Sub(seen) >= settle {
			ready = append(ready, path)
			delete(pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}
