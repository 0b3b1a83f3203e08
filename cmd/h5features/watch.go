package main

import (
	"context"
	"errors"
	"io"

	"github.com/14thibea/h5features/internal/ingest"
	"github.com/14thibea/h5features/internal/logging"
)

func runWatch(ctx context.Context, args []string, stdout io.Writer) error {
	w := newWriteFlags("watch")
	dir := w.fs.String("dir", "", "Directory to watch")
	pattern := w.fs.String("pattern", "", "Input file pattern (default from config: *.parquet)")
	if err := w.fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("no directory, use -dir")
	}
	cfg, err := w.load()
	if err != nil {
		return err
	}
	if *pattern != "" {
		cfg.Ingest.Pattern = *pattern
		if err := cfg.Ingest.Validate(); err != nil {
			return err
		}
	}

	log := logging.Component("watch")
	watcher := &ingest.Watcher{
		Dir:     *dir,
		Pattern: cfg.Ingest.Pattern,
		Logger:  log,
		Handler: func(ctx context.Context, path string) error {
			batch, err := ingest.LoadAll(ctx, []string{path}, 1, nil)
			if err != nil {
				return err
			}
			res, err := writeBatch(cfg, batch, log.With("input", path))
			if err != nil {
				return err
			}
			return report(stdout, cfg, res)
		},
	}
	return watcher.Run(ctx)
}
