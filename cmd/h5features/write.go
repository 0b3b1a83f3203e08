package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/config"
	"github.com/14thibea/h5features/internal/ingest"
	"github.com/14thibea/h5features/internal/logging"
	"github.com/14thibea/h5features/internal/stats"
)

// writeFlags are the flags of the commands that write.
type writeFlags struct {
	*common
	output      string
	group       string
	format      string
	chunkSize   string
	codec       string
	compression int
	workers     int
}

func newWriteFlags(name string) *writeFlags {
	w := &writeFlags{common: newCommon(name)}
	w.fs.StringVar(&w.output, "o", "", "Output container file")
	w.fs.StringVar(&w.group, "g", "", "Feature group (default from config: features)")
	w.fs.StringVar(&w.format, "format", "", "Storage format of a new group (dense, sparse)")
	w.fs.StringVar(&w.chunkSize, "chunk-size", "", "Memory budget of one write chunk, e.g. 0.1MB")
	w.fs.StringVar(&w.codec, "codec", "", "Compression codec of a new group (deflate, zstd)")
	w.fs.IntVar(&w.compression, "compression", 0, "Compression level of a new group, 0 disables")
	w.fs.IntVar(&w.workers, "workers", 0, "Input files loaded in parallel")
	return w
}

// load returns the configuration with the command line flags applied.
func (w *writeFlags) load() (*config.Config, error) {
	cfg, err := w.common.load()
	if err != nil {
		return nil, err
	}
	set := w.set()
	if set["o"] {
		cfg.Output = w.output
	}
	if set["g"] {
		cfg.Group = w.group
	}
	if set["format"] {
		cfg.Format = w.format
	}
	if set["chunk-size"] {
		cfg.ChunkSize = w.chunkSize
	}
	if set["codec"] {
		cfg.Compression.Algorithm = w.codec
	}
	if set["compression"] {
		cfg.Compression.Level = w.compression
		switch {
		case w.compression == 0:
			cfg.Compression.Algorithm = "none"
		case cfg.Compression.Algorithm == "none" || cfg.Compression.Algorithm == "":
			cfg.Compression.Algorithm = "deflate"
		}
	}
	if set["workers"] {
		cfg.Ingest.Workers = w.workers
	}
	if cfg.Output == "" {
		return nil, errors.New("no output file, use -o or set output in the config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWrite(ctx context.Context, args []string, stdout io.Writer) error {
	w := newWriteFlags("write")
	if err := w.fs.Parse(args); err != nil {
		return err
	}
	cfg, err := w.load()
	if err != nil {
		return err
	}
	if w.fs.NArg() == 0 {
		return errors.New("no input files")
	}

	log := logging.Component("write")
	batch, err := ingest.LoadAll(ctx, w.fs.Args(), cfg.Ingest.Workers, nil)
	if err != nil {
		return err
	}
	res, err := writeBatch(cfg, batch, log)
	if err != nil {
		return err
	}
	return report(stdout, cfg, res)
}

// writeBatch writes batch as configured by cfg.
func writeBatch(cfg *config.Config, batch h5features.FeatureBatch, log *slog.Logger) (*h5features.WriteResult, error) {
	opts, err := cfg.WriteOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, h5features.WithLogger(log))
	return h5features.Write(cfg.Output, cfg.Group, batch, opts...)
}

// report prints one line describing a successful write.
func report(w io.Writer, cfg *config.Config, res *h5features.WriteResult) error {
	counts := make([]int, len(res.Index))
	for i, e := range res.Index {
		counts[i] = e.End - e.Start
	}
	summary, err := stats.Summarize(counts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %s:/%s dim=%d chunks=%d: %s\n",
		res.Action, cfg.Output, cfg.Group, res.Dim, res.Chunks, summary)
	return err
}
