package h5features

import (
	"log/slog"

	"github.com/14thibea/h5features/container"
)

// Option configures Write and NewWriter.
type Option func(*options)

type options struct {
	format      Format
	chunkSize   int64
	compression int
	zstd        int
	logger      *slog.Logger
	writeID     string
}

func newOptions(opts []Option) *options {
	o := &options{
		format:    Dense,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithFormat sets the storage format of a new group (default Dense).
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithChunkSize sets the chunk budget in bytes (default DefaultChunkSize).
func WithChunkSize(bytes int64) Option {
	return func(o *options) {
		o.chunkSize = bytes
	}
}

// WithCompression enables shuffle and deflate at level 1-9 on new groups.
// 0 disables compression.
func WithCompression(level int) Option {
	return func(o *options) {
		o.compression = level
	}
}

// WithZstd enables shuffle and zstd at level 1-22 on new groups. It takes
// precedence over WithCompression.
func WithZstd(level int) Option {
	return func(o *options) {
		o.zstd = level
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithWriteID sets the identifier attached to log records of the write.
// A random ksid is used by default.
func WithWriteID(id string) Option {
	return func(o *options) {
		o.writeID = id
	}
}

// datasetOptions returns the container options for datasets of new groups.
// Chunks always carry a fletcher32 checksum.
func (o *options) datasetOptions() []container.DatasetOption {
	opts := []container.DatasetOption{container.WithFletcher32()}
	switch {
	case o.zstd > 0:
		opts = append(opts, container.WithShuffle(), container.WithZstd(o.zstd))
	case o.compression > 0:
		opts = append(opts, container.WithShuffle(), container.WithCompression(o.compression))
	}
	return opts
}
