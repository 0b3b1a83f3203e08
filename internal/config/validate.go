package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/logging"
)

// Validate checks the configuration for errors. Errors are wrapped in
// "validate config".
// Group name and chunk budget limits are checked when the write is
// validated, so that they are reported like any other rejected write.
func (c *Config) Validate() error {
	var errs []error

	if _, err := h5features.ParseFormat(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	if _, err := h5features.ParseByteSize(c.ChunkSize); err != nil {
		errs = append(errs, fmt.Errorf("chunk_size: %w", err))
	}
	if err := c.Compression.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if err := c.Ingest.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ingest: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validate config: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks the compression configuration.
func (c *CompressionConfig) Validate() error {
	switch c.Algorithm {
	case "none", "":
		return nil
	case "deflate":
		if c.Level < 1 || c.Level > 9 {
			return fmt.Errorf("deflate level must be 1-9, got %d", c.Level)
		}
	case "zstd":
		if c.Level < 1 || c.Level > 22 {
			return fmt.Errorf("zstd level must be 1-22, got %d", c.Level)
		}
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
	return nil
}

// Validate checks the ingest configuration.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if _, err := filepath.Match(c.Pattern, "x"); err != nil {
		errs = append(errs, fmt.Errorf("pattern: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WriteOptions converts the configuration to write options.
func (c *Config) WriteOptions() ([]h5features.Option, error) {
	format, err := h5features.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	size, err := h5features.ParseByteSize(c.ChunkSize)
	if err != nil {
		return nil, err
	}
	opts := []h5features.Option{h5features.WithFormat(format), h5features.WithChunkSize(size)}
	switch c.Compression.Algorithm {
	case "deflate":
		opts = append(opts, h5features.WithCompression(c.Compression.Level))
	case "zstd":
		opts = append(opts, h5features.WithZstd(c.Compression.Level))
	}
	return opts, nil
}
