// Package parquet reads feature batches from Parquet files and exports
// file indexes to Parquet.
//
// An input file holds one row per frame. Rows of the same source file
// must be contiguous; their order is the frame order.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
)

var (
	// ErrNotContiguous is returned when the rows of a file are interleaved
	// with rows of another file.
	ErrNotContiguous = errors.New("rows of a file are not contiguous")

	// ErrMixedTimes is returned when only some rows of a file carry an end
	// time.
	ErrMixedTimes = errors.New("time_end set on some rows only")
)

// Options configures the Parquet writers.
type Options struct {
	// Compression is one of none, snappy, zstd, lz4, gzip.
	Compression string
}

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{Compression: "zstd"}
}

// Codec returns the parquet-go codec named name. Unknown names select zstd.
func Codec(name string) compress.Codec {
	switch name {
	case "none", "":
		return &parquet.Uncompressed
	case "snappy":
		return &parquet.Snappy
	case "lz4":
		return &parquet.Lz4Raw
	case "gzip":
		return &parquet.Gzip
	default:
		return &parquet.Zstd
	}
}

// readAll reads every row of a Parquet file.
func readAll[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f, parquet.ReadBufferSize(1024*1024))
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n := 0
	for n < len(rows) {
		m, err := reader.Read(rows[n:])
		n += m
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
		if m == 0 {
			return nil, fmt.Errorf("read rows: %w", io.ErrUnexpectedEOF)
		}
	}
	return rows[:n], nil
}

// writeAll writes rows to a new Parquet file at path.
func writeAll[T any](path string, rows []T, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](f, parquet.Compression(Codec(opts.Compression)))
	if _, err := writer.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Close()
}
