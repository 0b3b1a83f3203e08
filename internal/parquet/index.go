package parquet

import (
	"fmt"

	"github.com/14thibea/h5features/h5features"
)

// IndexRow is one file index entry of a group.
type IndexRow struct {
	Group string `parquet:"group,dict"`
	File  string `parquet:"file,zstd"`
	Start int64  `parquet:"start"`
	End   int64  `parquet:"end"`
}

// WriteIndex writes the file index of group to a new Parquet file.
func WriteIndex(path, group string, entries []h5features.IndexEntry, opts Options) error {
	rows := make([]IndexRow, len(entries))
	for i, e := range entries {
		rows[i] = IndexRow{Group: group, File: e.File, Start: int64(e.Start), End: int64(e.End)}
	}
	if err := writeAll(path, rows, opts); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadIndex reads a file index written by WriteIndex.
func ReadIndex(path string) ([]IndexRow, error) {
	rows, err := readAll[IndexRow](path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
