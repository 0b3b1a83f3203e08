package h5features

import (
	"fmt"
	"strings"
)

// Format is the storage layout of a group's features.
type Format uint8

const (
	FormatInvalid Format = iota
	Dense
	Sparse
)

// Dataset names.
const (
	DatasetFiles       = "files"
	DatasetTimes       = "times"
	DatasetFeatures    = "features"
	DatasetFileIndex   = "file_index"
	DatasetCoordinates = "coordinates"
)

// ParseFormat returns the format named by s ("dense" or "sparse").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	}
	return FormatInvalid, fmt.Errorf("%w: got %q", ErrInvalidFormat, s)
}

func (f Format) String() string {
	switch f {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Valid reports whether f is Dense or Sparse.
func (f Format) Valid() bool {
	return f == Dense || f == Sparse
}

// Datasets returns the sorted dataset names of a group in this format.
func (f Format) Datasets() []string {
	switch f {
	case Dense:
		return []string{DatasetFeatures, DatasetFileIndex, DatasetFiles, DatasetTimes}
	case Sparse:
		return []string{DatasetCoordinates, DatasetFeatures, DatasetFileIndex, DatasetFiles, DatasetTimes}
	}
	return nil
}
