package parquet

import (
	"fmt"

	"github.com/14thibea/h5features/h5features"
)

// FeatureRow is one frame of one source file.
type FeatureRow struct {
	File     string    `parquet:"file,dict"`
	Time     float64   `parquet:"time"`
	TimeEnd  *float64  `parquet:"time_end,optional"`
	Features []float64 `parquet:"features,list"`
}

// ReadBatch reads the feature batch stored in the Parquet file at path.
// Feature rows of unequal length are kept as is; the write validation
// reports them.
func ReadBatch(path string) (h5features.FeatureBatch, error) {
	rows, err := readAll[FeatureRow](path)
	if err != nil {
		return h5features.FeatureBatch{}, fmt.Errorf("%s: %w", path, err)
	}
	batch, err := ToBatch(rows)
	if err != nil {
		return h5features.FeatureBatch{}, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

// WriteBatch writes batch to a new Parquet file at path.
func WriteBatch(path string, batch h5features.FeatureBatch, opts Options) error {
	rows, err := FromBatch(batch)
	if err != nil {
		return err
	}
	return writeAll(path, rows, opts)
}

// ToBatch groups contiguous rows by file. Files with an end time on every
// row get 2-D times (begin, end); other files get 1-D times.
func ToBatch(rows []FeatureRow) (h5features.FeatureBatch, error) {
	var batch h5features.FeatureBatch
	seen := make(map[string]bool)

	for start := 0; start < len(rows); {
		file := rows[start].File
		if seen[file] {
			return batch, fmt.Errorf("file %q: %w", file, ErrNotContiguous)
		}
		seen[file] = true

		end := start
		for end < len(rows) && rows[end].File == file {
			end++
		}
		times, err := collectTimes(rows[start:end])
		if err != nil {
			return batch, fmt.Errorf("file %q: %w", file, err)
		}
		features := make([][]float64, end-start)
		for i, r := range rows[start:end] {
			features[i] = r.Features
		}
		batch.Add(file, h5features.FromRows(features), times)
		start = end
	}
	return batch, nil
}

func collectTimes(rows []FeatureRow) (h5features.Matrix, error) {
	withEnd := 0
	for _, r := range rows {
		if r.TimeEnd != nil {
			withEnd++
		}
	}
	switch withEnd {
	case 0:
		v := make([]float64, len(rows))
		for i, r := range rows {
			v[i] = r.Time
		}
		return h5features.Vector(v), nil
	case len(rows):
		intervals := make([][]float64, len(rows))
		for i, r := range rows {
			intervals[i] = []float64{r.Time, *r.TimeEnd}
		}
		return h5features.FromRows(intervals), nil
	}
	return h5features.Matrix{}, ErrMixedTimes
}

// FromBatch flattens batch into one row per frame. Float32 features and
// times are widened to float64. Malformed matrices are reported as errors.
func FromBatch(batch h5features.FeatureBatch) ([]FeatureRow, error) {
	if len(batch.Features) != len(batch.Files) || len(batch.Times) != len(batch.Files) {
		return nil, fmt.Errorf("%d files, %d feature matrices and %d times arrays",
			len(batch.Files), len(batch.Features), len(batch.Times))
	}
	var rows []FeatureRow
	for i, file := range batch.Files {
		feats, times := batch.Features[i], batch.Times[i]
		if err := feats.Check(2, 2); err != nil {
			return nil, fmt.Errorf("file %q: features %w", file, err)
		}
		if err := times.Check(1, 2); err != nil {
			return nil, fmt.Errorf("file %q: times %w", file, err)
		}
		n, dim, tdim := feats.Rows(), feats.Cols(), times.Cols()
		if times.Rows() != n {
			return nil, fmt.Errorf("file %q: %d frames but %d timestamps", file, n, times.Rows())
		}
		fv, tv := feats.Float64s(), times.Float64s()
		for r := 0; r < n; r++ {
			row := FeatureRow{File: file, Time: tv[r*tdim], Features: make([]float64, dim)}
			if tdim == 2 {
				end := tv[r*tdim+1]
				row.TimeEnd = &end
			}
			copy(row.Features, fv[r*dim:(r+1)*dim])
			rows = append(rows, row)
		}
	}
	return rows, nil
}
