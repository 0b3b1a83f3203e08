package h5features

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/maruel/ksid"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/dtype"
)

// WriteResult summarizes a successful write.
type WriteResult struct {
	WriteID   string
	Action    Action
	Files     int
	Frames    int
	Chunks    int
	Dim       int
	ChunkRows int

	// Index holds the entries appended for this batch.
	Index []IndexEntry
}

// Writer writes validated requests to a Store.
type Writer struct {
	store Store
	opts  *options
}

// NewWriter returns a writer on store. Format and chunk size options are
// ignored: they are part of the request.
func NewWriter(store Store, opts ...Option) *Writer {
	return &Writer{store: store, opts: newOptions(opts)}
}

// Write decides what to do with req and, unless the decision is Reject,
// streams the batch into the group and commits it. A rejected write
// returns the decision error and leaves the store untouched.
//
// On any other error the store holds uncommitted data and the caller
// should discard it.
func (w *Writer) Write(req *WriteRequest) (*WriteResult, error) {
	id := w.opts.writeID
	if id == "" {
		id = ksid.NewID().String()
	}
	log := w.opts.logger.With("write_id", id, "group", req.Group)

	d, err := Decide(w.store, req)
	if err != nil {
		if d.Action == Reject {
			log.Info("write rejected", "error", err)
		}
		return nil, err
	}
	log.Info("write decided",
		"action", d.Action,
		"files", req.Batch.Len(),
		"frames", req.Frames,
		"dim", req.Dim,
		"chunk_rows", req.ChunkRows,
	)

	if d.Action == Create {
		if err := w.store.CreateGroup(req.Group, d.Schema, w.opts.datasetOptions()...); err != nil {
			return nil, fmt.Errorf("creating group %q: %w", req.Group, err)
		}
	}

	chunks, err := w.writeRows(log, req, d.StartRow)
	if err != nil {
		return nil, err
	}

	index := make([]IndexEntry, req.Batch.Len())
	start := d.StartRow
	for i, f := range req.Batch.Files {
		end := start + req.Batch.Features[i].Rows()
		index[i] = IndexEntry{File: f, Start: start, End: end}
		start = end
	}
	if err := w.store.AppendFileIndex(req.Group, index); err != nil {
		return nil, fmt.Errorf("appending file index: %w", err)
	}
	if err := w.store.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	log.Info("write committed", "action", d.Action, "chunks", chunks, "rows", start)
	return &WriteResult{
		WriteID:   id,
		Action:    d.Action,
		Files:     req.Batch.Len(),
		Frames:    req.Frames,
		Chunks:    chunks,
		Dim:       req.Dim,
		ChunkRows: req.ChunkRows,
		Index:     index,
	}, nil
}

// writeRows streams times and features in chunks of req.ChunkRows rows.
// Only one chunk is staged in memory at a time.
func (w *Writer) writeRows(log *slog.Logger, req *WriteRequest, startRow int) (int, error) {
	b := req.Batch
	offsets := make([]int, len(b.Files)+1)
	for i, m := range b.Features {
		offsets[i+1] = offsets[i] + m.Rows()
	}

	chunks := 0
	for start, end := range RowRanges(req.Frames, req.ChunkRows) {
		times := gather(b.Times, offsets, start, end, req.TimesDim, Matrix.Float64s)
		if err := w.store.ExtendDataset(req.Group, DatasetTimes, times); err != nil {
			return chunks, fmt.Errorf("writing times rows [%d, %d): %w", start, end, err)
		}

		var err error
		switch {
		case req.Format == Sparse && req.Dtype == dtype.Float32:
			err = w.writeSparse(req, gather(b.Features, offsets, start, end, req.Dim, floats32), startRow+start)
		case req.Format == Sparse:
			err = w.writeSparse(req, gather(b.Features, offsets, start, end, req.Dim, floats64), startRow+start)
		case req.Dtype == dtype.Float32:
			err = w.store.ExtendDataset(req.Group, DatasetFeatures, gather(b.Features, offsets, start, end, req.Dim, floats32))
		default:
			err = w.store.ExtendDataset(req.Group, DatasetFeatures, gather(b.Features, offsets, start, end, req.Dim, floats64))
		}
		if err != nil {
			return chunks, fmt.Errorf("writing feature rows [%d, %d): %w", start, end, err)
		}

		chunks++
		log.Debug("chunk written", "start", startRow+start, "end", startRow+end)
	}
	return chunks, nil
}

func (w *Writer) writeSparse(req *WriteRequest, dense any, firstRow int) error {
	var coords []int64
	var values any
	switch v := dense.(type) {
	case []float32:
		coords, values = nonZero(v, req.Dim, firstRow)
	case []float64:
		coords, values = nonZero(v, req.Dim, firstRow)
	}
	if err := w.store.ExtendDataset(req.Group, DatasetFeatures, values); err != nil {
		return err
	}
	return w.store.ExtendDataset(req.Group, DatasetCoordinates, coords)
}

// nonZero returns the (row, column) coordinates and values of the non-zero
// entries of a row-major block whose first row is firstRow.
func nonZero[T float32 | float64](data []T, dim, firstRow int) ([]int64, []T) {
	var coords []int64
	values := make([]T, 0)
	for i, v := range data {
		if v != 0 {
			coords = append(coords, int64(firstRow+i/dim), int64(i%dim))
			values = append(values, v)
		}
	}
	if coords == nil {
		coords = make([]int64, 0)
	}
	return coords, values
}

func floats64(m Matrix) []float64 { return m.Float64 }
func floats32(m Matrix) []float32 { return m.Float32 }

// gather copies rows [start, end) of the concatenation of mats, where
// offsets[i] is the first row of mats[i].
func gather[T any](mats []Matrix, offsets []int, start, end, width int, data func(Matrix) []T) []T {
	out := make([]T, 0, (end-start)*width)
	i := sort.Search(len(mats), func(i int) bool { return offsets[i+1] > start })
	for row := start; row < end; i++ {
		lo := row - offsets[i]
		hi := min(end, offsets[i+1]) - offsets[i]
		out = append(out, data(mats[i])[lo*width:hi*width]...)
		row = offsets[i] + hi
	}
	return out
}

// Write validates the batch, opens or creates the container at path and
// writes the batch into group. Nothing is written when validation or the
// decision fails. When the write itself fails, the container keeps its
// previous content; a container created by this call is removed.
func Write(path, group string, batch FeatureBatch, opts ...Option) (*WriteResult, error) {
	o := newOptions(opts)
	req, err := ValidateWrite(path, group, o.format, o.chunkSize, batch)
	if err != nil {
		return nil, err
	}

	var f *container.File
	created := !container.Exists(path)
	if created {
		f, err = container.Create(path)
	} else {
		f, err = container.OpenReadWrite(path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}

	res, err := NewWriter(NewStore(f), opts...).Write(req)
	if err != nil {
		f.Discard()
		if created {
			os.Remove(path)
		}
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing container: %w", err)
	}
	return res, nil
}
