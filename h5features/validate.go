package h5features

import (
	"errors"
	"fmt"
	"strings"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/dtype"
)

// WriteRequest is a validated write. The derived fields are filled by
// ValidateWrite.
type WriteRequest struct {
	Path      string
	Group     string
	Format    Format
	ChunkSize int64
	Batch     FeatureBatch

	Dim       int
	Dtype     dtype.Dtype
	TimesDim  int
	ChunkRows int
	Frames    int
}

// ValidateWrite checks a write request before anything is written:
// the target container, the group name, the format, the chunk budget and
// the batch itself. It returns the request with the feature dimension,
// element type, times width and chunk row count derived from the batch.
//
// Structural problems in the batch are returned as an unwrapped
// *MalformedInputError. Every other failure wraps one of the validation
// sentinels.
func ValidateWrite(path, group string, format Format, chunkSize int64, batch FeatureBatch) (*WriteRequest, error) {
	if err := container.Probe(path); err != nil && !errors.Is(err, container.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAContainer, path, err)
	}
	if group == "" || strings.ContainsAny(group, "/@") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidFormat, format)
	}
	if chunkSize < MinChunkSize {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrChunkBudgetTooSmall, chunkSize, MinChunkSize)
	}

	req := &WriteRequest{
		Path:      path,
		Group:     group,
		Format:    format,
		ChunkSize: chunkSize,
		Batch:     batch,
	}
	if err := checkBatch(req); err != nil {
		return nil, err
	}
	req.ChunkRows = PlanChunkRows(req.Dim, req.Dtype.Size(), chunkSize)
	return req, nil
}

// checkBatch validates the batch and fills Dim, Dtype, TimesDim and Frames.
func checkBatch(req *WriteRequest) error {
	b := req.Batch
	if len(b.Files) == 0 {
		return ErrEmptyBatch
	}
	if len(b.Features) != len(b.Files) || len(b.Times) != len(b.Files) {
		return &MalformedInputError{
			Index:  -1,
			Reason: fmt.Sprintf("%d files, %d feature matrices and %d times arrays", len(b.Files), len(b.Features), len(b.Times)),
		}
	}

	seen := make(map[string]struct{}, len(b.Files))
	for i, name := range b.Files {
		if name == "" {
			return &MalformedInputError{Index: i, Reason: "empty file name"}
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q appears twice in the batch", ErrDuplicateFile, name)
		}
		seen[name] = struct{}{}
	}

	// Empty files first, whatever their shape. Then structure, so that
	// malformed input is never reported as a semantic error.
	for i, m := range b.Features {
		if m.empty() {
			return fmt.Errorf("%w: %q has no frames (shape %v)", ErrEmptyBatch, b.Files[i], m.Shape)
		}
	}
	for i, m := range b.Features {
		if reason := m.structure(2, 2); reason != "" {
			return &MalformedInputError{File: b.Files[i], Index: i, Reason: "features " + reason}
		}
		if reason := b.Times[i].structure(1, 2); reason != "" {
			return &MalformedInputError{File: b.Files[i], Index: i, Reason: "times " + reason}
		}
	}

	first := b.Features[0]
	req.Dim = first.Cols()
	req.Dtype = first.Dtype()
	for i, m := range b.Features {
		if m.Cols() != req.Dim {
			return &DimensionMismatchError{File: b.Files[i], Shape: m.Shape, Expected: req.Dim, Got: m.Cols()}
		}
		if m.Dtype() != req.Dtype {
			return &SchemaMismatchError{File: b.Files[i], Field: "dtype", Expected: req.Dtype.String(), Got: m.Dtype().String()}
		}
	}

	req.TimesDim = b.Times[0].Cols()
	req.Frames = 0
	for i, t := range b.Times {
		frames := b.Features[i].Rows()
		switch {
		case t.Cols() != 1 && t.Cols() != 2:
			return fmt.Errorf("%w: %q times have shape %v, want (frames,) or (frames, 2)", ErrTimesMismatch, b.Files[i], t.Shape)
		case t.Rows() != frames:
			return fmt.Errorf("%w: %q has %d timestamps for %d frames", ErrTimesMismatch, b.Files[i], t.Rows(), frames)
		case t.Cols() != req.TimesDim:
			return fmt.Errorf("%w: %q times have width %d, batch has %d", ErrTimesMismatch, b.Files[i], t.Cols(), req.TimesDim)
		}
		req.Frames += frames
	}
	return nil
}
