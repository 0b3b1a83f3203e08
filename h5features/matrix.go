package h5features

import (
	"errors"
	"fmt"

	"github.com/14thibea/h5features/internal/dtype"
)

// Matrix is a dense numeric array: a shape plus flat row-major data in
// exactly one of Float64 or Float32.
type Matrix struct {
	Shape   []int
	Float64 []float64
	Float32 []float32
}

// FromRows builds a 2-D float64 matrix. Rows of unequal length produce a
// matrix that validation rejects as malformed.
func FromRows(rows [][]float64) Matrix {
	m := Matrix{Shape: []int{len(rows), 0}, Float64: make([]float64, 0)}
	if len(rows) > 0 {
		m.Shape[1] = len(rows[0])
	}
	for _, r := range rows {
		m.Float64 = append(m.Float64, r...)
	}
	return m
}

// FromRows32 is FromRows for float32 data.
func FromRows32(rows [][]float32) Matrix {
	m := Matrix{Shape: []int{len(rows), 0}, Float32: make([]float32, 0)}
	if len(rows) > 0 {
		m.Shape[1] = len(rows[0])
	}
	for _, r := range rows {
		m.Float32 = append(m.Float32, r...)
	}
	return m
}

// Vector builds a 1-D float64 array, typically frame timestamps.
func Vector(v []float64) Matrix {
	return Matrix{Shape: []int{len(v)}, Float64: v}
}

// Dtype returns the element type, or dtype.Invalid when the matrix holds
// no data slice or both.
func (m Matrix) Dtype() dtype.Dtype {
	switch {
	case m.Float64 != nil && m.Float32 == nil:
		return dtype.Float64
	case m.Float32 != nil && m.Float64 == nil:
		return dtype.Float32
	}
	return dtype.Invalid
}

// Len returns the number of stored elements.
func (m Matrix) Len() int {
	if m.Float64 != nil {
		return len(m.Float64)
	}
	return len(m.Float32)
}

// Rows returns the first dimension.
func (m Matrix) Rows() int {
	if len(m.Shape) == 0 {
		return 0
	}
	return m.Shape[0]
}

// Cols returns the second dimension, 1 for a 1-D array.
func (m Matrix) Cols() int {
	if len(m.Shape) < 2 {
		return 1
	}
	return m.Shape[1]
}

// empty reports whether m holds no elements and its shape agrees. A
// matrix whose shape promises elements it does not hold is malformed, not
// empty.
func (m Matrix) empty() bool {
	if m.Len() != 0 {
		return false
	}
	for _, d := range m.Shape {
		if d == 0 {
			return true
		}
	}
	return len(m.Shape) == 0
}

// Check returns an error describing what makes m unusable as an array of
// minDims to maxDims dimensions.
func (m Matrix) Check(minDims, maxDims int) error {
	if reason := m.structure(minDims, maxDims); reason != "" {
		return errors.New(reason)
	}
	return nil
}

// structure describes what makes m unusable as an array of 1 to maxDims
// dimensions, or returns "" when m is well formed.
func (m Matrix) structure(minDims, maxDims int) string {
	if m.Dtype() == dtype.Invalid {
		if m.Float64 != nil {
			return "holds both float64 and float32 data"
		}
		return "holds no data"
	}
	if len(m.Shape) < minDims || len(m.Shape) > maxDims {
		if minDims == maxDims {
			return fmt.Sprintf("cannot be read as %d-D: shape %v", minDims, m.Shape)
		}
		return fmt.Sprintf("cannot be read as %d-D or %d-D: shape %v", minDims, maxDims, m.Shape)
	}
	n := 1
	for _, d := range m.Shape {
		if d < 0 {
			return fmt.Sprintf("negative dimension in shape %v", m.Shape)
		}
		n *= d
	}
	if n != m.Len() {
		return fmt.Sprintf("shape %v does not match %d elements", m.Shape, m.Len())
	}
	return ""
}

// Float64s returns the data as float64, converting float32 data.
func (m Matrix) Float64s() []float64 {
	if m.Float64 != nil {
		return m.Float64
	}
	out := make([]float64, len(m.Float32))
	for i, v := range m.Float32 {
		out[i] = float64(v)
	}
	return out
}

// FeatureBatch holds the features and timestamps of several files.
// Files[i], Features[i] and Times[i] describe the same file.
type FeatureBatch struct {
	Files    []string
	Features []Matrix
	Times    []Matrix
}

// Add appends one file to the batch.
func (b *FeatureBatch) Add(file string, features, times Matrix) {
	b.Files = append(b.Files, file)
	b.Features = append(b.Features, features)
	b.Times = append(b.Times, times)
}

// Len returns the number of files.
func (b *FeatureBatch) Len() int {
	return len(b.Files)
}

// Frames returns the total number of feature rows.
func (b *FeatureBatch) Frames() int {
	n := 0
	for _, m := range b.Features {
		n += m.Rows()
	}
	return n
}
