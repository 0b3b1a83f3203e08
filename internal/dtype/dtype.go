// Package dtype defines the element types a dataset can hold and converts
// between Go slices and their on-disk encoding.
//
// Numeric elements are stored little-endian with a fixed size. Strings are
// stored as a uint32 byte length followed by the bytes, so a string block
// has no fixed element size.
package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Dtype identifies an element type.
type Dtype uint8

const (
	Invalid Dtype = iota
	Float32
	Float64
	Int64
	String
)

// ErrUnsupported is returned for Go values or type names with no Dtype.
var ErrUnsupported = errors.New("unsupported element type")

// String returns the numpy-style type name.
func (d Dtype) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case String:
		return "str"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// Size returns the element size in bytes, or 0 for variable-size strings.
func (d Dtype) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64, Int64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether d is a known type.
func (d Dtype) Valid() bool {
	return d >= Float32 && d <= String
}

// Parse returns the Dtype named by s.
func Parse(s string) (Dtype, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "int64":
		return Int64, nil
	case "str":
		return String, nil
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Of returns the Dtype of a supported slice value and its length.
func Of(data any) (Dtype, int, error) {
	switch v := data.(type) {
	case []float32:
		return Float32, len(v), nil
	case []float64:
		return Float64, len(v), nil
	case []int64:
		return Int64, len(v), nil
	case []string:
		return String, len(v), nil
	}
	return Invalid, 0, fmt.Errorf("%w: %T", ErrUnsupported, data)
}

// Encode converts a slice of the given type to its byte encoding.
func Encode(dt Dtype, data any) ([]byte, error) {
	got, n, err := Of(data)
	if err != nil {
		return nil, err
	}
	if got != dt {
		return nil, fmt.Errorf("encoding %s data as %s", got, dt)
	}

	le := binary.LittleEndian
	switch v := data.(type) {
	case []float32:
		out := make([]byte, 4*n)
		for i, x := range v {
			le.PutUint32(out[4*i:], math.Float32bits(x))
		}
		return out, nil
	case []float64:
		out := make([]byte, 8*n)
		for i, x := range v {
			le.PutUint64(out[8*i:], math.Float64bits(x))
		}
		return out, nil
	case []int64:
		out := make([]byte, 8*n)
		for i, x := range v {
			le.PutUint64(out[8*i:], uint64(x))
		}
		return out, nil
	default:
		strs := data.([]string)
		size := 0
		for _, s := range strs {
			size += 4 + len(s)
		}
		out := make([]byte, 0, size)
		for _, s := range strs {
			out = le.AppendUint32(out, uint32(len(s)))
			out = append(out, s...)
		}
		return out, nil
	}
}

// Decode converts n encoded elements back to a Go slice
// ([]float32, []float64, []int64 or []string).
func Decode(dt Dtype, raw []byte, n int) (any, error) {
	if size := dt.Size(); size > 0 && len(raw) != n*size {
		return nil, fmt.Errorf("decoding %d %s elements: have %d bytes, want %d", n, dt, len(raw), n*size)
	}

	le := binary.LittleEndian
	switch dt {
	case Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case String:
		out := make([]string, 0, n)
		for len(out) < n {
			if len(raw) < 4 {
				return nil, fmt.Errorf("decoding string %d: truncated length", len(out))
			}
			l := int(le.Uint32(raw))
			if len(raw) < 4+l {
				return nil, fmt.Errorf("decoding string %d: truncated value", len(out))
			}
			out = append(out, string(raw[4:4+l]))
			raw = raw[4+l:]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, dt)
}
