package h5features

import (
	"errors"
	"fmt"
)

// Validation and decision errors.
var (
	ErrNotAContainer       = errors.New("not a container file")
	ErrInvalidFormat       = errors.New("invalid format: must be dense or sparse")
	ErrChunkBudgetTooSmall = errors.New("chunk size below 8KiB")
	ErrEmptyBatch          = errors.New("batch must be non-empty")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrMalformedInput      = errors.New("malformed input")
	ErrInvalidGroup        = errors.New("invalid group name")
	ErrDuplicateFile       = errors.New("duplicate file")
	ErrTimesMismatch       = errors.New("times do not match features")
)

// Read errors.
var (
	ErrCorruptIndex = errors.New("corrupt file index")
	ErrFileNotFound = errors.New("file not found in group")
)

// DimensionMismatchError reports features whose width disagrees with the
// batch or with the group they are written to.
type DimensionMismatchError struct {
	// Group is set when the batch is compared to a stored schema.
	Group string

	// File and Shape identify the offending matrix inside a batch.
	File  string
	Shape []int

	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("dimension mismatch: group %q has dim %d, batch has dim %d", e.Group, e.Expected, e.Got)
	}
	return fmt.Sprintf("files do not have the same feature dimension: expected %d, %q has shape %v", e.Expected, e.File, e.Shape)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// SchemaMismatchError reports a disagreement on format, dtype, version,
// times width or dataset names.
type SchemaMismatchError struct {
	// Group is set when the batch is compared to a stored schema,
	// File when one matrix disagrees with the rest of the batch.
	Group string
	File  string

	Field    string
	Expected string
	Got      string
}

func (e *SchemaMismatchError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("schema mismatch: %q has %s %s, expected %s", e.File, e.Field, e.Got, e.Expected)
	}
	return fmt.Sprintf("schema mismatch: group %q has %s %s, batch has %s", e.Group, e.Field, e.Expected, e.Got)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// MalformedInputError reports input that is not structurally valid.
// It is returned as is, never wrapped.
type MalformedInputError struct {
	// File is empty and Index is -1 when the batch itself is malformed.
	File   string
	Index  int
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Index < 0 {
		return "malformed input: " + e.Reason
	}
	return fmt.Sprintf("malformed input: file %d (%q): %s", e.Index, e.File, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

var validationErrors = []error{
	ErrNotAContainer,
	ErrInvalidFormat,
	ErrChunkBudgetTooSmall,
	ErrEmptyBatch,
	ErrDimensionMismatch,
	ErrSchemaMismatch,
	ErrInvalidGroup,
	ErrDuplicateFile,
	ErrTimesMismatch,
}

// IsValidation reports whether err is a semantic validation or decision
// failure, as opposed to malformed input or a runtime error.
func IsValidation(err error) bool {
	if err == nil || errors.Is(err, ErrMalformedInput) {
		return false
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
