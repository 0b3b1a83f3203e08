// Package container stores named groups of extendable, chunked datasets in a
// single file.
//
// A container file starts with a superblock that locates the catalog: the
// list of groups, their attributes and their datasets. Dataset rows live in
// chunks, one per [Dataset.Append] call, each passed through the dataset's
// filter pipeline. New chunks are always written past the committed end of
// file and the catalog is only rewritten by [File.Flush] or [File.Close], so
// readers never observe a half-finished write.
package container

import "errors"

// Common errors
var (
	ErrNotContainer = errors.New("not a container file")
	ErrNotFound     = errors.New("object not found")
	ErrExists       = errors.New("object already exists")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is opened read-only")
	ErrCorrupt      = errors.New("container is corrupt")
	ErrInvalidName  = errors.New("invalid name")
	ErrTypeMismatch = errors.New("element type mismatch")
	ErrShape        = errors.New("data does not fit dataset shape")
)
