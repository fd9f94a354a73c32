// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"errors"
	"fmt"
)

var (
	ErrAllocation        = errors.New("unable to allocate fill buffer")
	ErrInvalidVolumeSpec = errors.New("invalid volume specification")
)

type WriteErrorKind int8

const (
	WriteCreate WriteErrorKind = iota
	WriteShort
	WriteClose
)

func (k WriteErrorKind) String() string {
	switch k {
	case WriteCreate:
		return "create"
	case WriteShort:
		return "short write"
	case WriteClose:
		return "close"
	default:
		return fmt.Sprintf("WriteErrorKind(%d)", int8(k))
	}
}

// WriteError is returned when a single artifact file could not be created,
// written in full, or closed.
type WriteError struct {
	Kind WriteErrorKind
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s failed for '%s': %v", e.Kind, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func IsWriteErrorKind(err error, kind WriteErrorKind) bool {
	var writeErr *WriteError
	return errors.As(err, &writeErr) && writeErr.Kind == kind
}
