// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"io"
	"os"
)

// File is the subset of *os.File used by the writers.
type File interface {
	io.Writer
	io.Closer
	Truncate(size int64) error
}

// CreateFunc creates or truncates the file at path for writing.
type CreateFunc func(path string) (File, error)

func CreateFile(path string) (File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// WriteBlockFile writes buf to a freshly created file at path and closes it.
func WriteBlockFile(path string, buf []byte) error {
	return writeBlockFile(CreateFile, path, buf)
}

func writeBlockFile(create CreateFunc, path string, buf []byte) error {
	file, err := create(path)
	if err != nil {
		return &WriteError{Kind: WriteCreate, Path: path, Err: err}
	}

	n, err := file.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		file.Close()
		return &WriteError{Kind: WriteShort, Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &WriteError{Kind: WriteClose, Path: path, Err: err}
	}

	return nil
}
