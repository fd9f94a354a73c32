// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

//go:build !linux && !darwin && !freebsd && !windows

package erasure

import (
	"errors"
	"syscall"
)

func IsStorageExhausted(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

func AvailableBytes(dir string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
