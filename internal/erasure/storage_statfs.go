// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

//go:build linux || darwin || freebsd

package erasure

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// IsStorageExhausted reports whether err means the filesystem has no room
// left for the caller: no space, quota exceeded, or file size limit reached.
func IsStorageExhausted(err error) bool {
	return errors.Is(err, unix.ENOSPC) ||
		errors.Is(err, unix.EDQUOT) ||
		errors.Is(err, unix.EFBIG) ||
		errors.Is(err, syscall.ENOSPC)
}

// AvailableBytes returns the space available to unprivileged users on the
// filesystem containing dir.
func AvailableBytes(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
