// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

const (
	// The "mb" unit is 1,024,000 bytes, neither MB nor MiB. Existing byte
	// counts depend on it.
	MegabyteBytes = 1_024_000

	MegabytesPerGigabyte = 1024
)

// VolumeTarget is either a bounded number of blocks or the unbounded target,
// which means writing until storage refuses further writes.
type VolumeTarget struct {
	blocks    uint64
	unbounded bool
}

var Unbounded = VolumeTarget{unbounded: true}

func Bounded(blocks uint64) VolumeTarget {
	return VolumeTarget{blocks: blocks}
}

func (t VolumeTarget) IsUnbounded() bool {
	return t.unbounded
}

// Blocks returns the block count of a bounded target. It is zero for the
// unbounded target.
func (t VolumeTarget) Blocks() uint64 {
	return t.blocks
}

func (t VolumeTarget) String() string {
	if t.unbounded {
		return "all"
	}
	return fmt.Sprintf("%d blocks", t.blocks)
}

func BlocksPerMegabyte(blockSize int) uint64 {
	if blockSize <= 0 {
		return 0
	}
	return uint64(MegabyteBytes / blockSize)
}

func BlocksPerGigabyte(blockSize int) uint64 {
	if blockSize <= 0 {
		return 0
	}
	return uint64(MegabyteBytes * MegabytesPerGigabyte / blockSize)
}

// ParseVolume converts a token such as "10mb", "5GB" or "all" into a target
// block count for the given block size.
func ParseVolume(token string, blockSize int) (VolumeTarget, error) {
	if blockSize <= 0 {
		return VolumeTarget{}, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidVolumeSpec, blockSize)
	}

	lower := strings.ToLower(token)

	var multiplier uint64
	switch {
	case strings.HasSuffix(lower, "mb"):
		multiplier = BlocksPerMegabyte(blockSize)
	case strings.HasSuffix(lower, "gb"):
		multiplier = MegabytesPerGigabyte * BlocksPerMegabyte(blockSize)
	case strings.HasPrefix(lower, "all"):
		return Unbounded, nil
	default:
		return VolumeTarget{}, fmt.Errorf("%w: '%s': expected a number followed by 'mb' or 'gb', or 'all'", ErrInvalidVolumeSpec, token)
	}

	quantity := atoi(token)
	if quantity <= 0 {
		return Bounded(0), nil
	}

	hi, blocks := bits.Mul64(uint64(quantity), multiplier)
	if hi != 0 {
		return VolumeTarget{}, fmt.Errorf("%w: '%s' is too large", ErrInvalidVolumeSpec, token)
	}

	return Bounded(blocks), nil
}

// atoi parses the leading integer of s the way the C library does: leading
// whitespace and a sign are accepted, parsing stops at the first non-digit,
// and a string with no leading digits yields zero. Values saturate instead of
// overflowing.
func atoi(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || (s[i] >= '\t' && s[i] <= '\r')) {
		i++
	}

	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		d := int64(s[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			continue
		}
		n = n*10 + d
	}

	if negative {
		return -n
	}
	return n
}
