// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVolume(t *testing.T) {
	tests := []struct {
		token     string
		blockSize int
		expected  VolumeTarget
	}{
		{"10mb", 4096, Bounded(2500)},
		{"10MB", 4096, Bounded(2500)},
		{"1gb", 512, Bounded(2048000)},
		{"1Gb", 4096, Bounded(1024 * 250)},
		{"0mb", 4096, Bounded(0)},
		{"mb", 4096, Bounded(0)},
		{"xyzmb", 4096, Bounded(0)},
		{"-5mb", 4096, Bounded(0)},
		{"  7mb", 4096, Bounded(1750)},
		{"+3mb", 1000, Bounded(3072)},
		{"12abcmb", 4096, Bounded(3000)},
		{"1mb", 2 * MegabyteBytes, Bounded(0)},
		{"all", 4096, Unbounded},
		{"ALL", 512, Unbounded},
		{"allofit", 4096, Unbounded},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			target, err := ParseVolume(tc.token, tc.blockSize)
			require.NoError(t, err)
			require.Equal(t, tc.expected, target)
		})
	}
}

func TestParseVolumeInvalid(t *testing.T) {
	for _, token := range []string{"10tb", "10", "", "10kb", "mball", "a"} {
		t.Run(token, func(t *testing.T) {
			_, err := ParseVolume(token, 4096)
			require.ErrorIs(t, err, ErrInvalidVolumeSpec)
		})
	}
}

func TestParseVolumeTooLarge(t *testing.T) {
	_, err := ParseVolume("99999999999999999999gb", 1)
	require.ErrorIs(t, err, ErrInvalidVolumeSpec)
}

func TestParseVolumeInvalidBlockSize(t *testing.T) {
	_, err := ParseVolume("10mb", 0)
	require.ErrorIs(t, err, ErrInvalidVolumeSpec)
}

func TestVolumeTarget(t *testing.T) {
	require.True(t, Unbounded.IsUnbounded())
	require.Equal(t, "all", Unbounded.String())

	b := Bounded(42)
	require.False(t, b.IsUnbounded())
	require.Equal(t, uint64(42), b.Blocks())
	require.Equal(t, "42 blocks", b.String())
}

func TestBlocksPerUnit(t *testing.T) {
	require.Equal(t, uint64(250), BlocksPerMegabyte(4096))
	require.Equal(t, uint64(2000), BlocksPerMegabyte(512))
	require.Equal(t, uint64(256000), BlocksPerGigabyte(4096))
	require.Equal(t, uint64(0), BlocksPerGigabyte(0))
}

func TestAtoi(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"abc", 0},
		{"42", 42},
		{"42abc", 42},
		{" \t42", 42},
		{"-42", -42},
		{"+42", 42},
		{"- 42", 0},
		{"99999999999999999999999", math.MaxInt64},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, atoi(tc.input), tc.input)
	}
}
