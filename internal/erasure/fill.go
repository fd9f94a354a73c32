// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const DefaultBlockSize = 4096

type FillMode int8

const (
	FillZero FillMode = iota
	FillOnes
	FillRandom
)

// FillModeIds maps each mode to the names accepted on the command line and in
// config files. The first name is the canonical one.
var FillModeIds = map[FillMode][]string{
	FillZero:   {"zero", "zeros"},
	FillOnes:   {"ones", "one"},
	FillRandom: {"random", "rand"},
}

func (m FillMode) String() string {
	if ids, ok := FillModeIds[m]; ok {
		return ids[0]
	}
	return fmt.Sprintf("FillMode(%d)", int8(m))
}

func ParseFillMode(s string) (FillMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FillZero, nil
	}
	for mode, ids := range FillModeIds {
		for _, id := range ids {
			if id == s {
				return mode, nil
			}
		}
	}
	return FillZero, fmt.Errorf("invalid fill mode '%s': must be one of 'zero', 'ones', or 'random'", s)
}

var processRand = sync.OnceValue(func() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>32|seed<<32))
})

// NewFillBuffer returns a buffer of exactly blockSize bytes filled according to
// mode. The returned slice must be treated as read-only.
func NewFillBuffer(blockSize int, mode FillMode) (buf []byte, err error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrAllocation, blockSize)
	}

	// Only an out-of-range length panics here. Running out of memory is a
	// fatal runtime error and cannot be recovered.
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: %d bytes: %v", ErrAllocation, blockSize, r)
		}
	}()

	buf = make([]byte, blockSize)

	switch mode {
	case FillZero:
	case FillOnes:
		for i := range buf {
			buf[i] = 0xff
		}
	case FillRandom:
		r := processRand()
		for i := range buf {
			buf[i] = byte(r.Uint32())
		}
	default:
		return nil, fmt.Errorf("unsupported fill mode %v", mode)
	}

	return buf, nil
}
