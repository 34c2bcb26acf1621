// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is an order-independent digest of a multiset of elements:
// any permutation of the same elements yields the same fingerprint.
type Fingerprint struct {
	Count int    `json:"count"`
	Sum   uint64 `json:"sum"` // sum of per-element hashes (mod 2^64)
	Xor   uint64 `json:"xor"`
}

func NewFingerprint[T Elem](data []T) (fp Fingerprint) {
	var (
		b     [8]byte
		float = isFloat[T]()
	)
	fp.Count = len(data)
	for _, v := range data {
		if float {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(float64(v)))
		} else {
			binary.LittleEndian.PutUint64(b[:], uint64(v))
		}
		h := xxhash.Sum64(b[:])
		fp.Sum += h
		fp.Xor ^= h
	}
	return fp
}

func (fp Fingerprint) String() string {
	return fmt.Sprintf("fp[n=%d %016x:%016x]", fp.Count, fp.Sum, fp.Xor)
}

// Verify checks that `out` is ascending and a permutation of the input
// that produced `in`.
func Verify[T Elem](in Fingerprint, out []T) error {
	if !slices.IsSorted(out) {
		i := 1
		for ; i < len(out) && out[i-1] <= out[i]; i++ {
		}
		return fmt.Errorf("%w: out of order at index %d", ErrVerify, i)
	}
	if fp := NewFingerprint(out); fp != in {
		return fmt.Errorf("%w: not a permutation of the input (%s vs %s)", ErrVerify, fp, in)
	}
	return nil
}
