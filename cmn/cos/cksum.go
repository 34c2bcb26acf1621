// Package cos provides common low-level types and utilities for all oesort packages.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

const (
	ChecksumNone   = "none"
	ChecksumXXHash = "xxhash"
)

const MLCG32 = 1103515245 // xxhash seed

type ErrBadCksum struct {
	context  string
	expected uint64
	actual   uint64
}

func NewErrBadCksum(expected, actual uint64, context string) *ErrBadCksum {
	return &ErrBadCksum{context: context, expected: expected, actual: actual}
}

func (e *ErrBadCksum) Error() string {
	return fmt.Sprintf("BAD DATA CHECKSUM: %s (%x != %x)", e.context, e.actual, e.expected)
}

func IsErrBadCksum(err error) bool {
	_, ok := err.(*ErrBadCksum)
	return ok
}

func ValidateCksumType(ty string) error {
	switch ty {
	case "", ChecksumNone, ChecksumXXHash:
		return nil
	default:
		return fmt.Errorf("invalid checksum type %q (expecting %q or %q)", ty, ChecksumNone, ChecksumXXHash)
	}
}

// ChecksumB returns xxhash64 of the given bytes.
func ChecksumB(b []byte) uint64 { return xxhash.Checksum64S(b, MLCG32) }
