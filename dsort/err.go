// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"fmt"

	"github.com/NVIDIA/oesort/comm"

	"github.com/pkg/errors"
)

var (
	ErrLengthMismatch = errors.New("input and output lengths differ")
	ErrNaN            = errors.New("NaN cannot be ordered")
	ErrVerify         = errors.New("output verification failed")
)

type (
	// layout received from the root does not match this communicator
	ErrLayoutMismatch struct {
		Layout Layout
		Size   int
		Rank   int
	}
	// wire payload does not decode into a partition of the agreed size
	ErrPartitionSize struct {
		Tag      comm.Tag
		Src      int
		Dst      int
		Expected int // bytes
		Actual   int
	}
)

func (e *ErrLayoutMismatch) Error() string {
	return fmt.Sprintf("rank %d: %s does not match communicator size %d", e.Rank, &e.Layout, e.Size)
}

func (e *ErrPartitionSize) Error() string {
	return fmt.Sprintf("rank %d: %s from rank %d: expected %d bytes, got %d", e.Dst, e.Tag, e.Src, e.Expected, e.Actual)
}

func IsErrLayoutMismatch(err error) bool {
	var e *ErrLayoutMismatch
	return errors.As(err, &e)
}

func IsErrPartitionSize(err error) bool {
	var e *ErrPartitionSize
	return errors.As(err, &e)
}
