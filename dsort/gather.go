// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"

	"github.com/NVIDIA/oesort/comm"
)

// gather collects all partitions at the root in rank order and copies
// the first N elements (padding excluded) into `out`.
func (w *Worker[T]) gather(ctx context.Context, out []T) error {
	var (
		rank = w.comm.Rank()
		tag  = comm.Tag{Dir: comm.DirGather}
	)
	buf, slab := w.codec.pack(w.part)
	parts, err := comm.Gather(ctx, w.comm, root, tag, buf)
	if rank != root {
		w.codec.mm.Free(buf, slab)
		if err == nil {
			w.sent(len(buf))
		}
		return err
	}
	defer w.codec.mm.Free(buf, slab)
	if err != nil {
		return err
	}
	var (
		size = w.layout.Size
		n    = w.layout.N
	)
	for src, b := range parts {
		// w.theirs is free to reuse: transposition is over
		if err := w.unpack(w.theirs, b, src, tag); err != nil {
			return err
		}
		if off := src * size; off < n {
			copy(out[off:min(off+size, n)], w.theirs)
		}
	}
	return nil
}
