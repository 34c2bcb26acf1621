// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/mono"
	"github.com/NVIDIA/oesort/comm"
	"github.com/NVIDIA/oesort/stats"
)

// compareSplit merges two ascending sequences of equal length and keeps in `mine`
// the lower half (keepLow) or the upper half of the merged result.
// `out` is scratch space of the same length.
func compareSplit[T Elem](mine, theirs, out []T, keepLow bool) {
	n := len(mine)
	if len(theirs) != n || len(out) != n {
		cos.AssertMsg(false, "compare-split: partition sizes differ")
	}
	if keepLow {
		i, j := 0, 0
		for k := range n {
			if j >= n || (i < n && mine[i] <= theirs[j]) {
				out[k] = mine[i]
				i++
			} else {
				out[k] = theirs[j]
				j++
			}
		}
	} else {
		i, j := n-1, n-1
		for k := n - 1; k >= 0; k-- {
			if j < 0 || (i >= 0 && mine[i] >= theirs[j]) {
				out[k] = mine[i]
				i--
			} else {
				out[k] = theirs[j]
				j--
			}
		}
	}
	copy(mine, out)
}

// exchange swaps partitions with the neighbor and compare-splits:
// the lower rank keeps the smallest Size elements, the higher rank the largest.
func (w *Worker[T]) exchange(ctx context.Context, round, peer int) error {
	var (
		rank    = w.comm.Rank()
		started = mono.NanoTime()
		sendTag = comm.Tag{Round: int32(round), Dir: comm.DirUp}
		recvTag = comm.Tag{Round: int32(round), Dir: comm.DirDown}
	)
	cos.Assertf(peer == rank-1 || peer == rank+1, "%s: rank %d is not a neighbor", w, peer)
	if peer < rank {
		sendTag.Dir, recvTag.Dir = comm.DirDown, comm.DirUp
	}
	buf, slab := w.codec.pack(w.part)
	rb, err := comm.Sendrecv(ctx, w.comm, peer, sendTag, recvTag, buf)
	w.codec.mm.Free(buf, slab)
	if err != nil {
		return err
	}
	w.sent(len(buf))
	if err := w.unpack(w.theirs, rb, peer, recvTag); err != nil {
		return err
	}
	compareSplit(w.part, w.theirs, w.scratch, rank < peer)

	w.metrics.Exchanges++
	w.tracker.Inc(stats.Exchanges)
	w.tracker.Observe(stats.Exchange, mono.Since(started))
	return nil
}
