// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"

	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/stats"
)

// Partner returns the rank that `rank` exchanges with in a given round, or Idle.
//
//	even round: (0,1), (2,3), ...  - rank P-1 idle when P is odd
//	odd round:  (1,2), (3,4), ...  - rank 0 idle; rank P-1 idle when P is even
func Partner(rank, round, p int) int {
	peer := rank - 1
	if (rank+round)%2 == 0 {
		peer = rank + 1
	}
	if peer < 0 || peer >= p {
		return Idle
	}
	return peer
}

// transpose runs exactly P rounds; after the last one every partition
// is locally sorted and max(part[i]) <= min(part[j]) for all i < j.
func (w *Worker[T]) transpose(ctx context.Context) error {
	var (
		rank = w.comm.Rank()
		p    = w.comm.Size()
	)
	for round := range p {
		peer := Partner(rank, round, p)
		if peer == Idle {
			w.tracker.Inc(stats.IdleRounds)
		} else if err := w.exchange(ctx, round, peer); err != nil {
			return err
		}
		w.metrics.Rounds++
		w.tracker.Inc(stats.Rounds)
	}
	if nlog.V(2) {
		nlog.Infoln(w.loghdr, "transposition done:", w.metrics.Rounds, "rounds,", w.metrics.Exchanges, "exchanges")
	}
	return nil
}
