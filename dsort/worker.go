// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"
	"fmt"
	"slices"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/debug"
	"github.com/NVIDIA/oesort/cmn/mono"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/comm"
	"github.com/NVIDIA/oesort/memsys"
	"github.com/NVIDIA/oesort/stats"

	"github.com/pkg/errors"
)

const root = 0 // coordinating rank: owns input and output

// Worker is one participant of the sort (SPMD: every rank runs the same Run).
// Workers share nothing but messages sent over their comm.Comm.
type Worker[T Elem] struct {
	comm    comm.Comm
	tracker stats.Tracker
	codec   codec[T]
	loghdr  string
	part    []T // owned partition
	theirs  []T // partner's partition, decoded
	scratch []T // compare-split output
	metrics Metrics
	layout  Layout
	cutoff  int
}

func NewWorker[T Elem](c comm.Comm, opts *Options) *Worker[T] {
	if opts == nil {
		opts = &Options{}
	}
	w := &Worker[T]{comm: c, tracker: opts.Tracker, cutoff: opts.Cutoff}
	if w.tracker == nil {
		w.tracker = &stats.Nop{}
	}
	if w.cutoff < 1 {
		w.cutoff = cmn.DefaultCutoff
	}
	mm := opts.MM
	if mm == nil {
		mm = memsys.DefaultMM()
	}
	w.codec = newCodec[T](mm)
	w.loghdr = fmt.Sprintf("dsort[%s]/r%d", opts.JobID, c.Rank())
	return w
}

func (w *Worker[T]) String() string { return w.loghdr }
func (w *Worker[T]) Rank() int      { return w.comm.Rank() }
func (w *Worker[T]) Layout() Layout { return w.layout }

// Partition returns the partition currently owned by this worker
// (after Run: its final, globally ordered slice of the padded dataset).
func (w *Worker[T]) Partition() []T { return w.part }

// Metrics returns phase timings and exchange counters of the last Run.
func (w *Worker[T]) Metrics() *Metrics { return &w.metrics }

// Run executes all phases: scatter, local sort, P transposition rounds, gather.
// `in` and `out` must have equal length and are only used at the root (rank 0).
func (w *Worker[T]) Run(ctx context.Context, in, out []T) (err error) {
	w.metrics = Metrics{}
	if w.comm.Rank() == root {
		cos.Assertf(len(in) == len(out), "%s: in %d != out %d", w, len(in), len(out))
	}
	if w.comm.Size() == 1 {
		return w.runSingle(in, out)
	}
	if err = w.metrics.Scatter.run(w.tracker, stats.PhaseScatter, func() error { return w.scatter(ctx, in) }); err != nil {
		return err
	}
	w.metrics.LocalSort.run(w.tracker, stats.PhaseLocalSort, func() error { w.sortLocal(); return nil })
	if err = w.metrics.Transposition.run(w.tracker, stats.PhaseTranspose, func() error { return w.transpose(ctx) }); err != nil {
		return err
	}
	err = w.metrics.Gather.run(w.tracker, stats.PhaseGather, func() error { return w.gather(ctx, out) })
	if err == nil && nlog.V(1) {
		nlog.Infof("%s: done %s, exchanges %d, sent %d, recv %d", w, &w.layout, w.metrics.Exchanges,
			w.metrics.SentSize, w.metrics.RecvSize)
	}
	return err
}

// P = 1: no partitioning, no exchange; every phase still reports as done
func (w *Worker[T]) runSingle(in, out []T) error {
	w.layout = NewLayout(len(in), 1)
	w.metrics.Layout = w.layout
	w.metrics.Scatter.run(w.tracker, stats.PhaseScatter, func() error { w.part = slices.Clone(in); return nil })
	w.metrics.LocalSort.run(w.tracker, stats.PhaseLocalSort, func() error { w.sortLocal(); return nil })
	w.metrics.Transposition.run(w.tracker, stats.PhaseTranspose, func() error { return nil })
	w.metrics.Gather.run(w.tracker, stats.PhaseGather, func() error { copy(out, w.part); return nil })
	return nil
}

func (w *Worker[T]) sortLocal() {
	started := mono.NanoTime()
	SortLocal(w.part, w.cutoff)
	w.tracker.Observe(stats.LocalSort, mono.Since(started))
	debug.AssertFunc(func() bool { return slices.IsSorted(w.part) }, w.loghdr)
}

// scatter: root pads the input, broadcasts the layout and distributes Size-element blocks
func (w *Worker[T]) scatter(ctx context.Context, in []T) error {
	var (
		lb     []byte
		blocks [][]byte
		slabs  []*memsys.Slab
		rank   = w.comm.Rank()
		size   = w.comm.Size()
	)
	if rank == root {
		layout := NewLayout(len(in), size)
		lb, _ = layout.MarshalMsg(nil)
	}
	lb, err := comm.Bcast(ctx, w.comm, root, comm.Tag{Dir: comm.DirLayout}, lb)
	if err != nil {
		return err
	}
	if err := w.setLayout(lb); err != nil {
		return err
	}
	if nlog.V(1) {
		nlog.Infoln(w.loghdr, "scatter", &w.layout)
	}

	if rank == root {
		padded := make([]T, w.layout.Padded)
		copy(padded, in)
		sentinel := Sentinel[T]()
		for i := w.layout.N; i < w.layout.Padded; i++ {
			padded[i] = sentinel
		}
		blocks, slabs = make([][]byte, size), make([]*memsys.Slab, size)
		for r := range size {
			blocks[r], slabs[r] = w.codec.pack(padded[r*w.layout.Size : (r+1)*w.layout.Size])
		}
		defer func() {
			for r := range size {
				w.codec.mm.Free(blocks[r], slabs[r])
			}
		}()
	}
	tag := comm.Tag{Dir: comm.DirScatter}
	b, err := comm.Scatter(ctx, w.comm, root, tag, blocks)
	if err != nil {
		return err
	}
	if rank == root {
		w.sent((size - 1) * len(blocks[root]))
	}
	return w.unpack(w.part, b, root, tag)
}

func (w *Worker[T]) setLayout(lb []byte) error {
	var layout Layout
	if _, err := layout.UnmarshalMsg(lb); err != nil {
		return errors.Wrapf(err, "%s: failed to decode layout", w)
	}
	if err := layout.validate(); err != nil {
		return errors.Wrap(err, w.loghdr)
	}
	if layout.P != w.comm.Size() {
		return &ErrLayoutMismatch{Layout: layout, Size: w.comm.Size(), Rank: w.comm.Rank()}
	}
	w.layout = layout
	w.metrics.Layout = layout
	w.part = make([]T, layout.Size)
	w.theirs = make([]T, layout.Size)
	w.scratch = make([]T, layout.Size)
	return nil
}

func (w *Worker[T]) unpack(dst []T, b []byte, src int, tag comm.Tag) error {
	if src != w.comm.Rank() {
		w.metrics.RecvSize += int64(len(b))
		w.tracker.Add(stats.RecvSize, int64(len(b)))
	}
	if !w.codec.decode(dst, b) {
		return &ErrPartitionSize{Tag: tag, Src: src, Dst: w.comm.Rank(), Expected: len(dst) * w.codec.size, Actual: len(b)}
	}
	return nil
}

func (w *Worker[T]) sent(n int) {
	w.metrics.SentSize += int64(n)
	w.tracker.Add(stats.SentSize, int64(n))
}
