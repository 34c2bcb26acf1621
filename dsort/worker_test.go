// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/NVIDIA/oesort/comm"
	"github.com/NVIDIA/oesort/stats"
	"github.com/NVIDIA/oesort/tools/trand"

	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

// runWorld sorts `in` with p in-process workers; returns output, workers, per-rank errors.
func runWorld[T Elem](p int, in []T, opts *Options) ([]T, []*Worker[T], []error) {
	var (
		world   = comm.NewWorld(p)
		workers = make([]*Worker[T], p)
		errs    = make([]error, p)
		out     = make([]T, len(in))
		wg      sync.WaitGroup
	)
	defer world.Close()
	for rank := range p {
		workers[rank] = NewWorker[T](world.Comm(rank), opts)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for rank, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rank == root {
				errs[rank] = w.Run(ctx, in, out)
			} else {
				errs[rank] = w.Run(ctx, nil, nil)
			}
		}()
	}
	wg.Wait()
	return out, workers, errs
}

func sortWorld[T Elem](p int, in []T) []T {
	out, _, errs := runWorld(p, in, nil)
	for rank, err := range errs {
		ExpectWithOffset(1, err).NotTo(HaveOccurred(), "rank %d", rank)
	}
	return out
}

func sorted[T Elem](in []T) []T {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

var _ = Describe("Worker", func() {
	Describe("scenarios", func() {
		It("should sort a reversed sequence with 4 workers", func() {
			Expect(sortWorld(4, []int32{8, 7, 6, 5, 4, 3, 2, 1})).To(Equal([]int32{1, 2, 3, 4, 5, 6, 7, 8}))
		})

		It("should sort a single element with a single worker", func() {
			Expect(sortWorld(1, []int64{5})).To(Equal([]int64{5}))
		})

		It("should sort a prime number of random values with 4 workers", func() {
			in := trand.Uint32s(10007, 42)
			out := sortWorld(4, in)
			Expect(out).To(HaveLen(10007))
			Expect(out).To(Equal(sorted(in)))
		})

		It("should sort with an odd number of workers", func() {
			Expect(sortWorld(3, []uint16{9, 1, 2, 8, 3, 7, 4, 6, 5})).To(Equal([]uint16{1, 2, 3, 4, 5, 6, 7, 8, 9}))
		})
	})

	DescribeTable("should produce an ordered permutation",
		func(n, p int) {
			in := trand.Int64s(n, 100, uint64(n*31+p))
			Expect(sortWorld(p, in)).To(Equal(sorted(in)))
		},
		Entry("n=7 p=4 (padding)", 7, 4),
		Entry("n=3 p=5 (fewer elements than workers)", 3, 5),
		Entry("n=0 p=3", 0, 3),
		Entry("n=1 p=2", 1, 2),
		Entry("n=100 p=2", 100, 2),
		Entry("n=1000 p=7", 1000, 7),
		Entry("n=999 p=8", 999, 8),
		Entry("n=500 p=16 (many duplicates)", 500, 16),
	)

	It("should sort floats and negative integers", func() {
		f := trand.Float64s(1001, 7)
		Expect(sortWorld(6, f)).To(Equal(sorted(f)))

		i8 := []int8{-1, 127, -128, 0, 3, -3, 127, 126, -128}
		Expect(sortWorld(4, i8)).To(Equal([]int8{-128, -128, -3, -1, 0, 3, 126, 127, 127}))
	})

	It("should keep max-valued input apart from padding", func() {
		// input values equal to the sentinel must survive padding removal
		in := []uint8{255, 0, 255, 1, 255}
		Expect(sortWorld(4, in)).To(Equal([]uint8{0, 1, 255, 255, 255}))
	})

	It("should be idempotent", func() {
		in := trand.Int64s(333, 1000, 3)
		once := sortWorld(5, in)
		Expect(sortWorld(5, once)).To(Equal(once))
	})

	It("should match the local sort with a single worker", func() {
		in := trand.Float64s(257, 9)
		local := slices.Clone(in)
		SortLocal(local, 0)
		Expect(sortWorld(1, in)).To(Equal(local))
	})

	It("should report all phases with a single worker", func() {
		tracker, err := stats.NewProm(nil)
		Expect(err).NotTo(HaveOccurred())
		in := trand.Int64s(500, 1000, 11)
		out, workers, errs := runWorld(1, in, &Options{Tracker: tracker})
		Expect(errs[0]).NotTo(HaveOccurred())
		Expect(out).To(Equal(sorted(in)))

		m := workers[root].Metrics()
		for _, pi := range []*PhaseInfo{&m.Scatter, &m.LocalSort, &m.Transposition, &m.Gather} {
			Expect(pi.Finished).To(BeTrue())
			Expect(pi.Running).To(BeFalse())
		}
		Expect(m.Total()).To(BeNumerically(">", 0))
		Expect(m.Total()).To(BeNumerically(">=", m.LocalSort.Elapsed))
		Expect(m.Rounds).To(BeZero())
		Expect(tracker.Get(stats.Phase)).To(BeEquivalentTo(4))
		Expect(tracker.Get(stats.Rounds)).To(BeZero())
	})

	It("should not report a duration before any phase has run", func() {
		var m Metrics
		Expect(m.Total()).To(BeZero())
	})

	It("should leave globally ordered partitions after P rounds", func() {
		const p = 6
		tracker, err := stats.NewProm(nil)
		Expect(err).NotTo(HaveOccurred())

		// worst case: reversed input, every element crosses the line
		in := make([]int64, 60)
		for i := range in {
			in[i] = int64(len(in) - i)
		}
		out, workers, errs := runWorld(p, in, &Options{Tracker: tracker})
		for rank, err := range errs {
			Expect(err).NotTo(HaveOccurred(), "rank %d", rank)
		}
		Expect(out).To(Equal(sorted(in)))
		for i := range p - 1 {
			lo, hi := workers[i].Partition(), workers[i+1].Partition()
			Expect(slices.IsSorted(lo)).To(BeTrue())
			Expect(slices.Max(lo)).To(BeNumerically("<=", slices.Min(hi)), "ranks %d, %d", i, i+1)
		}
		for _, w := range workers {
			Expect(w.Metrics().Rounds).To(Equal(p))
			Expect(w.Layout()).To(Equal(NewLayout(60, p)))
		}

		Expect(tracker.Get(stats.Rounds)).To(BeEquivalentTo(p * p))
		Expect(tracker.Get(stats.Exchanges) + tracker.Get(stats.IdleRounds)).To(BeEquivalentTo(p * p))
		// even rounds: 3 pairs; odd rounds: 2 pairs
		Expect(tracker.Get(stats.Exchanges)).To(BeEquivalentTo(3*(2*3) + 3*(2*2)))
		Expect(tracker.Get(stats.SentSize)).To(Equal(tracker.Get(stats.RecvSize)))
		Expect(tracker.Get(stats.Phase)).To(BeEquivalentTo(4 * p))
	})

	It("should report metrics", func() {
		out, workers, errs := runWorld(3, []uint32{3, 2, 1, 6, 5, 4}, nil)
		for rank, err := range errs {
			Expect(err).NotTo(HaveOccurred(), "rank %d", rank)
		}
		Expect(out).To(Equal([]uint32{1, 2, 3, 4, 5, 6}))

		m := workers[root].Metrics()
		Expect(m.Scatter.Finished).To(BeTrue())
		Expect(m.Gather.Finished).To(BeTrue())
		Expect(m.Transposition.Running).To(BeFalse())
		Expect(m.Total()).To(BeNumerically(">", 0))
		// root: 2 scatter blocks out, 2 gather blocks in, plus its own exchanges
		Expect(m.SentSize).To(BeNumerically(">=", 2*2*4))
		Expect(m.RecvSize).To(BeNumerically(">=", 2*2*4))

		b, err := m.Marshal()
		Expect(err).NotTo(HaveOccurred())
		var decoded map[string]any
		Expect(jsoniter.Unmarshal(b, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("rounds", BeNumerically("==", 3)))
		Expect(decoded).To(HaveKey("transposition"))
		Expect(decoded["layout"]).To(HaveKeyWithValue("size", BeNumerically("==", 2)))
	})

	Describe("errors", func() {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		BeforeEach(func() {
			ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		})
		AfterEach(func() {
			cancel()
		})

		// impersonate the root: run `fn` at rank 0 while ranks 1..size-1 run real workers
		fakeRoot := func(size int, fn func(c comm.Comm)) []error {
			var (
				world = comm.NewWorld(size)
				errs  = make([]error, size)
				wg    sync.WaitGroup
			)
			defer world.Close()
			for rank := 1; rank < size; rank++ {
				w := NewWorker[int64](world.Comm(rank), nil)
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[rank] = w.Run(ctx, nil, nil)
				}()
			}
			fn(world.Comm(0))
			wg.Wait()
			return errs
		}

		It("should reject a layout for a different number of workers", func() {
			errs := fakeRoot(3, func(c comm.Comm) {
				layout := NewLayout(8, 4)
				b, _ := layout.MarshalMsg(nil)
				_, err := comm.Bcast(ctx, c, 0, comm.Tag{Dir: comm.DirLayout}, b)
				Expect(err).NotTo(HaveOccurred())
			})
			for _, err := range errs[1:] {
				Expect(IsErrLayoutMismatch(err)).To(BeTrue(), "%v", err)
				Expect(err.Error()).To(ContainSubstring("communicator size 3"))
			}
		})

		It("should reject a partition of the wrong size", func() {
			errs := fakeRoot(3, func(c comm.Comm) {
				layout := NewLayout(6, 3)
				b, _ := layout.MarshalMsg(nil)
				_, err := comm.Bcast(ctx, c, 0, comm.Tag{Dir: comm.DirLayout}, b)
				Expect(err).NotTo(HaveOccurred())
				blocks := [][]byte{make([]byte, 16), make([]byte, 15), make([]byte, 17)}
				_, err = comm.Scatter(ctx, c, 0, comm.Tag{Dir: comm.DirScatter}, blocks)
				Expect(err).NotTo(HaveOccurred())
			})
			for rank, err := range errs[1:] {
				Expect(IsErrPartitionSize(err)).To(BeTrue(), "%v", err)
				var e *ErrPartitionSize
				Expect(errors.As(err, &e)).To(BeTrue())
				Expect(e.Expected).To(Equal(16))
				Expect(e.Dst).To(Equal(rank + 1))
			}
		})

		It("should fail on an unexpected message", func() {
			errs := fakeRoot(2, func(c comm.Comm) {
				layout := NewLayout(4, 2)
				b, _ := layout.MarshalMsg(nil)
				_, err := comm.Bcast(ctx, c, 0, comm.Tag{Dir: comm.DirLayout}, b)
				Expect(err).NotTo(HaveOccurred())
				_, err = comm.Scatter(ctx, c, 0, comm.Tag{Dir: comm.DirScatter}, [][]byte{make([]byte, 16), make([]byte, 16)})
				Expect(err).NotTo(HaveOccurred())
				// skip transposition, go straight to gather
				Expect(c.Send(ctx, 1, comm.Tag{Dir: comm.DirGather}, make([]byte, 16))).To(Succeed())
			})
			Expect(comm.IsErrTagMismatch(errs[1])).To(BeTrue(), "%v", errs[1])
		})

		It("should stop when the context is canceled", func() {
			errs := fakeRoot(2, func(comm.Comm) { cancel() })
			Expect(errs[1]).To(MatchError(context.Canceled))
		})
	})
})
