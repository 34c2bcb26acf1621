// Package comm provides the communicator handle that connects the workers of one
// distributed sort: point-to-point blocking send/receive plus collectives built on top.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package comm_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/NVIDIA/oesort/comm"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// spmd runs fn on every rank of a fresh in-process world and waits.
func spmd(size int, fn func(c comm.Comm) error) []error {
	var (
		world = comm.NewWorld(size)
		errs  = make([]error, size)
		wg    sync.WaitGroup
	)
	defer world.Close()
	for rank := range size {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = fn(world.Comm(rank))
		}(rank)
	}
	wg.Wait()
	return errs
}

func expectNoErrs(errs []error) {
	for rank, err := range errs {
		ExpectWithOffset(1, err).NotTo(HaveOccurred(), "rank %d", rank)
	}
}

var _ = Describe("Collectives", func() {
	ctx := context.Background()

	It("should exchange buffers pairwise", func() {
		got := make([][]byte, 2)
		errs := spmd(2, func(c comm.Comm) (err error) {
			peer := 1 - c.Rank()
			sendTag, recvTag := comm.Tag{Round: 5, Dir: comm.DirUp}, comm.Tag{Round: 5, Dir: comm.DirDown}
			if c.Rank() == 1 {
				sendTag, recvTag = recvTag, sendTag
			}
			got[c.Rank()], err = comm.Sendrecv(ctx, c, peer, sendTag, recvTag, []byte{byte(c.Rank())})
			return err
		})
		expectNoErrs(errs)
		Expect(got[0]).To(Equal([]byte{1}))
		Expect(got[1]).To(Equal([]byte{0}))
	})

	It("should not sendrecv with self", func() {
		world := comm.NewWorld(2)
		defer world.Close()
		_, err := comm.Sendrecv(ctx, world.Comm(0), 0, comm.Tag{}, comm.Tag{}, nil)
		Expect(err).To(MatchError(ContainSubstring("invalid rank")))
	})

	DescribeTable("should broadcast from any root",
		func(size, root int) {
			got := make([][]byte, size)
			errs := spmd(size, func(c comm.Comm) (err error) {
				var b []byte
				if c.Rank() == root {
					b = []byte(fmt.Sprintf("root-%d", root))
				}
				got[c.Rank()], err = comm.Bcast(ctx, c, root, comm.Tag{Dir: comm.DirLayout}, b)
				return err
			})
			expectNoErrs(errs)
			for rank := range size {
				Expect(string(got[rank])).To(Equal(fmt.Sprintf("root-%d", root)), "rank %d", rank)
			}
		},
		Entry("single", 1, 0),
		Entry("pair", 2, 1),
		Entry("odd", 5, 0),
		Entry("odd, non-zero root", 7, 3),
		Entry("power of two", 8, 0),
		Entry("power of two, last root", 8, 7),
	)

	DescribeTable("should scatter and gather in rank order",
		func(size int) {
			gathered := make([][]byte, 0)
			errs := spmd(size, func(c comm.Comm) error {
				var blocks [][]byte
				if c.Rank() == 0 {
					for r := range size {
						blocks = append(blocks, []byte{byte(r), byte(r * 2)})
					}
				}
				b, err := comm.Scatter(ctx, c, 0, comm.Tag{Dir: comm.DirScatter}, blocks)
				if err != nil {
					return err
				}
				if b[0] != byte(c.Rank()) {
					return fmt.Errorf("rank %d: got block %v", c.Rank(), b)
				}
				b[1]++
				out, err := comm.Gather(ctx, c, 0, comm.Tag{Dir: comm.DirGather}, b)
				if c.Rank() == 0 {
					gathered = out
				} else if out != nil {
					return fmt.Errorf("rank %d: non-root gathered %d", c.Rank(), len(out))
				}
				return err
			})
			expectNoErrs(errs)
			Expect(gathered).To(HaveLen(size))
			for r, b := range gathered {
				Expect(b).To(Equal([]byte{byte(r), byte(r*2 + 1)}))
			}
		},
		Entry("1 rank", 1),
		Entry("3 ranks", 3),
		Entry("4 ranks", 4),
	)

	It("should fail scatter with wrong number of blocks", func() {
		world := comm.NewWorld(3)
		defer world.Close()
		_, err := comm.Scatter(ctx, world.Comm(0), 0, comm.Tag{}, [][]byte{{1}})
		Expect(err).To(MatchError(ContainSubstring("expecting 3 blocks")))
	})
})
