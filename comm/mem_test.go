// Package comm provides the communicator handle that connects the workers of one
// distributed sort: point-to-point blocking send/receive plus collectives built on top.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package comm_test

import (
	"context"
	"time"

	"github.com/NVIDIA/oesort/comm"
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("World", func() {
	var (
		world *comm.World
		ctx   context.Context
	)

	BeforeEach(func() {
		world = comm.NewWorld(3)
		ctx = context.Background()
	})

	AfterEach(func() {
		world.Close()
	})

	It("should report rank and size", func() {
		Expect(world.Size()).To(Equal(3))
		for rank := range 3 {
			c := world.Comm(rank)
			Expect(c.Rank()).To(Equal(rank))
			Expect(c.Size()).To(Equal(3))
		}
	})

	It("should deliver a copy of the message", func() {
		var (
			tag  = comm.Tag{Round: 2, Dir: comm.DirUp}
			sent = []byte("hello")
			done = make(chan error, 1)
		)
		go func() {
			done <- world.Comm(0).Send(ctx, 1, tag, sent)
		}()
		b, err := world.Comm(1).Recv(ctx, 0, tag)
		Expect(err).NotTo(HaveOccurred())
		Expect(<-done).NotTo(HaveOccurred())
		Expect(b).To(Equal([]byte("hello")))

		// sender may reuse its buffer
		sent[0] = 'j'
		Expect(string(b)).To(Equal("hello"))
	})

	It("should deliver empty messages as non-nil", func() {
		tag := comm.Tag{Dir: comm.DirScatter}
		go func() {
			defer GinkgoRecover()
			Expect(world.Comm(2).Send(ctx, 0, tag, nil)).To(Succeed())
		}()
		b, err := world.Comm(0).Recv(ctx, 2, tag)
		Expect(err).NotTo(HaveOccurred())
		Expect(b).NotTo(BeNil())
		Expect(b).To(BeEmpty())
	})

	It("should block sender until receiver arrives", func() {
		tag := comm.Tag{Dir: comm.DirDown}
		sent := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			Expect(world.Comm(1).Send(ctx, 0, tag, []byte{1})).To(Succeed())
			close(sent)
		}()
		Consistently(sent, 50*time.Millisecond).ShouldNot(BeClosed())
		_, err := world.Comm(0).Recv(ctx, 1, tag)
		Expect(err).NotTo(HaveOccurred())
		Eventually(sent).Should(BeClosed())
	})

	It("should fail on tag mismatch", func() {
		go func() {
			defer GinkgoRecover()
			Expect(world.Comm(0).Send(ctx, 1, comm.Tag{Round: 1, Dir: comm.DirUp}, []byte{1})).To(Succeed())
		}()
		_, err := world.Comm(1).Recv(ctx, 0, comm.Tag{Round: 2, Dir: comm.DirUp})
		Expect(err).To(HaveOccurred())
		Expect(comm.IsErrTagMismatch(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("up[2]"))
	})

	It("should reject invalid ranks", func() {
		c := world.Comm(1)
		for _, rank := range []int{-1, 1, 3} {
			err := c.Send(ctx, rank, comm.Tag{}, nil)
			Expect(errors.Is(err, comm.ErrInvalidRank)).To(BeTrue(), "rank %d", rank)
			_, err = c.Recv(ctx, rank, comm.Tag{})
			Expect(errors.Is(err, comm.ErrInvalidRank)).To(BeTrue(), "rank %d", rank)
		}
	})

	It("should unblock on context cancellation", func() {
		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := world.Comm(0).Recv(cctx, 2, comm.Tag{})
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
	})

	It("should unblock on close", func() {
		errCh := make(chan error, 1)
		go func() {
			errCh <- world.Comm(2).Send(ctx, 1, comm.Tag{}, []byte{1})
		}()
		world.Close()
		Eventually(errCh).Should(Receive(MatchError(comm.ErrClosed)))
	})
})
