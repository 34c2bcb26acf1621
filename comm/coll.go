// Package comm provides the communicator handle that connects the workers of one
// distributed sort: point-to-point blocking send/receive plus collectives built on top.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package comm

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Collectives. Every participating rank must call the same collective with the
// same root and tag; all of them are built on Comm.Send/Recv.

// Sendrecv sends `b` to the peer while concurrently receiving the peer's buffer.
// Both sides of a pair call Sendrecv(peer) - with rendezvous semantics,
// a sequential send-then-receive on both sides would deadlock.
func Sendrecv(ctx context.Context, c Comm, peer int, sendTag, recvTag Tag, b []byte) (rb []byte, err error) {
	if err = CheckRank(c, peer); err != nil {
		return nil, err
	}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.Send(gctx, peer, sendTag, b)
	})
	group.Go(func() (err error) {
		rb, err = c.Recv(gctx, peer, recvTag)
		return err
	})
	if err = group.Wait(); err != nil {
		return nil, errors.Wrapf(err, "rank %d: sendrecv %s/%s with rank %d", c.Rank(), sendTag, recvTag, peer)
	}
	return rb, nil
}

// Bcast distributes root's `b` to all ranks along a binomial tree rooted at `root`
// (log2(P) sequential steps instead of P-1 sends at the root).
// Returns the received buffer (root: its own `b`).
func Bcast(ctx context.Context, c Comm, root int, tag Tag, b []byte) ([]byte, error) {
	var (
		size  = c.Size()
		vrank = (c.Rank() - root + size) % size
		mask  = 1
	)
	for mask < size {
		if vrank&mask != 0 {
			src := (vrank - mask + root) % size
			rb, err := c.Recv(ctx, src, tag)
			if err != nil {
				return nil, errors.Wrapf(err, "rank %d: bcast recv from %d", c.Rank(), src)
			}
			b = rb
			break
		}
		mask <<= 1
	}
	for mask >>= 1; mask > 0; mask >>= 1 {
		if vrank+mask < size {
			dst := (vrank + mask + root) % size
			if err := c.Send(ctx, dst, tag, b); err != nil {
				return nil, errors.Wrapf(err, "rank %d: bcast send to %d", c.Rank(), dst)
			}
		}
	}
	return b, nil
}

// Scatter sends blocks[r] to each rank r; root must provide exactly Size() blocks,
// other ranks pass nil. Returns the calling rank's block.
func Scatter(ctx context.Context, c Comm, root int, tag Tag, blocks [][]byte) ([]byte, error) {
	if c.Rank() != root {
		b, err := c.Recv(ctx, root, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "rank %d: scatter recv", c.Rank())
		}
		return b, nil
	}
	if len(blocks) != c.Size() {
		return nil, errors.Errorf("rank %d: scatter: expecting %d blocks, got %d", root, c.Size(), len(blocks))
	}
	for dst, b := range blocks {
		if dst == root {
			continue
		}
		if err := c.Send(ctx, dst, tag, b); err != nil {
			return nil, errors.Wrapf(err, "rank %d: scatter send to %d", root, dst)
		}
	}
	return slices.Clone(blocks[root]), nil
}

// Gather collects every rank's `b` at the root, in rank order.
// Non-root ranks get nil.
func Gather(ctx context.Context, c Comm, root int, tag Tag, b []byte) ([][]byte, error) {
	if c.Rank() != root {
		if err := c.Send(ctx, root, tag, b); err != nil {
			return nil, errors.Wrapf(err, "rank %d: gather send", c.Rank())
		}
		return nil, nil
	}
	out := make([][]byte, c.Size())
	for src := range c.Size() {
		if src == root {
			out[src] = b
			continue
		}
		rb, err := c.Recv(ctx, src, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "rank %d: gather recv from %d", root, src)
		}
		out[src] = rb
	}
	return out, nil
}
