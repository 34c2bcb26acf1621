// Package comm provides the communicator handle that connects the workers of one
// distributed sort: point-to-point blocking send/receive plus collectives built on top.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package comm

import (
	"context"
	"fmt"
	"slices"

	"github.com/NVIDIA/oesort/cmn/cos"
)

// in-process world: P goroutines connected by unbuffered (rendezvous) channels,
// one channel per ordered (src, dst) pair

type (
	msg struct {
		b   []byte
		tag Tag
	}
	World struct {
		links  [][]chan msg // [src][dst]
		comms  []*memComm
		stopCh cos.StopCh
	}
	memComm struct {
		world *World
		rank  int
	}
)

// interface guard
var _ Comm = (*memComm)(nil)

func NewWorld(size int) *World {
	cos.Assertf(size > 0, "invalid world size %d", size)
	w := &World{
		links: make([][]chan msg, size),
		comms: make([]*memComm, size),
	}
	w.stopCh.Init()
	for src := range size {
		w.links[src] = make([]chan msg, size)
		for dst := range size {
			if src != dst {
				w.links[src][dst] = make(chan msg)
			}
		}
		w.comms[src] = &memComm{world: w, rank: src}
	}
	return w
}

func (w *World) Size() int          { return len(w.comms) }
func (w *World) Comm(rank int) Comm { return w.comms[rank] }
func (w *World) String() string     { return fmt.Sprintf("world[%d]", len(w.comms)) }

// Close unblocks all pending and future Send/Recv with ErrClosed.
func (w *World) Close() { w.stopCh.Close() }

/////////////
// memComm //
/////////////

func (c *memComm) Rank() int { return c.rank }
func (c *memComm) Size() int { return len(c.world.comms) }

func (c *memComm) String() string { return fmt.Sprintf("%s/r%d", c.world, c.rank) }

func (c *memComm) Send(ctx context.Context, dst int, tag Tag, b []byte) error {
	if err := CheckRank(c, dst); err != nil {
		return err
	}
	// no sharing between workers: the receiver gets its own copy
	m := msg{b: slices.Clone(b), tag: tag}
	if m.b == nil {
		m.b = []byte{}
	}
	select {
	case c.world.links[c.rank][dst] <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.world.stopCh.Listen():
		return ErrClosed
	}
}

func (c *memComm) Recv(ctx context.Context, src int, tag Tag) ([]byte, error) {
	if err := CheckRank(c, src); err != nil {
		return nil, err
	}
	select {
	case m := <-c.world.links[src][c.rank]:
		if m.tag != tag {
			return nil, &ErrTagMismatch{Expected: tag, Actual: m.tag, Src: src, Dst: c.rank}
		}
		return m.b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.world.stopCh.Listen():
		return nil, ErrClosed
	}
}
