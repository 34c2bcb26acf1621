// Package comm provides the communicator handle that connects the workers of one
// distributed sort: point-to-point blocking send/receive plus collectives built on top.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package comm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// message direction (kind); together with the round number forms the Tag
type Dir uint8

const (
	DirNone    Dir = iota
	DirLayout      // root => all: layout broadcast
	DirScatter     // root => rank: initial partition
	DirUp          // rank r => r+1
	DirDown        // rank r => r-1
	DirGather      // rank => root: final partition
)

var dirNames = [...]string{
	DirNone:    "none",
	DirLayout:  "layout",
	DirScatter: "scatter",
	DirUp:      "up",
	DirDown:    "down",
	DirGather:  "gather",
}

type (
	Tag struct {
		Round int32
		Dir   Dir
	}

	// Comm is owned by exactly one worker; Send and Recv block until the peer
	// takes (or provides) the message, or ctx is done.
	// Received buffers are owned by the caller; buffers passed to Send may be
	// reused by the caller as soon as Send returns.
	Comm interface {
		Rank() int
		Size() int
		Send(ctx context.Context, dst int, tag Tag, b []byte) error
		Recv(ctx context.Context, src int, tag Tag) ([]byte, error)
	}
)

var (
	ErrInvalidRank = errors.New("invalid rank")
	ErrClosed      = errors.New("communicator closed")
)

type ErrTagMismatch struct {
	Expected, Actual Tag
	Src, Dst         int
}

func (d Dir) String() string {
	if int(d) < len(dirNames) {
		return dirNames[d]
	}
	return "dir-" + strconv.Itoa(int(d))
}

func (t Tag) String() string { return fmt.Sprintf("%s[%d]", t.Dir, t.Round) }

func (e *ErrTagMismatch) Error() string {
	return fmt.Sprintf("rank %d: unexpected message from rank %d: expected %s, got %s", e.Dst, e.Src, e.Expected, e.Actual)
}

func IsErrTagMismatch(err error) bool {
	var e *ErrTagMismatch
	return errors.As(err, &e)
}

// CheckRank validates peer rank (must exist and differ from own rank).
func CheckRank(c Comm, rank int) error {
	if rank < 0 || rank >= c.Size() || rank == c.Rank() {
		return errors.Wrapf(ErrInvalidRank, "rank %d: peer %d (size %d)", c.Rank(), rank, c.Size())
	}
	return nil
}
