// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/comm"
	"github.com/NVIDIA/oesort/memsys"

	"github.com/pkg/errors"
)

// Endpoint is the tcp flavor of comm.Comm: one listener per rank,
// one lazily dialed connection per destination, one receive loop per accepted connection.
// Frames from a given source are delivered in the order they were sent.

const rxQueueLen = 4 // frames buffered per source before the receive loop blocks

const (
	dialRetryMin = 20 * time.Millisecond
	dialRetryMax = time.Second
)

type (
	Endpoint struct {
		ln     net.Listener
		mm     *memsys.MMSA
		conns  map[net.Conn]struct{} // accepted and dialed, to close on Close
		sessID string
		loghdr string
		conf   cmn.TransportConf
		peers  []*peer       // tx side, by destination rank
		rxq    []chan rxItem // rx side, by source rank
		tx, rx Stats
		stopCh cos.StopCh
		wg     sync.WaitGroup
		mu     sync.Mutex
		rank   int
	}
	peer struct {
		conn net.Conn
		addr string
		mu   sync.Mutex
	}
	rxItem struct {
		err error
		b   []byte
		tag comm.Tag
	}
)

// interface guard
var _ comm.Comm = (*Endpoint)(nil)

// Listen binds conf.Addrs[rank] and returns a running endpoint.
func Listen(rank int, conf *cmn.TransportConf, mm *memsys.MMSA) (*Endpoint, error) {
	if rank < 0 || rank >= len(conf.Addrs) {
		return nil, errors.Wrapf(comm.ErrInvalidRank, "rank %d (addrs %d)", rank, len(conf.Addrs))
	}
	lc := net.ListenConfig{Control: sockControl(conf)}
	ln, err := lc.Listen(context.Background(), "tcp", conf.Addrs[rank])
	if err != nil {
		return nil, errors.Wrapf(err, "rank %d: failed to listen", rank)
	}
	return New(ln, rank, conf, mm), nil
}

// New starts accepting on an already bound listener; conf.Addrs lists all peers
// by rank (the entry for this rank is not dialed).
func New(ln net.Listener, rank int, conf *cmn.TransportConf, mm *memsys.MMSA) *Endpoint {
	size := len(conf.Addrs)
	cos.Assertf(rank >= 0 && rank < size, "rank %d out of range [0, %d)", rank, size)
	if mm == nil {
		mm = memsys.DefaultMM()
	}
	e := &Endpoint{
		ln:     ln,
		mm:     mm,
		conf:   *conf,
		rank:   rank,
		sessID: cmn.GenUUID(),
		conns:  make(map[net.Conn]struct{}, 2*size),
		peers:  make([]*peer, size),
		rxq:    make([]chan rxItem, size),
	}
	if e.conf.DialTimeout <= 0 {
		e.conf.DialTimeout = cos.Duration(cmn.DefaultDialTimeout)
	}
	if e.conf.MaxFrame <= 0 {
		e.conf.MaxFrame = cmn.DefaultMaxFrame
	}
	e.loghdr = fmt.Sprintf("ep[%s]/r%d", e.sessID, rank)
	for r := range size {
		if r == rank {
			continue
		}
		e.peers[r] = &peer{addr: conf.Addrs[r]}
		e.rxq[r] = make(chan rxItem, rxQueueLen)
	}
	e.stopCh.Init()
	e.wg.Add(1)
	go e.accept()
	if nlog.V(1) {
		nlog.Infoln(e.loghdr, "listening on", ln.Addr(), "size", size)
	}
	return e
}

func (e *Endpoint) Rank() int          { return e.rank }
func (e *Endpoint) Size() int          { return len(e.peers) }
func (e *Endpoint) Addr() net.Addr     { return e.ln.Addr() }
func (e *Endpoint) SessID() string     { return e.sessID }
func (e *Endpoint) String() string     { return e.loghdr }
func (e *Endpoint) TxStats() StatsSnap { return e.tx.Snap() }
func (e *Endpoint) RxStats() StatsSnap { return e.rx.Snap() }

// Close stops the listener, closes all connections and waits for receive loops.
// Pending and subsequent Send/Recv fail with comm.ErrClosed.
func (e *Endpoint) Close() error {
	if e.stopCh.Stopped() {
		return nil
	}
	e.stopCh.Close()
	err := e.ln.Close()
	e.mu.Lock()
	for conn := range e.conns {
		conn.Close()
	}
	clear(e.conns)
	e.mu.Unlock()
	e.wg.Wait()
	if nlog.V(1) {
		nlog.Infoln(e.loghdr, "closed: tx [", e.tx.Snap(), "] rx [", e.rx.Snap(), "]")
	}
	return err
}

// register connection to close on Close; false if already closed
func (e *Endpoint) track(conn net.Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopCh.Stopped() {
		return false
	}
	e.conns[conn] = struct{}{}
	return true
}

func (e *Endpoint) untrack(conn net.Conn) {
	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()
}
