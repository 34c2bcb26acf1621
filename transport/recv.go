// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/comm"

	"github.com/pierrec/lz4/v4"
)

// Recv blocks until the next frame from `src` arrives; frames from the same
// source are consumed strictly in order, and the tag must match.
func (e *Endpoint) Recv(ctx context.Context, src int, tag comm.Tag) ([]byte, error) {
	if err := comm.CheckRank(e, src); err != nil {
		return nil, err
	}
	select {
	case item := <-e.rxq[src]:
		if item.err != nil {
			return nil, item.err
		}
		if item.tag != tag {
			return nil, &comm.ErrTagMismatch{Expected: tag, Actual: item.tag, Src: src, Dst: e.rank}
		}
		return item.b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.stopCh.Listen():
		return nil, comm.ErrClosed
	}
}

func (e *Endpoint) accept() {
	defer e.wg.Done()
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			if !e.stopCh.Stopped() && !cos.IsErrClosed(err) {
				nlog.Errorln(e.loghdr, "accept:", err)
			}
			return
		}
		if !e.track(conn) {
			conn.Close()
			return
		}
		if nlog.V(4) {
			nlog.Infoln(e.loghdr, "accepted", conn.RemoteAddr())
		}
		e.wg.Add(1)
		go e.rxloop(conn)
	}
}

// rxloop reads frames off one connection and demultiplexes them by source rank.
// All frames on a given connection must come from the same source.
func (e *Endpoint) rxloop(conn net.Conn) {
	var (
		hbuf [sizeofHdr]byte
		src  = -1
	)
	defer func() {
		e.untrack(conn)
		conn.Close()
		e.wg.Done()
	}()
	for {
		if _, err := io.ReadFull(conn, hbuf[:]); err != nil {
			if e.stopCh.Stopped() {
				return
			}
			if cos.IsErrClosed(err) {
				e.rxerr(src, sbrPeerClosed, ErrPeerClosed, conn.RemoteAddr().String())
			} else {
				e.rxerr(src, sbrHdr, err, "")
			}
			return
		}
		var h hdr
		if err := cos.NewUnpacker(hbuf[:]).ReadAny(&h); err != nil {
			e.rxerr(src, sbrHdr, err, "")
			return
		}
		if int(h.dst) != e.rank {
			e.rxerr(src, sbrHdrDst, nil, h.String())
			return
		}
		if int(h.src) < 0 || int(h.src) >= e.Size() || int(h.src) == e.rank || (src >= 0 && int(h.src) != src) {
			e.rxerr(src, sbrHdrSrc, nil, h.String())
			return
		}
		src = int(h.src)
		if h.bodyLen < 0 || h.rawLen < 0 || h.bodyLen > int64(e.conf.MaxFrame) || h.rawLen > int64(e.conf.MaxFrame) {
			e.rxerr(src, sbrFrameTooBig, nil, fmt.Sprintf("%s, max %s", &h, e.conf.MaxFrame))
			return
		}
		b, code, err := e.readBody(conn, &h)
		if err != nil {
			if e.stopCh.Stopped() {
				return
			}
			e.rxerr(src, code, err, h.String())
			return
		}
		e.rx.add(h.rawLen, h.bodyLen)
		if !e.deliver(src, rxItem{b: b, tag: h.tag}) {
			return
		}
	}
}

// returns a freshly allocated (receiver-owned) payload
func (e *Endpoint) readBody(conn net.Conn, h *hdr) (b []byte, code string, err error) {
	b = make([]byte, h.rawLen)
	if !h.compressed() {
		if h.bodyLen != h.rawLen {
			return nil, sbrRawSize, fmt.Errorf("body %d != raw %d", h.bodyLen, h.rawLen)
		}
		if _, err = io.ReadFull(conn, b); err != nil {
			return nil, sbrBody, err
		}
	} else {
		zbuf, slab := e.mm.Alloc(h.bodyLen)
		defer e.mm.Free(zbuf, slab)
		if _, err = io.ReadFull(conn, zbuf); err != nil {
			return nil, sbrBody, err
		}
		n, err := lz4.UncompressBlock(zbuf, b)
		if err != nil {
			return nil, sbrDecompress, err
		}
		if int64(n) != h.rawLen {
			return nil, sbrRawSize, fmt.Errorf("decompressed %d != raw %d", n, h.rawLen)
		}
	}
	if h.checksummed() {
		if actual := cos.ChecksumB(b); actual != h.cksum {
			return nil, sbrChecksum, cos.NewErrBadCksum(h.cksum, actual, e.loghdr)
		}
	}
	return b, "", nil
}

// report receive-side breakage to whoever waits on `src`; unknown source is only logged
func (e *Endpoint) rxerr(src int, code string, err error, ctx string) {
	sbr := newErrSBR(e.loghdr, src, code, err, ctx)
	switch {
	case code != sbrPeerClosed:
		nlog.Errorln(sbr)
	case nlog.V(4):
		nlog.Infoln(sbr)
	}
	if src >= 0 {
		e.deliver(src, rxItem{err: sbr})
	}
}

func (e *Endpoint) deliver(src int, item rxItem) bool {
	select {
	case e.rxq[src] <- item:
		return true
	case <-e.stopCh.Listen():
		return false
	}
}
