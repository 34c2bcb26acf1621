// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"net"
	"time"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/comm"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

var aLongTimeAgo = time.Unix(1, 0)

// Send frames `b` and writes it to the destination, dialing on first use.
// Returns once the frame is handed over to the connection; `b` can then be reused.
func (e *Endpoint) Send(ctx context.Context, dst int, tag comm.Tag, b []byte) error {
	if err := comm.CheckRank(e, dst); err != nil {
		return err
	}
	if e.stopCh.Stopped() {
		return comm.ErrClosed
	}
	if int64(len(b)) > int64(e.conf.MaxFrame) {
		return errors.Errorf("%s => r%d: %s payload size %d exceeds max frame %s", e.loghdr, dst, tag, len(b), e.conf.MaxFrame)
	}
	h := hdr{src: int32(e.rank), dst: int32(dst), tag: tag, rawLen: int64(len(b))}
	body := b
	if e.conf.Checksummed() {
		h.flags |= flagChecksum
		h.cksum = cos.ChecksumB(b)
	}
	if e.conf.Compressed() && len(b) > 0 {
		zbuf, slab := e.mm.Alloc(int64(lz4.CompressBlockBound(len(b))))
		defer e.mm.Free(zbuf, slab)
		n, err := lz4.CompressBlock(b, zbuf, nil)
		if err != nil {
			return errors.Wrapf(err, "%s => r%d: failed to compress %s", e.loghdr, dst, tag)
		}
		// n == 0: incompressible, send as is
		if n > 0 && n < len(b) {
			body = zbuf[:n]
			h.flags |= flagCompressed
		}
	}
	h.bodyLen = int64(len(body))

	var hbuf [sizeofHdr]byte
	packer := cos.NewPacker(hbuf[:], sizeofHdr)
	packer.WriteAny(&h)

	p := e.peers[dst]
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		conn, err := e.dial(ctx, p.addr)
		if err != nil {
			return errors.Wrapf(err, "%s => r%d: failed to connect to %s", e.loghdr, dst, p.addr)
		}
		p.conn = conn
	}
	conn := p.conn
	stop := context.AfterFunc(ctx, func() { conn.SetWriteDeadline(aLongTimeAgo) })
	bufs := net.Buffers{hbuf[:], body}
	_, err := bufs.WriteTo(conn)
	if !stop() || err != nil {
		// deadline may have been set; the connection is not reusable
		e.untrack(conn)
		conn.Close()
		p.conn = nil
	}
	switch {
	case err == nil:
	case e.stopCh.Stopped():
		return comm.ErrClosed
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return errors.Wrapf(err, "%s => r%d: failed to send %s", e.loghdr, dst, &h)
	}
	e.tx.add(h.rawLen, h.bodyLen)
	return nil
}

// dial with retries: peers come up in no particular order
func (e *Endpoint) dial(ctx context.Context, addr string) (net.Conn, error) {
	var (
		timeout  = e.conf.DialTimeout.D()
		deadline = time.Now().Add(timeout)
		dialer   = net.Dialer{Timeout: timeout, Control: sockControl(&e.conf)}
		sleep    = dialRetryMin
	)
	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			if !e.track(conn) {
				conn.Close()
				return nil, comm.ErrClosed
			}
			if nlog.V(4) {
				nlog.Infoln(e.loghdr, "connected to", addr)
			}
			return conn, nil
		}
		if !cos.IsRetriableConnErr(err) || time.Now().After(deadline) {
			return nil, err
		}
		if sleep == dialRetryMin {
			nlog.Warningf("%s: %s is not ready (%v), retrying for up to %v", e.loghdr, addr, err, timeout)
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.stopCh.Listen():
			return nil, comm.ErrClosed
		}
		sleep = min(2*sleep, dialRetryMax)
	}
}
