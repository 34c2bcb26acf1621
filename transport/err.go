// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"strconv"
	"strings"

	"github.com/NVIDIA/oesort/cmn/cos"

	"github.com/pkg/errors"
)

// ErrSBR codes (receive-side stream breakage)
const (
	sbrHdr         = "sbr_hdr"         // failed to read or parse frame header
	sbrHdrDst      = "sbr_hdr_dst"     // frame addressed to a different rank
	sbrHdrSrc      = "sbr_hdr_src"     // unknown source rank, or source changed mid-connection
	sbrFrameTooBig = "sbr_frame_big"   // body exceeds configured max frame
	sbrBody        = "sbr_body"        // body read failure
	sbrDecompress  = "sbr_decompress"  // lz4 block decompression failed
	sbrRawSize     = "sbr_raw_size"    // decompressed size mismatch
	sbrChecksum    = "sbr_checksum"    // payload checksum mismatch
	sbrPeerClosed  = "sbr_peer_closed" // peer closed the connection
)

var ErrPeerClosed = errors.New("peer closed connection")

// (do not wrap these errors; use Unwrap)
type ErrSBR struct {
	err    error
	loghdr string
	code   string
	ctx    string
	src    int
}

func newErrSBR(loghdr string, src int, code string, err error, ctx string) *ErrSBR {
	return &ErrSBR{err: err, loghdr: loghdr, src: src, code: code, ctx: ctx}
}

func (e *ErrSBR) Error() string {
	var sb strings.Builder
	sb.Grow(128)
	sb.WriteString(e.loghdr)
	sb.WriteString(" <= r")
	sb.WriteString(strconv.Itoa(e.src))
	sb.WriteByte(' ')
	sb.WriteString(e.code)
	sb.WriteString(":[")
	if e.ctx != "" {
		sb.WriteString("ctx: ")
		sb.WriteString(e.ctx)
	}
	if e.err != nil {
		if e.ctx != "" {
			sb.WriteByte(' ')
		}
		sb.WriteString("err: ")
		sb.WriteString(e.err.Error())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (e *ErrSBR) Unwrap() error { return e.err }
func (e *ErrSBR) Src() int      { return e.src }
func (e *ErrSBR) Code() string  { return e.code }

func AsErrSBR(err error) *ErrSBR {
	var e *ErrSBR
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// payload arrived but does not match its checksum
func IsErrBadChecksum(err error) bool {
	var e *cos.ErrBadCksum
	return errors.As(err, &e)
}
