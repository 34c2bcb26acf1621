// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"fmt"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/comm"
)

// frame := header | body
//
// header (fixed size, big-endian):
//   magic(4) src(4) dst(4) round(4) dir(1) flags(1) rawLen(8) bodyLen(8) cksum(8)
// body:
//   payload, lz4-compressed when flagCompressed is set;
//   cksum is xxhash64 of the uncompressed payload when flagChecksum is set

const (
	frameMagic = 0x6f657331 // "oes1"

	flagCompressed = 1 << 0
	flagChecksum   = 1 << 1

	sizeofHdr = cos.SizeofI32*4 + cos.SizeofI8*2 + cos.SizeofI64*3
)

type hdr struct {
	src, dst int32
	tag      comm.Tag
	flags    uint8
	rawLen   int64
	bodyLen  int64
	cksum    uint64
}

// interface guard
var (
	_ cos.Packer   = (*hdr)(nil)
	_ cos.Unpacker = (*hdr)(nil)
)

func (*hdr) PackedSize() int { return sizeofHdr }

func (h *hdr) Pack(p *cos.BytePack) {
	p.WriteUint32(frameMagic)
	p.WriteInt32(h.src)
	p.WriteInt32(h.dst)
	p.WriteInt32(h.tag.Round)
	p.WriteUint8(uint8(h.tag.Dir))
	p.WriteUint8(h.flags)
	p.WriteInt64(h.rawLen)
	p.WriteInt64(h.bodyLen)
	p.WriteUint64(h.cksum)
}

func (h *hdr) Unpack(u *cos.ByteUnpack) (err error) {
	var (
		magic uint32
		b     uint8
	)
	if magic, err = u.ReadUint32(); err != nil {
		return err
	}
	if magic != frameMagic {
		return fmt.Errorf("bad frame magic %#x", magic)
	}
	if h.src, err = u.ReadInt32(); err != nil {
		return err
	}
	if h.dst, err = u.ReadInt32(); err != nil {
		return err
	}
	if h.tag.Round, err = u.ReadInt32(); err != nil {
		return err
	}
	if b, err = u.ReadUint8(); err != nil {
		return err
	}
	h.tag.Dir = comm.Dir(b)
	if h.flags, err = u.ReadUint8(); err != nil {
		return err
	}
	if h.rawLen, err = u.ReadInt64(); err != nil {
		return err
	}
	if h.bodyLen, err = u.ReadInt64(); err != nil {
		return err
	}
	h.cksum, err = u.ReadUint64()
	return err
}

func (h *hdr) compressed() bool  { return h.flags&flagCompressed != 0 }
func (h *hdr) checksummed() bool { return h.flags&flagChecksum != 0 }

func (h *hdr) String() string {
	return fmt.Sprintf("frame[r%d=>r%d %s raw %d body %d flags %#x]", h.src, h.dst, h.tag, h.rawLen, h.bodyLen, h.flags)
}
