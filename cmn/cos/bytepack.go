// Package cos provides common low-level types and utilities for all oesort packages.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"encoding/binary"
	"errors"

	"github.com/NVIDIA/oesort/cmn/debug"
)

// Compact binary packing of fixed layouts (transport frame headers and such).
// No type checking: fields must be read back in the order they were written.
// Writers do not grow the buffer - the caller allocates PackedSize() upfront.

const (
	SizeofI64 = 8
	SizeofI32 = 4
	SizeofI8  = 1
)

type (
	BytePack struct {
		off int
		b   []byte
	}
	ByteUnpack struct {
		off int
		b   []byte
	}

	Unpacker interface {
		Unpack(unpacker *ByteUnpack) error
	}
	Packer interface {
		Pack(packer *BytePack)
		PackedSize() int
	}
)

var ErrBufferUnderrun = errors.New("buffer underrun")

func NewPacker(buf []byte, bufLen int) *BytePack {
	if buf == nil {
		return &BytePack{b: make([]byte, bufLen)}
	}
	return &BytePack{b: buf}
}

func NewUnpacker(buf []byte) *ByteUnpack { return &ByteUnpack{b: buf} }

//
// Unpacker
//

func (br *ByteUnpack) ReadUint8() (uint8, error) {
	if br.off >= len(br.b) {
		return 0, ErrBufferUnderrun
	}
	b := br.b[br.off]
	br.off++
	return b, nil
}

func (br *ByteUnpack) ReadInt64() (int64, error) {
	n, err := br.ReadUint64()
	return int64(n), err
}

func (br *ByteUnpack) ReadUint64() (uint64, error) {
	if len(br.b)-br.off < SizeofI64 {
		return 0, ErrBufferUnderrun
	}
	n := binary.BigEndian.Uint64(br.b[br.off:])
	br.off += SizeofI64
	return n, nil
}

func (br *ByteUnpack) ReadInt32() (int32, error) {
	n, err := br.ReadUint32()
	return int32(n), err
}

func (br *ByteUnpack) ReadUint32() (uint32, error) {
	if len(br.b)-br.off < SizeofI32 {
		return 0, ErrBufferUnderrun
	}
	n := binary.BigEndian.Uint32(br.b[br.off:])
	br.off += SizeofI32
	return n, nil
}

func (br *ByteUnpack) ReadAny(st Unpacker) error { return st.Unpack(br) }

//
// Packer
//

func (bw *BytePack) WriteUint8(b uint8) {
	bw.b[bw.off] = b
	bw.off++
}

func (bw *BytePack) WriteInt64(i int64) { bw.WriteUint64(uint64(i)) }

func (bw *BytePack) WriteUint64(i uint64) {
	binary.BigEndian.PutUint64(bw.b[bw.off:], i)
	bw.off += SizeofI64
}

func (bw *BytePack) WriteInt32(i int32) { bw.WriteUint32(uint32(i)) }

func (bw *BytePack) WriteUint32(i uint32) {
	binary.BigEndian.PutUint32(bw.b[bw.off:], i)
	bw.off += SizeofI32
}

// WriteAny packs st; debug builds check st.PackedSize() against the bytes written.
func (bw *BytePack) WriteAny(st Packer) {
	prev := bw.off
	st.Pack(bw)
	debug.Assertf(bw.off-prev == st.PackedSize(), "%T declared %d, saved %d: %+v", st, st.PackedSize(), bw.off-prev, st)
}

func (bw *BytePack) Bytes() []byte { return bw.b[:bw.off] }
