// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/NVIDIA/oesort/cmn/debug"
	"github.com/NVIDIA/oesort/memsys"
)

// wire format of a partition: fixed-size little-endian elements, back to back;
// floats travel as their IEEE-754 bits

type codec[T Elem] struct {
	mm    *memsys.MMSA
	size  int // bytes per element
	float bool
}

func newCodec[T Elem](mm *memsys.MMSA) codec[T] {
	return codec[T]{mm: mm, size: int(reflect.TypeFor[T]().Size()), float: isFloat[T]()}
}

// pack encodes `src` into a slab-allocated buffer; the caller frees it with mm.Free
func (c codec[T]) pack(src []T) ([]byte, *memsys.Slab) {
	buf, slab := c.mm.Alloc(int64(len(src) * c.size))
	c.encode(buf, src)
	return buf, slab
}

func (c codec[T]) encode(dst []byte, src []T) {
	debug.Assert(len(dst) == len(src)*c.size, len(dst), " vs ", len(src))
	switch {
	case c.size == 1:
		for i, v := range src {
			dst[i] = byte(v)
		}
	case c.size == 2:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
		}
	case c.size == 4 && c.float:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
		}
	case c.size == 4:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[4*i:], uint32(v))
		}
	case c.float:
		for i, v := range src {
			binary.LittleEndian.PutUint64(dst[8*i:], math.Float64bits(float64(v)))
		}
	default:
		for i, v := range src {
			binary.LittleEndian.PutUint64(dst[8*i:], uint64(v))
		}
	}
}

// decode fills `dst` from `src`; returns false if the sizes do not match.
func (c codec[T]) decode(dst []T, src []byte) bool {
	if len(src) != len(dst)*c.size {
		return false
	}
	switch {
	case c.size == 1:
		for i := range dst {
			dst[i] = T(src[i])
		}
	case c.size == 2:
		for i := range dst {
			dst[i] = T(binary.LittleEndian.Uint16(src[2*i:]))
		}
	case c.size == 4 && c.float:
		for i := range dst {
			dst[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:])))
		}
	case c.size == 4:
		for i := range dst {
			dst[i] = T(binary.LittleEndian.Uint32(src[4*i:]))
		}
	case c.float:
		for i := range dst {
			dst[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(src[8*i:])))
		}
	default:
		for i := range dst {
			dst[i] = T(binary.LittleEndian.Uint64(src[8*i:]))
		}
	}
	return true
}

func isFloat[T Elem]() bool {
	k := reflect.TypeFor[T]().Kind()
	return k == reflect.Float32 || k == reflect.Float64
}
