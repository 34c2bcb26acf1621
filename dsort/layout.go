// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"fmt"

	"github.com/NVIDIA/oesort/cmn/cos"

	"github.com/tinylib/msgp/msgp"
)

// Layout describes how N elements are split across P workers:
// the input is padded with sentinels up to Padded = Size * P.
type Layout struct {
	N      int `json:"n"`
	P      int `json:"p"`
	Padded int `json:"padded"`
	Size   int `json:"size"` // elements per partition
}

// interface guard
var (
	_ msgp.Marshaler   = (*Layout)(nil)
	_ msgp.Unmarshaler = (*Layout)(nil)
	_ msgp.Sizer       = (*Layout)(nil)
)

func NewLayout(n, p int) Layout {
	cos.Assertf(n >= 0 && p > 0, "invalid layout n=%d, p=%d", n, p)
	pad := (p - n%p) % p
	return Layout{N: n, P: p, Padded: n + pad, Size: (n + pad) / p}
}

func (l *Layout) Pad() int { return l.Padded - l.N }

func (l *Layout) String() string {
	return fmt.Sprintf("layout[n=%d p=%d size=%d pad=%d]", l.N, l.P, l.Size, l.Pad())
}

// validate layout received over the wire
func (l *Layout) validate() error {
	if l.N < 0 || l.P < 1 || l.Size < 0 || l.Padded != l.Size*l.P || l.Padded < l.N || l.Padded-l.N >= l.P {
		return fmt.Errorf("invalid %s", l)
	}
	return nil
}

//
// msgpack (root => all broadcast)
//

func (z *Layout) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "n")
	o = msgp.AppendInt64(o, int64(z.N))
	o = msgp.AppendString(o, "p")
	o = msgp.AppendInt64(o, int64(z.P))
	o = msgp.AppendString(o, "padded")
	o = msgp.AppendInt64(o, int64(z.Padded))
	o = msgp.AppendString(o, "size")
	o = msgp.AppendInt64(o, int64(z.Size))
	return
}

func (z *Layout) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var (
		field  []byte
		zb0001 uint32
		v      int64
	)
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		switch msgp.UnsafeString(field) {
		case "n":
			v, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				return bts, msgp.WrapError(err, "N")
			}
			z.N = int(v)
		case "p":
			v, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				return bts, msgp.WrapError(err, "P")
			}
			z.P = int(v)
		case "padded":
			v, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				return bts, msgp.WrapError(err, "Padded")
			}
			z.Padded = int(v)
		case "size":
			v, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				return bts, msgp.WrapError(err, "Size")
			}
			z.Size = int(v)
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				return bts, msgp.WrapError(err)
			}
		}
	}
	return bts, nil
}

func (*Layout) Msgsize() int {
	return msgp.MapHeaderSize + 4*msgp.Int64Size +
		msgp.StringPrefixSize*4 + len("n") + len("p") + len("padded") + len("size")
}
