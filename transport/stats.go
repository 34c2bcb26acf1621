// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"fmt"
	ratomic "sync/atomic"
)

type (
	// endpoint stats, one instance per direction
	Stats struct {
		Num            ratomic.Int64 // number of transferred frames including zero size
		Size           ratomic.Int64 // transferred payload size (does not include transport headers)
		CompressedSize ratomic.Int64 // size on the wire (equals Size when not compressed)
	}
	StatsSnap struct {
		Num            int64 `json:"num"`
		Size           int64 `json:"size"`
		CompressedSize int64 `json:"compressed_size"`
	}
)

func (s *Stats) add(size, wire int64) {
	s.Num.Add(1)
	s.Size.Add(size)
	s.CompressedSize.Add(wire)
}

func (s *Stats) Snap() StatsSnap {
	return StatsSnap{Num: s.Num.Load(), Size: s.Size.Load(), CompressedSize: s.CompressedSize.Load()}
}

func (s StatsSnap) String() string {
	return fmt.Sprintf("num %d, size %d, wire %d", s.Num, s.Size, s.CompressedSize)
}
