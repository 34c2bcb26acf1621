// Package memsys provides size-classed slab allocation of reusable byte buffers
// for encoding partitions and framing them on the wire.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"fmt"
	"math/bits"
	"strings"
	"sync"
	ratomic "sync/atomic"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/debug"
)

// ============== Memory Manager Slab Allocator (MMSA) ===========================
//
// Slabs are power-of-two size classes from MinSlabSize to MaxSlabSize.
// Alloc(size) returns a buffer of exactly `size` bytes carved out of the smallest
// slab that fits; Free returns it to that slab. Requests above MaxSlabSize are
// served directly by the Go heap and not pooled.
//
// Every exchanged partition is encoded into (and decoded out of) these buffers,
// so that a sort over P workers and P rounds reuses a handful of allocations
// instead of producing 2*P garbage buffers per worker.

const (
	MinSlabSize = 4 * cos.KiB
	MaxSlabSize = 64 * cos.MiB

	minSlabShift = 12 // log2(MinSlabSize)
	NumSlabs     = 15 // 4KiB, 8KiB, ..., 64MiB
)

type (
	MMSA struct {
		Name  string
		slabs [NumSlabs]*Slab
		large struct {
			num  ratomic.Int64
			size ratomic.Int64
		}
	}
	Slab struct {
		pool    sync.Pool
		tag     string
		bufSize int64
		stats   struct {
			hits   ratomic.Int64
			misses ratomic.Int64
			frees  ratomic.Int64
		}
	}
	SlabStats struct {
		BufSize int64
		Hits    int64
		Misses  int64
		Frees   int64
	}
	Stats struct {
		Slabs     []SlabStats
		LargeNum  int64
		LargeSize int64
	}
)

var (
	defaultMM     *MMSA
	defaultMMOnce sync.Once
)

// DefaultMM returns process-wide MMSA (lazily initialized).
func DefaultMM() *MMSA {
	defaultMMOnce.Do(func() {
		defaultMM = NewMMSA("default")
	})
	return defaultMM
}

func NewMMSA(name string) *MMSA {
	mm := &MMSA{Name: name}
	for i := range mm.slabs {
		slab := &Slab{bufSize: int64(MinSlabSize) << i}
		slab.tag = name + "." + cos.ToSizeIEC(slab.bufSize, 0)
		slab.pool.New = func() any {
			slab.stats.misses.Add(1)
			b := make([]byte, slab.bufSize)
			return &b
		}
		mm.slabs[i] = slab
	}
	return mm
}

func (mm *MMSA) String() string { return "mm[" + mm.Name + "]" }

// GetSlab returns the smallest slab that accommodates `size` or nil if size > MaxSlabSize.
func (mm *MMSA) GetSlab(size int64) *Slab {
	if size > MaxSlabSize {
		return nil
	}
	if size <= MinSlabSize {
		return mm.slabs[0]
	}
	idx := bits.Len64(uint64(size-1)) - minSlabShift
	debug.Assert(idx > 0 && idx < NumSlabs, size, idx)
	return mm.slabs[idx]
}

// Alloc returns a buffer of length `size`; the slab is nil for large allocations.
func (mm *MMSA) Alloc(size int64) ([]byte, *Slab) {
	slab := mm.GetSlab(size)
	if slab == nil {
		mm.large.num.Add(1)
		mm.large.size.Add(size)
		return make([]byte, size), nil
	}
	return slab.Alloc()[:size], slab
}

// Free returns buffer to its slab; nil slab (large alloc) is a no-op.
func (*MMSA) Free(buf []byte, slab *Slab) {
	if slab != nil {
		slab.Free(buf)
	}
}

func (mm *MMSA) GetStats() *Stats {
	stats := &Stats{Slabs: make([]SlabStats, 0, NumSlabs)}
	for _, slab := range mm.slabs {
		stats.Slabs = append(stats.Slabs, slab.Stats())
	}
	stats.LargeNum = mm.large.num.Load()
	stats.LargeSize = mm.large.size.Load()
	return stats
}

func (s *Stats) String() string {
	var sb strings.Builder
	for _, ss := range s.Slabs {
		if ss.Hits+ss.Misses == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s: hits %d, misses %d, frees %d; ", cos.ToSizeIEC(ss.BufSize, 0), ss.Hits, ss.Misses, ss.Frees)
	}
	fmt.Fprintf(&sb, "large: %d (%s)", s.LargeNum, cos.ToSizeIEC(s.LargeSize, 0))
	return sb.String()
}

//////////
// Slab //
//////////

func (s *Slab) Size() int64    { return s.bufSize }
func (s *Slab) Tag() string    { return s.tag }
func (s *Slab) String() string { return "slab[" + s.tag + "]" }

func (s *Slab) Alloc() []byte {
	s.stats.hits.Add(1)
	bp := s.pool.Get().(*[]byte)
	return (*bp)[:s.bufSize]
}

func (s *Slab) Free(buf []byte) {
	debug.Assert(int64(cap(buf)) == s.bufSize, s.tag, " vs ", cap(buf))
	buf = buf[:cap(buf)]
	deadbeef(buf)
	s.stats.frees.Add(1)
	s.pool.Put(&buf)
}

func (s *Slab) Stats() SlabStats {
	misses := s.stats.misses.Load()
	return SlabStats{
		BufSize: s.bufSize,
		Hits:    s.stats.hits.Load() - misses,
		Misses:  misses,
		Frees:   s.stats.frees.Load(),
	}
}
