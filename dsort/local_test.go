// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"math"
	"slices"

	"github.com/NVIDIA/oesort/memsys"
	"github.com/NVIDIA/oesort/tools/trand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tinylib/msgp/msgp"
)

type key int16

func roundTrip[T Elem](in []T) []T {
	c := newCodec[T](memsys.NewMMSA("test"))
	buf, slab := c.pack(in)
	defer c.mm.Free(buf, slab)
	ExpectWithOffset(1, buf).To(HaveLen(len(in) * c.size))
	out := make([]T, len(in))
	ExpectWithOffset(1, c.decode(out, buf)).To(BeTrue())
	return out
}

var _ = Describe("SortLocal", func() {
	DescribeTable("should sort ascending",
		func(n, cutoff int) {
			data := trand.Int64s(n, 1000, uint64(n))
			expected := slices.Clone(data)
			slices.Sort(expected)
			SortLocal(data, cutoff)
			Expect(data).To(Equal(expected))
		},
		Entry("empty", 0, 10),
		Entry("single", 1, 10),
		Entry("below cutoff", 9, 10),
		Entry("above cutoff", 1000, 10),
		Entry("cutoff 1", 1000, 1),
		Entry("default cutoff", 1000, 0),
		Entry("large cutoff", 500, 1000),
	)

	It("should handle duplicates and presorted input", func() {
		dup := []uint8{3, 3, 3, 1, 1, 2, 2, 2, 2, 0, 3, 1, 0, 0, 2, 3}
		SortLocal(dup, 2)
		Expect(slices.IsSorted(dup)).To(BeTrue())

		asc := make([]int32, 500)
		for i := range asc {
			asc[i] = int32(i)
		}
		desc := slices.Clone(asc)
		slices.Reverse(desc)
		SortLocal(asc, 10)
		SortLocal(desc, 10)
		Expect(desc).To(Equal(asc))
	})

	It("should sort negative and extreme values", func() {
		data := []int8{0, -1, 127, -128, 5, -5, 127, -128}
		SortLocal(data, 3)
		Expect(data).To(Equal([]int8{-128, -128, -5, -1, 0, 5, 127, 127}))

		floats := []float64{2.5, math.Inf(1), -0.5, math.Inf(-1), 0, 1e-9}
		SortLocal(floats, 1)
		Expect(floats).To(Equal([]float64{math.Inf(-1), -0.5, 0, 1e-9, 2.5, math.Inf(1)}))
	})
})

var _ = Describe("Sentinel", func() {
	It("should be the maximum value of the type", func() {
		Expect(Sentinel[int8]()).To(Equal(int8(math.MaxInt8)))
		Expect(Sentinel[int64]()).To(Equal(int64(math.MaxInt64)))
		Expect(Sentinel[uint16]()).To(Equal(uint16(math.MaxUint16)))
		Expect(Sentinel[uint64]()).To(Equal(uint64(math.MaxUint64)))
		Expect(Sentinel[key]()).To(Equal(key(math.MaxInt16)))
		Expect(math.IsInf(float64(Sentinel[float32]()), 1)).To(BeTrue())
		Expect(math.IsInf(Sentinel[float64](), 1)).To(BeTrue())
	})
})

var _ = Describe("Partner", func() {
	It("should pair neighbors by round parity", func() {
		// P = 4
		Expect([]int{Partner(0, 0, 4), Partner(1, 0, 4), Partner(2, 0, 4), Partner(3, 0, 4)}).To(Equal([]int{1, 0, 3, 2}))
		Expect([]int{Partner(0, 1, 4), Partner(1, 1, 4), Partner(2, 1, 4), Partner(3, 1, 4)}).To(Equal([]int{Idle, 2, 1, Idle}))
		// P = 3
		Expect([]int{Partner(0, 0, 3), Partner(1, 0, 3), Partner(2, 0, 3)}).To(Equal([]int{1, 0, Idle}))
		Expect([]int{Partner(0, 1, 3), Partner(1, 1, 3), Partner(2, 1, 3)}).To(Equal([]int{Idle, 2, 1}))
		// P = 1
		Expect(Partner(0, 0, 1)).To(Equal(Idle))
	})

	It("should be symmetric", func() {
		for p := 1; p <= 9; p++ {
			for round := range p {
				for rank := range p {
					peer := Partner(rank, round, p)
					if peer == Idle {
						continue
					}
					Expect(peer == rank-1 || peer == rank+1).To(BeTrue())
					Expect(Partner(peer, round, p)).To(Equal(rank), "p=%d round=%d rank=%d", p, round, rank)
				}
			}
		}
	})
})

var _ = Describe("compareSplit", func() {
	It("should keep the lower and the upper halves", func() {
		var (
			scratch = make([]int64, 3)
			mine    = []int64{1, 4, 7}
			theirs  = []int64{2, 3, 9}
		)
		compareSplit(mine, theirs, scratch, true)
		Expect(mine).To(Equal([]int64{1, 2, 3}))

		mine = []int64{2, 3, 9}
		theirs = []int64{1, 4, 7}
		compareSplit(mine, theirs, scratch, false)
		Expect(mine).To(Equal([]int64{4, 7, 9}))
	})

	It("should handle ties and empty partitions", func() {
		scratch := make([]uint8, 4)
		mine, theirs := []uint8{5, 5, 5, 5}, []uint8{5, 5, 6, 6}
		compareSplit(mine, theirs, scratch, false)
		Expect(mine).To(Equal([]uint8{5, 5, 6, 6}))

		compareSplit([]uint8{}, []uint8{}, []uint8{}, true)
	})

	It("should panic on size mismatch", func() {
		Expect(func() {
			compareSplit([]int32{1, 2}, []int32{1}, make([]int32, 2), true)
		}).To(Panic())
	})
})

var _ = Describe("codec", func() {
	It("should round-trip all element types", func() {
		Expect(roundTrip([]int8{-128, -1, 0, 127})).To(Equal([]int8{-128, -1, 0, 127}))
		Expect(roundTrip([]uint8{0, 255})).To(Equal([]uint8{0, 255}))
		Expect(roundTrip([]int16{math.MinInt16, -2, math.MaxInt16})).To(Equal([]int16{math.MinInt16, -2, math.MaxInt16}))
		Expect(roundTrip([]key{-7, 7})).To(Equal([]key{-7, 7}))
		Expect(roundTrip([]uint32{0, math.MaxUint32})).To(Equal([]uint32{0, math.MaxUint32}))
		Expect(roundTrip([]int32{math.MinInt32, math.MaxInt32})).To(Equal([]int32{math.MinInt32, math.MaxInt32}))
		Expect(roundTrip([]int64{math.MinInt64, -1, math.MaxInt64})).To(Equal([]int64{math.MinInt64, -1, math.MaxInt64}))
		Expect(roundTrip([]uint64{math.MaxUint64, 1})).To(Equal([]uint64{math.MaxUint64, 1}))

		f32 := []float32{float32(math.Inf(-1)), -1.5, 0, 3.25, math.MaxFloat32, float32(math.Inf(1))}
		Expect(roundTrip(f32)).To(Equal(f32))
		f64 := trand.Float64s(100, 1)
		Expect(roundTrip(f64)).To(Equal(f64))
		Expect(roundTrip([]float64{})).To(BeEmpty())
	})

	It("should reject a payload of the wrong size", func() {
		c := newCodec[uint32](memsys.DefaultMM())
		Expect(c.decode(make([]uint32, 2), make([]byte, 7))).To(BeFalse())
		Expect(c.decode(make([]uint32, 2), make([]byte, 8))).To(BeTrue())
	})
})

var _ = Describe("Layout", func() {
	DescribeTable("should pad up to a multiple of P",
		func(n, p, padded, size int) {
			l := NewLayout(n, p)
			Expect(l.Padded).To(Equal(padded))
			Expect(l.Size).To(Equal(size))
			Expect(l.Pad()).To(Equal(padded - n))
			Expect(l.validate()).NotTo(HaveOccurred())
		},
		Entry("even", 8, 4, 8, 2),
		Entry("uneven", 7, 4, 8, 2),
		Entry("prime", 10007, 4, 10008, 2502),
		Entry("fewer elements than workers", 3, 5, 5, 1),
		Entry("empty", 0, 3, 0, 0),
		Entry("single worker", 5, 1, 5, 5),
	)

	It("should round-trip msgpack and skip unknown fields", func() {
		l := NewLayout(10007, 4)
		b, err := l.MarshalMsg(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(b)).To(BeNumerically("<=", l.Msgsize()))

		var decoded Layout
		rest, err := decoded.UnmarshalMsg(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(rest).To(BeEmpty())
		Expect(decoded).To(Equal(l))

		// newer sender: extra field
		b = msgp.AppendMapHeader(nil, 5)
		b = msgp.AppendString(b, "version")
		b = msgp.AppendString(b, "v2")
		for _, kv := range []struct {
			k string
			v int
		}{{"n", 7}, {"p", 4}, {"padded", 8}, {"size", 2}} {
			b = msgp.AppendString(b, kv.k)
			b = msgp.AppendInt64(b, int64(kv.v))
		}
		decoded = Layout{}
		_, err = decoded.UnmarshalMsg(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(NewLayout(7, 4)))
	})

	It("should match msgpack keys exactly", func() {
		// keys sharing a first letter with known fields are not theirs
		b := msgp.AppendMapHeader(nil, 7)
		for _, kv := range []struct {
			k string
			v int
		}{{"pad", 99}, {"n", 9}, {"nodes", 99}, {"p", 2}, {"pp", 99}, {"padded", 10}, {"size", 5}} {
			b = msgp.AppendString(b, kv.k)
			b = msgp.AppendInt64(b, int64(kv.v))
		}
		var decoded Layout
		_, err := decoded.UnmarshalMsg(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(NewLayout(9, 2)))

		// wrong value type: error names the field
		b = msgp.AppendMapHeader(nil, 1)
		b = msgp.AppendString(b, "padded")
		b = msgp.AppendString(b, "ten")
		_, err = (&Layout{}).UnmarshalMsg(b)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Padded"))
	})

	It("should reject inconsistent layouts", func() {
		Expect((&Layout{N: 7, P: 4, Padded: 12, Size: 3}).validate()).To(HaveOccurred())
		Expect((&Layout{N: 8, P: 4, Padded: 8, Size: 3}).validate()).To(HaveOccurred())
		Expect((&Layout{N: 8, P: 0}).validate()).To(HaveOccurred())
		_, err := (&Layout{}).UnmarshalMsg([]byte{0xc1})
		Expect(err).To(HaveOccurred())
	})
})
