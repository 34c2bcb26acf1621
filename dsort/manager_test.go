// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"
	"math"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/stats"
	"github.com/NVIDIA/oesort/tools/trand"

	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Manager", func() {
	var config *cmn.Config

	BeforeEach(func() {
		config = cmn.DefaultConfig()
		config.Workers = 4
		config.Sort.Verify = true
	})

	It("should sort and verify", func() {
		tracker, err := stats.NewProm(nil)
		Expect(err).NotTo(HaveOccurred())
		in := trand.Uint32s(10007, 1)
		out := make([]uint32, len(in))
		m := NewManager(config, tracker, in, out)
		Expect(m.Sort(context.Background())).To(Succeed())
		Expect(out).To(Equal(sorted(in)))

		Expect(m.InFP).NotTo(BeNil())
		Expect(m.InFP.Count).To(Equal(10007))
		Expect(m.Metrics.Layout).To(Equal(NewLayout(10007, 4)))
		Expect(tracker.Get(stats.Rounds)).To(BeEquivalentTo(16))
		Expect(tracker.Get(stats.Errors)).To(BeZero())

		b, err := jsoniter.Marshal(m)
		Expect(err).NotTo(HaveOccurred())
		var decoded map[string]any
		Expect(jsoniter.Unmarshal(b, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue("uuid", m.UUID))
		Expect(decoded).To(HaveKey("metrics"))
		Expect(decoded).To(HaveKey("input_fingerprint"))
	})

	It("should sort with a single worker", func() {
		config.Workers = 1
		out := make([]int16, 1)
		Expect(NewManager(config, nil, []int16{5}, out).Sort(context.Background())).To(Succeed())
		Expect(out).To(Equal([]int16{5}))
	})

	It("should reject NaN input", func() {
		in := []float64{1, math.NaN(), 3}
		err := NewManager(config, nil, in, make([]float64, 3)).Sort(context.Background())
		Expect(errors.Is(err, ErrNaN)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("input[1]"))
	})

	It("should reject mismatched lengths", func() {
		err := NewManager(config, nil, []int32{3, 2, 1}, make([]int32, 2)).Sort(context.Background())
		Expect(errors.Is(err, ErrLengthMismatch)).To(BeTrue())
	})

	It("should reject invalid config", func() {
		config.Workers = -1
		err := NewManager(config, nil, []int32{1}, make([]int32, 1)).Sort(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid number of workers"))
	})

	It("should count failed runs", func() {
		tracker, err := stats.NewProm(nil)
		Expect(err).NotTo(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		in := trand.Int64s(100, 10, 2)
		err = NewManager(config, tracker, in, make([]int64, len(in))).Sort(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(tracker.Get(stats.Errors)).To(BeEquivalentTo(1))
	})
})

var _ = Describe("Verify", func() {
	It("should accept an ordered permutation", func() {
		in := []int64{3, -1, 2, 2}
		Expect(Verify(NewFingerprint(in), []int64{-1, 2, 2, 3})).To(Succeed())
	})

	It("should detect disorder", func() {
		in := []int64{3, 1, 2}
		err := Verify(NewFingerprint(in), []int64{1, 3, 2})
		Expect(errors.Is(err, ErrVerify)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("index 2"))
	})

	It("should detect lost and duplicated elements", func() {
		in := []float32{1.5, 2.5, 3.5}
		Expect(errors.Is(Verify(NewFingerprint(in), []float32{1.5, 2.5, 2.5}), ErrVerify)).To(BeTrue())
		Expect(errors.Is(Verify(NewFingerprint(in), []float32{1.5, 2.5}), ErrVerify)).To(BeTrue())
		Expect(NewFingerprint(in)).To(Equal(NewFingerprint([]float32{3.5, 1.5, 2.5})))
	})
})
