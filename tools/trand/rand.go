// Package trand provides random datasets for dev tools and tests
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package trand

import "math/rand/v2"

const letterRunes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func String(n int) string {
	b := make([]byte, n)
	for i := range n {
		b[i] = letterRunes[rand.IntN(len(letterRunes))]
	}
	return string(b)
}

// Uint32s returns n pseudo-random values; same seed => same sequence.
func Uint32s(n int, seed uint64) []uint32 {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]uint32, n)
	for i := range out {
		out[i] = rnd.Uint32()
	}
	return out
}

// Int64s returns n values in [-limit, limit).
func Int64s(n int, limit int64, seed uint64) []int64 {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]int64, n)
	for i := range out {
		out[i] = rnd.Int64N(2*limit) - limit
	}
	return out
}

func Float64s(n int, seed uint64) []float64 {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = rnd.NormFloat64() * 1e6
	}
	return out
}
