//go:build deadbeef

// Package memsys provides size-classed slab allocation of reusable byte buffers
// for encoding partitions and framing them on the wire.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

const deadBEEF = "DEADBEEF"

func deadbeef(b []byte) {
	l := len(b)
	for i := 0; i < l; i += len(deadBEEF) {
		copy(b[i:], deadBEEF)
	}
}
