// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var base = time.Now()

// NanoTime returns monotonic nanoseconds since process start.
func NanoTime() int64 { return int64(time.Since(base)) }

func Since(started int64) time.Duration { return time.Duration(NanoTime() - started) }
