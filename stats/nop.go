// Package stats provides methods and functionality to register, track, log,
// and export sorting metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "time"

type Nop struct{}

// interface guard
var _ Tracker = (*Nop)(nil)

func (*Nop) Inc(string)                                {}
func (*Nop) Add(string, int64)                         {}
func (*Nop) Observe(string, time.Duration)             {}
func (*Nop) ObserveWith(string, string, time.Duration) {}
func (*Nop) Get(string) int64                          { return 0 }
