// Package stats provides methods and functionality to register, track, log,
// and export sorting metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "time"

// metric names (internal; see promNames for the exported ones)
const (
	Rounds     = "rounds.n"      // transposition rounds completed (active or idle)
	Exchanges  = "exchange.n"    // compare-split exchanges with a neighbor
	IdleRounds = "idle.n"        // rounds without a partner
	SentSize   = "sent.size"     // payload bytes sent (all phases)
	RecvSize   = "recv.size"     // payload bytes received (all phases)
	Errors     = "err.n"         // failed sort runs
	LocalSort  = "sort.local.ns" // local sort latency
	Exchange   = "exchange.ns"   // single exchange latency (send, receive, merge)
	Phase      = "phase.ns"      // per-phase latency; labeled by phase name
)

// phase labels
const (
	PhaseScatter   = "scatter"
	PhaseLocalSort = "local_sort"
	PhaseTranspose = "transposition"
	PhaseGather    = "gather"
)

// metric kinds
const (
	KindCounter = "counter"
	KindSize    = "size"
	KindLatency = "latency"
)

// Tracker is shared by all workers of a job (implementations are thread-safe).
type Tracker interface {
	Inc(name string)
	Add(name string, val int64)
	Observe(name string, d time.Duration)
	ObserveWith(name, label string, d time.Duration)
	Get(name string) int64
}
