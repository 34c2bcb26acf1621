// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"sync"
	"time"

	"github.com/NVIDIA/oesort/stats"

	jsoniter "github.com/json-iterator/go"
)

// PhaseInfo contains general stats and state for a given phase.
type PhaseInfo struct {
	Start time.Time `json:"started_time"`
	End   time.Time `json:"end_time"`
	// Elapsed time from start to end, once the phase has finished
	Elapsed time.Duration `json:"elapsed"`
	// Running and Finished both false: the phase has not started yet
	Running  bool `json:"running"`
	Finished bool `json:"finished"`

	mu sync.Mutex
}

// Metrics of a single worker's run; at rank 0 they span the entire job.
type Metrics struct {
	Scatter       PhaseInfo `json:"scatter"`
	LocalSort     PhaseInfo `json:"local_sort"`
	Transposition PhaseInfo `json:"transposition"`
	Gather        PhaseInfo `json:"gather"`
	Layout        Layout    `json:"layout"`
	Rounds        int       `json:"rounds"`
	Exchanges     int       `json:"exchanges"`
	SentSize      int64     `json:"sent_size,string"`
	RecvSize      int64     `json:"recv_size,string"`
}

func (pi *PhaseInfo) begin() {
	pi.mu.Lock()
	pi.Running = true
	pi.Start = time.Now()
	pi.mu.Unlock()
}

func (pi *PhaseInfo) finish() time.Duration {
	pi.mu.Lock()
	pi.Running = false
	pi.Finished = true
	pi.End = time.Now()
	pi.Elapsed = pi.End.Sub(pi.Start)
	elapsed := pi.Elapsed
	pi.mu.Unlock()
	return elapsed
}

// run phase `fn` under metrics: local timing plus the shared tracker
func (pi *PhaseInfo) run(tracker stats.Tracker, phase string, fn func() error) error {
	pi.begin()
	err := fn()
	tracker.ObserveWith(stats.Phase, phase, pi.finish())
	return err
}

func (m *Metrics) Marshal() ([]byte, error) { return jsoniter.Marshal(m) }

// Total spans the earliest started through the latest finished phase.
func (m *Metrics) Total() time.Duration {
	var start, end time.Time
	for _, pi := range []*PhaseInfo{&m.Scatter, &m.LocalSort, &m.Transposition, &m.Gather} {
		pi.mu.Lock()
		if !pi.Start.IsZero() && (start.IsZero() || pi.Start.Before(start)) {
			start = pi.Start
		}
		if pi.Finished && pi.End.After(end) {
			end = pi.End
		}
		pi.mu.Unlock()
	}
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}
