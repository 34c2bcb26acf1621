// Package cos provides common low-level types and utilities for all oesort packages.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "sync"

// StopCh is specialized channel for stopping things.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func (sc *StopCh) Init() { sc.ch = make(chan struct{}, 1) }

func (sc *StopCh) Listen() <-chan struct{} { return sc.ch }

func (sc *StopCh) Close() { sc.once.Do(func() { close(sc.ch) }) }

func (sc *StopCh) Stopped() bool {
	select {
	case <-sc.ch:
		return true
	default:
		return false
	}
}
