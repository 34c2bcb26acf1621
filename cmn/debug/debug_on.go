//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"

	"github.com/NVIDIA/oesort/cmn/nlog"
)

func Assert(cond bool, a ...any) {
	if !cond {
		nlog.Flush(true)
		if len(a) > 0 {
			panic("DEBUG PANIC: " + fmt.Sprint(a...))
		}
		panic("DEBUG PANIC")
	}
}

func AssertFunc(f func() bool, a ...any) { Assert(f(), a...) }

func AssertNoErr(err error) {
	if err != nil {
		nlog.Flush(true)
		panic(err)
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		Assert(false, fmt.Sprintf(f, a...))
	}
}
