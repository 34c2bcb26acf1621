// Package nlog - oesort logger, provides buffering, timestamping, writing, and flushing
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"io"
	"time"
)

type fixed struct {
	buf  []byte
	woff int
}

// interface guard
var _ io.Writer = (*fixed)(nil)

func (fb *fixed) Write(p []byte) (int, error) {
	n := copy(fb.buf[fb.woff:], p)
	fb.woff += n
	return len(p), nil // silent discard
}

// private

func (fb *fixed) writeString(p string) {
	n := copy(fb.buf[fb.woff:], p)
	fb.woff += n
}

func (fb *fixed) writeByte(c byte) {
	if fb.avail() > 0 {
		fb.buf[fb.woff] = c
		fb.woff++
	}
}

// "15:04:05.000000"
func (fb *fixed) writeStamp() {
	now := time.Now()
	hour, minute, second := now.Clock()

	fb.ab(hour)
	fb.writeByte(':')
	fb.ab(minute)
	fb.writeByte(':')
	fb.ab(second)
	fb.writeByte('.')
	fb.abcdef(now.Nanosecond() / 1000)
}

const digits = "0123456789"

func (fb *fixed) ab(d int) {
	fb.writeByte(digits[d/10])
	fb.writeByte(digits[d%10])
}

func (fb *fixed) abcdef(micros int) {
	var tmp [6]byte
	for j := 5; j >= 0; j-- {
		tmp[j] = digits[micros%10]
		micros /= 10
	}
	fb.Write(tmp[:])
}

func (fb *fixed) reset()     { fb.woff = 0 }
func (fb *fixed) avail() int { return cap(fb.buf) - fb.woff }

func (fb *fixed) eol() {
	if fb.woff > 0 && fb.buf[fb.woff-1] == '\n' {
		return
	}
	if fb.avail() == 0 {
		fb.woff--
	}
	fb.buf[fb.woff] = '\n'
	fb.woff++
}
