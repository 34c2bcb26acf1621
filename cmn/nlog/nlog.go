// Package nlog - oesort logger, provides buffering, timestamping, writing, and flushing
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NVIDIA/oesort/cmn/mono"
)

const (
	nlogBufSize  = 64 * 1024
	nlogLineSize = 4 * 1024

	flushInterval = 10 * time.Second
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{sevInfo: 'I', sevWarn: 'W', sevErr: 'E'}

type nlog struct {
	file *os.File
	buf  *fixed
	last int64 // mono
	mw   sync.Mutex
}

var (
	nl *nlog

	logDir   string
	title    string
	toStderr atomic.Bool

	onceInit sync.Once

	// of line-size `fixed` bufs
	pool = sync.Pool{
		New: func() any { return &fixed{buf: make([]byte, nlogLineSize)} },
	}
)

func initFile() {
	nl = &nlog{buf: &fixed{buf: make([]byte, nlogBufSize)}, last: mono.NanoTime()}
	nl.mw.Lock()
	nl.open()
	nl.mw.Unlock()
}

// under mw-lock
func (nl *nlog) open() {
	if logDir == "" {
		toStderr.Store(true)
	}
	if toStderr.Load() {
		return
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "nlog: failed to create %q: %v (logging to stderr)\n", logDir, err)
		toStderr.Store(true)
		return
	}
	fname := filepath.Join(logDir, LogName())
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nlog: failed to open %q: %v (logging to stderr)\n", fname, err)
		toStderr.Store(true)
		return
	}
	nl.file = f
	if title != "" {
		f.WriteString(title + "\n")
	}
}

// under mw-lock; subsequent lines go to stderr until the next Setup
func (nl *nlog) close() {
	if nl.file == nil {
		return
	}
	nl.file.Sync()
	nl.file.Close()
	nl.file = nil
	toStderr.Store(true)
}

func sname() string { return filepath.Base(os.Args[0]) }

// main function
func log(sev severity, depth int, format string, args ...any) {
	onceInit.Do(initFile)

	fb := pool.Get().(*fixed)
	fb.reset()
	sprintf(sev, depth+3, format, fb, args...)

	stderr := toStderr.Load()
	if stderr || sev >= sevErr {
		os.Stderr.Write(fb.buf[:fb.woff])
	}
	if !stderr {
		nl.mw.Lock()
		nl.write(fb)
		nl.mw.Unlock()
	}
	pool.Put(fb)
}

// under mw-lock
func (nl *nlog) write(line *fixed) {
	if nl.buf.avail() < line.woff {
		nl.flush()
	}
	nl.buf.Write(line.buf[:line.woff])
	if mono.Since(nl.last) > flushInterval {
		nl.flush()
	}
}

// under mw-lock; without a file, buffered lines go to stderr
func (nl *nlog) flush() {
	if nl.buf.woff == 0 {
		return
	}
	if nl.file == nil {
		os.Stderr.Write(nl.buf.buf[:nl.buf.woff])
	} else if _, err := nl.file.Write(nl.buf.buf[:nl.buf.woff]); err != nil {
		os.Stderr.WriteString("nlog: " + err.Error() + "\n")
		os.Stderr.Write(nl.buf.buf[:nl.buf.woff])
	}
	nl.buf.reset()
	nl.last = mono.NanoTime()
}

// "I 15:04:05.000000 worker.go:123 message"
func sprintf(sev severity, depth int, format string, fb *fixed, args ...any) {
	fb.writeByte(sevChar[sev])
	fb.writeByte(' ')
	fb.writeStamp()
	fb.writeByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth); ok {
		fb.writeString(filepath.Base(fn))
		fb.writeByte(':')
		fb.writeString(strconv.Itoa(ln))
		fb.writeByte(' ')
	}
	if format == "" {
		fmt.Fprintln(fb, args...)
	} else {
		fmt.Fprintf(fb, format, args...)
	}
	fb.eol()
}
