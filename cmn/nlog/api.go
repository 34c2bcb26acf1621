// Package nlog - oesort logger, provides buffering, timestamping, writing, and flushing
/*
 * Copyright (c) 2023-2026, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import "sync/atomic"

var verbosity atomic.Int32

// Setup (re)directs logging; empty dir means stderr only.
// Lines buffered for the previous destination are flushed first.
func Setup(dir string, stderr bool, level int) {
	verbosity.Store(int32(level))
	onceInit.Do(initFile)
	nl.mw.Lock()
	nl.flush()
	nl.close()
	logDir = dir
	toStderr.Store(stderr || dir == "")
	nl.open()
	nl.mw.Unlock()
}

// SetTitle sets the first line of the log file; takes effect with the next Setup.
func SetTitle(s string) { title = s }

// V reports whether verbose logging at the given level is enabled.
func V(level int) bool { return verbosity.Load() >= int32(level) }

func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func WarningDepth(depth int, args ...any) { log(sevWarn, depth, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

func LogName() string { return sname() + ".log" }

// Flush writes out buffered lines; exit=true also closes the log file.
func Flush(exit ...bool) {
	onceInit.Do(initFile)
	nl.mw.Lock()
	nl.flush()
	if len(exit) > 0 && exit[0] {
		nl.close()
	}
	nl.mw.Unlock()
}
