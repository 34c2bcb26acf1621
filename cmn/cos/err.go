// Package cos provides common low-level types and utilities for all oesort packages.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	ratomic "sync/atomic"
	"syscall"

	"github.com/NVIDIA/oesort/cmn/debug"
)

// Errs is a thread-safe collection of errors
type Errs struct {
	errs []error
	cnt  int64
	cap  int
	mu   sync.Mutex
}

const defaultMaxErrs = 8

func NewErrs(maxErrs ...int) *Errs {
	capacity := defaultMaxErrs
	if len(maxErrs) > 0 && maxErrs[0] > 0 {
		capacity = maxErrs[0]
	}
	return &Errs{errs: make([]error, 0, capacity), cap: capacity}
}

func (e *Errs) Add(err error) {
	debug.Assert(err != nil)
	e.mu.Lock()
	// first, check for duplication
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			e.mu.Unlock()
			return
		}
	}
	if len(e.errs) < e.cap {
		e.errs = append(e.errs, err)
		ratomic.StoreInt64(&e.cnt, int64(len(e.errs)))
	}
	e.mu.Unlock()
}

func (e *Errs) Cnt() int { return int(ratomic.LoadInt64(&e.cnt)) }

// Errs is an error
func (e *Errs) Error() string {
	cnt := e.Cnt()
	if cnt == 0 {
		return ""
	}
	e.mu.Lock()
	err := e.errs[0]
	e.mu.Unlock()
	if cnt > 1 {
		err = fmt.Errorf("%v (and %d more error%s)", err, cnt-1, Plural(cnt-1))
	}
	return err.Error()
}

func (e *Errs) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.errs)
}

func Plural(num int) (s string) {
	if num != 1 {
		s = "s"
	}
	return
}

//
// IS-conn-err helpers
//

func IsErrConnectionRefused(err error) bool { return errors.Is(err, syscall.ECONNREFUSED) }
func IsErrConnectionReset(err error) bool   { return errors.Is(err, syscall.ECONNRESET) }
func IsErrBrokenPipe(err error) bool        { return errors.Is(err, syscall.EPIPE) }

// peer went away or the local side was closed
func IsErrClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) || IsErrConnectionReset(err) || IsErrBrokenPipe(err)
}

func IsRetriableConnErr(err error) bool {
	return IsErrConnectionRefused(err) || IsErrConnectionReset(err)
}

func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
