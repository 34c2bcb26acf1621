// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"errors"
	"fmt"
)

type (
	ErrBadSignature struct {
		tag      string
		got      string
		expected string
	}
	ErrVersion struct {
		tag      string
		got      uint32
		expected uint32
	}
)

func (e *ErrBadSignature) Error() string {
	return fmt.Sprintf("bad signature %q: got %q, expected %q", e.tag, e.got, e.expected)
}

func newErrVersion(tag string, got, expected uint32) error {
	return &ErrVersion{tag, got, expected}
}

func (e *ErrVersion) Version() uint32 { return e.got }

func (e *ErrVersion) Error() string {
	return fmt.Sprintf("unsupported version %q: got %d, expected %d", e.tag, e.got, e.expected)
}

func IsErrBadSignature(err error) bool {
	var e *ErrBadSignature
	return errors.As(err, &e)
}

func IsErrVersion(err error) bool {
	var e *ErrVersion
	return errors.As(err, &e)
}
