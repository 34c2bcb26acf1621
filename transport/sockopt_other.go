//go:build !unix

// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"syscall"

	"github.com/NVIDIA/oesort/cmn"
)

func sockControl(*cmn.TransportConf) func(network, address string, c syscall.RawConn) error { return nil }
