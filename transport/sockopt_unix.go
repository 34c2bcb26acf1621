//go:build unix

// Package transport provides long-lived tcp connections between the workers of one distributed sort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"syscall"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/nlog"

	"golang.org/x/sys/unix"
)

// ref: https://linuxreviews.org/Type_of_Service_(ToS)_and_DSCP_Values
const lowDelayToS = 0x10

// sockControl returns net.ListenConfig/net.Dialer control that applies
// configured socket options; nil when there is nothing to set.
func sockControl(conf *cmn.TransportConf) func(network, address string, c syscall.RawConn) error {
	var (
		bufSize = int(conf.SndRcvBufSize)
		tos     = conf.LowLatencyToS
	)
	if bufSize <= 0 && !tos {
		return nil
	}
	return func(_, _ string, c syscall.RawConn) error {
		return c.Control(func(fd uintptr) {
			// buffering is limited by /proc/sys/net/core/rmem_max and wmem_max, respectively
			if bufSize > 0 {
				_croak(unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bufSize))
				_croak(unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bufSize))
			}
			if tos {
				_croak(unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, lowDelayToS))
			}
		})
	}
}

// socket options are best-effort
func _croak(err error) {
	if err != nil {
		nlog.WarningDepth(1, "failed to set socket option:", err)
	}
}
