// Package main is the oesort command: distributed odd-even transposition sort
// of number lists, in-process or across tcp-connected workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NVIDIA/oesort/cmn/nlog"
)

var (
	build     string
	buildtime string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(ctx, build, buildtime).Run(os.Args)
	stop()
	nlog.Flush(true)
	if err != nil {
		exitf("%v", err)
	}
}

func exitf(f string, a ...any) {
	fmt.Fprintln(os.Stderr, fred("Error: ")+fmt.Sprintf(f, a...))
	os.Exit(1)
}
