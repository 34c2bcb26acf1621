// Package main is the oesort command: distributed odd-even transposition sort
// of number lists, in-process or across tcp-connected workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"strings"

	"github.com/urfave/cli"
)

// first of multiple comma-separated names ("workers, w" => "workers")
func fl1n(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func flagIsSet(c *cli.Context, flag cli.Flag) bool {
	name := fl1n(flag.GetName())
	if _, ok := flag.(cli.BoolFlag); ok {
		return c.Bool(name)
	}
	return c.IsSet(name)
}

func parseStrFlag(c *cli.Context, flag cli.Flag) string { return c.String(fl1n(flag.GetName())) }
func parseIntFlag(c *cli.Context, flag cli.IntFlag) int { return c.Int(fl1n(flag.GetName())) }
