// Package main is the oesort command: distributed odd-even transposition sort
// of number lists, in-process or across tcp-connected workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/NVIDIA/oesort/cmn"

	"github.com/fatih/color"
	"github.com/urfave/cli"
)

const (
	appName = "oesort"
	version = "1.0"
)

// color
var (
	fred  = color.New(color.FgHiRed).SprintFunc()
	fcyan = color.New(color.FgHiCyan).SprintFunc()
)

var (
	workersFlag = cli.IntFlag{
		Name:  "workers, w",
		Usage: "number of in-process workers (default: number of CPUs)",
	}
	rankFlag = cli.IntFlag{
		Name:  "rank, r",
		Usage: "this worker's rank: index into transport addresses in the config",
		Value: -1,
	}
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "JSON or YAML configuration file",
	}
	typeFlag = cli.StringFlag{
		Name:  "type, t",
		Usage: "element type: " + strings.Join(elemTypes(), ", "),
		Value: "int64",
	}
	inFlag = cli.StringFlag{
		Name:  "in, i",
		Usage: "input file ('-' for standard input)",
		Value: "-",
	}
	outFlag = cli.StringFlag{
		Name:  "out, o",
		Usage: "output file ('-' for standard output)",
		Value: "-",
	}
	formatFlag = cli.StringFlag{
		Name:  "format, f",
		Usage: "number list format: " + fmtLines + " (whitespace-separated) or " + fmtJSON + " (array)",
		Value: fmtLines,
	}
	metricsFlag = cli.StringFlag{
		Name:  "metrics",
		Usage: "serve Prometheus metrics at `ADDRESS`/metrics for the duration of the run",
	}
	verifyFlag = cli.BoolFlag{
		Name:  "verify",
		Usage: "verify that the output is an ordered permutation of the input",
	}
	statsFlag = cli.BoolFlag{
		Name:  "stats",
		Usage: "print phase timings and exchange counters (JSON) to standard error",
	}
	verboseFlag = cli.IntFlag{
		Name:  "v",
		Usage: "log verbosity level",
	}
	reportFlag = cli.StringFlag{
		Name:  "report",
		Usage: "save run report (checksummed, compressed) to `FILE`; see 'oesort report'",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored output",
	}

	commonFlags = []cli.Flag{
		configFlag, typeFlag, inFlag, outFlag, formatFlag,
		metricsFlag, verifyFlag, statsFlag, reportFlag, verboseFlag,
	}
)

type app struct {
	*cli.App
	ctx context.Context
}

func newApp(ctx context.Context, build, buildtime string) *app {
	a := &app{App: cli.NewApp(), ctx: ctx}
	a.Name = appName
	a.Usage = "distributed odd-even transposition sort"
	a.Version = version
	if build != "" {
		a.Version += "." + build
	}
	if buildtime != "" {
		a.Version += " (build " + buildtime + ")"
	}
	a.Flags = []cli.Flag{noColorFlag}
	a.Writer = os.Stdout
	a.ErrWriter = os.Stderr
	a.Before = func(c *cli.Context) error {
		if flagIsSet(c, noColorFlag) {
			color.NoColor = true
		}
		return nil
	}
	a.Commands = []cli.Command{
		{
			Name:      "local",
			Usage:     "sort with in-process workers",
			ArgsUsage: " ",
			Flags:     append([]cli.Flag{workersFlag}, commonFlags...),
			Action:    a.localHandler,
		},
		{
			Name:      "worker",
			Usage:     "run one rank of a tcp job (rank 0 reads the input and writes the output)",
			ArgsUsage: " ",
			Flags:     append([]cli.Flag{rankFlag}, commonFlags...),
			Action:    a.workerHandler,
		},
		{
			Name:      "report",
			Usage:     "show a saved run report",
			ArgsUsage: "FILE",
			Action:    a.reportHandler,
		},
	}
	return a
}

func (a *app) localHandler(c *cli.Context) error {
	j, err := a.newJob(c)
	if err != nil {
		return err
	}
	if flagIsSet(c, workersFlag) {
		j.config.Workers = parseIntFlag(c, workersFlag)
		j.config.Transport.Addrs = nil // not used in-process
		if err := j.config.Validate(); err != nil {
			return err
		}
	}
	j.rank = rankLocal
	return j.run(a.ctx)
}

func (a *app) workerHandler(c *cli.Context) error {
	if !flagIsSet(c, configFlag) {
		return missingFlag(c, configFlag)
	}
	if !flagIsSet(c, rankFlag) {
		return missingFlag(c, rankFlag)
	}
	j, err := a.newJob(c)
	if err != nil {
		return err
	}
	j.rank = parseIntFlag(c, rankFlag)
	if n := len(j.config.Transport.Addrs); j.rank < 0 || j.rank >= n {
		return fmt.Errorf("invalid rank %d: config %q defines %d transport address%s",
			j.rank, parseStrFlag(c, configFlag), n, plural(n, "es"))
	}
	return j.run(a.ctx)
}

func (a *app) newJob(c *cli.Context) (*job, error) {
	var (
		config *cmn.Config
		err    error
	)
	if path := parseStrFlag(c, configFlag); path != "" {
		if config, err = cmn.LoadConfig(path); err != nil {
			return nil, err
		}
	} else {
		config = cmn.DefaultConfig()
	}
	if flagIsSet(c, verifyFlag) {
		config.Sort.Verify = true
	}
	if flagIsSet(c, verboseFlag) {
		config.Log.Level = parseIntFlag(c, verboseFlag)
	}
	if addr := parseStrFlag(c, metricsFlag); addr != "" {
		config.Metrics.Enabled, config.Metrics.Listen = true, addr
	}
	typ := parseStrFlag(c, typeFlag)
	runFn, ok := runners[typ]
	if !ok {
		return nil, fmt.Errorf("invalid element type %q (expecting one of: %s)", typ, strings.Join(elemTypes(), ", "))
	}
	format := parseStrFlag(c, formatFlag)
	if format != fmtLines && format != fmtJSON {
		return nil, fmt.Errorf("invalid format %q (expecting %q or %q)", format, fmtLines, fmtJSON)
	}
	return &job{
		config:     config,
		runFn:      runFn,
		typ:        typ,
		in:         parseStrFlag(c, inFlag),
		out:        parseStrFlag(c, outFlag),
		format:     format,
		printStats: flagIsSet(c, statsFlag),
		reportPath: parseStrFlag(c, reportFlag),
		stdout:     c.App.Writer,
		stderr:     c.App.ErrWriter,
	}, nil
}

func missingFlag(c *cli.Context, flag cli.Flag) error {
	return fmt.Errorf("%q requires flag --%s (see '%s %s --help')",
		c.Command.Name, fl1n(flag.GetName()), appName, c.Command.Name)
}

func elemTypes() []string {
	types := make([]string, 0, len(runners))
	for typ := range runners {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

func plural(n int, suffix string) string {
	if n == 1 {
		return ""
	}
	return suffix
}

// summary line goes to stderr when the sorted output itself goes to stdout
func (j *job) infoWriter() io.Writer {
	if j.out == stdio {
		return j.stderr
	}
	return j.stdout
}
