// Package main is the oesort command: distributed odd-even transposition sort
// of number lists, in-process or across tcp-connected workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/jsp"
	"github.com/NVIDIA/oesort/dsort"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli"
)

const reportMetaver = 1

// report of a finished run, persisted with --report
type report struct {
	UUID        string             `json:"uuid"`
	Type        string             `json:"type"`
	Rank        int                `json:"rank"` // -1: local
	Workers     int                `json:"workers"`
	Count       int                `json:"count"`
	Elapsed     cos.Duration       `json:"elapsed"`
	Fingerprint *dsort.Fingerprint `json:"fingerprint,omitempty"`
	Metrics     *dsort.Metrics     `json:"metrics"`
}

func (j *job) saveReport(r *report) error {
	if j.reportPath == "" {
		return nil
	}
	return jsp.Save(j.reportPath, r, jsp.CCSign(reportMetaver))
}

func loadReport(path string) (*report, error) {
	r := &report{}
	err := jsp.Load(path, r, jsp.Options{Signature: true, Metaver: reportMetaver})
	switch {
	case err == nil:
		return r, nil
	case jsp.IsErrBadSignature(err):
		return nil, fmt.Errorf("%q is not an %s report: %v", path, appName, err)
	case jsp.IsErrVersion(err):
		return nil, fmt.Errorf("report %q: unsupported format (expecting version %d): %v", path, reportMetaver, err)
	default:
		return nil, err
	}
}

func (*app) reportHandler(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%q expects exactly one argument: report file", c.Command.Name)
	}
	r, err := loadReport(c.Args().First())
	if err != nil {
		return err
	}
	b, err := jsoniter.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(b))
	return nil
}
