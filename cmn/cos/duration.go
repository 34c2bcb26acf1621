// Package cos provides common low-level types and utilities for all oesort packages.
/*
 * Copyright (c) 2021-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// is used in cmn/config (compare w/ size.go)

type Duration time.Duration

func (d Duration) D() time.Duration             { return time.Duration(d) }
func (d Duration) MarshalJSON() ([]byte, error) { return jsoniter.Marshal(d.String()) }
func (d Duration) MarshalYAML() (any, error)    { return d.String(), nil }

func (d Duration) String() (s string) {
	s = time.Duration(d).String()
	// see related: https://github.com/golang/go/issues/39064
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	return
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var val string
	if err := jsoniter.Unmarshal(b, &val); err != nil {
		return err
	}
	return d.set(val)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var val string
	if err := node.Decode(&val); err != nil {
		return err
	}
	return d.set(val)
}

func (d *Duration) set(val string) error {
	dur, err := time.ParseDuration(val)
	*d = Duration(dur)
	return err
}
