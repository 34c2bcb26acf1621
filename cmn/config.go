// Package cmn provides common constants, types, and utilities for oesort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/NVIDIA/oesort/cmn/cos"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// transport compression
const (
	CompressNever  = "never"
	CompressAlways = "always"
)

const (
	DefaultCutoff      = 10
	DefaultDialTimeout = 10 * time.Second
	DefaultMaxFrame    = 1 * cos.GiB
)

type (
	Config struct {
		Workers   int           `json:"workers" yaml:"workers"`
		Sort      SortConf      `json:"sort" yaml:"sort"`
		Transport TransportConf `json:"transport" yaml:"transport"`
		Log       LogConf       `json:"log" yaml:"log"`
		Metrics   MetricsConf   `json:"metrics" yaml:"metrics"`
	}
	SortConf struct {
		// ranges shorter than this finish with insertion sort
		Cutoff int `json:"cutoff" yaml:"cutoff"`
		// verify that the output is an ordered permutation of the input
		Verify bool `json:"verify" yaml:"verify"`
	}
	TransportConf struct {
		// rank => "host:port"; len(Addrs) defines the number of workers
		Addrs       []string     `json:"addrs" yaml:"addrs"`
		Compression string       `json:"compression" yaml:"compression"`
		Checksum    string       `json:"checksum" yaml:"checksum"`
		DialTimeout cos.Duration `json:"dial_timeout" yaml:"dial_timeout"`
		MaxFrame    cos.SizeIEC  `json:"max_frame" yaml:"max_frame"`

		// SO_RCVBUF and SO_SNDBUF (0: system default)
		SndRcvBufSize cos.SizeIEC `json:"sndrcv_buf_size" yaml:"sndrcv_buf_size"`

		// IP_TOS low-delay
		LowLatencyToS bool `json:"low_latency_tos" yaml:"low_latency_tos"`
	}
	LogConf struct {
		Dir      string `json:"dir" yaml:"dir"`
		ToStderr bool   `json:"to_stderr" yaml:"to_stderr"`
		Level    int    `json:"level" yaml:"level"`
	}
	MetricsConf struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Listen  string `json:"listen" yaml:"listen"`
	}
)

// LoadConfig reads YAML (.yaml, .yml) or JSON (anything else) config,
// applies defaults and validates.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %q", path)
	}
	config := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, config)
	default:
		err = jsoniter.Unmarshal(b, config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %q", path)
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", path)
	}
	return config, nil
}

func DefaultConfig() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

func (c *Config) SetDefaults() {
	if c.Workers == 0 {
		if n := len(c.Transport.Addrs); n > 0 {
			c.Workers = n
		} else {
			c.Workers = runtime.NumCPU()
		}
	}
	if c.Sort.Cutoff == 0 {
		c.Sort.Cutoff = DefaultCutoff
	}
	if c.Transport.Compression == "" {
		c.Transport.Compression = CompressNever
	}
	if c.Transport.Checksum == "" {
		c.Transport.Checksum = cos.ChecksumXXHash
	}
	if c.Transport.DialTimeout == 0 {
		c.Transport.DialTimeout = cos.Duration(DefaultDialTimeout)
	}
	if c.Transport.MaxFrame == 0 {
		c.Transport.MaxFrame = DefaultMaxFrame
	}
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("invalid number of workers %d (expecting >= 1)", c.Workers)
	}
	if err := c.Sort.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if n := len(c.Transport.Addrs); n > 0 && n != c.Workers {
		return fmt.Errorf("number of workers %d does not match the number of transport addresses %d", c.Workers, n)
	}
	if c.Log.Level < 0 {
		return fmt.Errorf("invalid log level %d", c.Log.Level)
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.New("metrics enabled but listen address is empty")
	}
	return nil
}

func (c *SortConf) Validate() error {
	if c.Cutoff < 1 {
		return fmt.Errorf("invalid sort cutoff %d (expecting >= 1)", c.Cutoff)
	}
	return nil
}

func (c *TransportConf) Validate() error {
	switch c.Compression {
	case CompressNever, CompressAlways:
	default:
		return fmt.Errorf("invalid transport compression %q (expecting %q or %q)", c.Compression, CompressNever, CompressAlways)
	}
	if err := cos.ValidateCksumType(c.Checksum); err != nil {
		return err
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("invalid dial timeout %v", c.DialTimeout)
	}
	if c.MaxFrame < cos.KiB {
		return fmt.Errorf("max frame size %s is too small", c.MaxFrame)
	}
	if c.SndRcvBufSize < 0 {
		return fmt.Errorf("invalid socket buffer size %d", c.SndRcvBufSize)
	}
	seen := make(map[string]int, len(c.Addrs))
	for rank, addr := range c.Addrs {
		if addr == "" {
			return fmt.Errorf("rank %d: empty address", rank)
		}
		if prev, ok := seen[addr]; ok {
			return fmt.Errorf("rank %d: duplicate address %q (see rank %d)", rank, addr, prev)
		}
		seen[addr] = rank
	}
	return nil
}

func (c *TransportConf) Compressed() bool { return c.Compression == CompressAlways }
func (c *TransportConf) Checksummed() bool {
	return c.Checksum == cos.ChecksumXXHash
}
