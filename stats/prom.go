// Package stats provides methods and functionality to register, track, log,
// and export sorting metrics that, for the most part, include "counter" and "latency" kinds.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"fmt"
	"sort"
	"strings"
	ratomic "sync/atomic"
	"time"

	"github.com/NVIDIA/oesort/cmn/debug"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace  = "oesort"
	phaseLabel = "phase"
)

type (
	iprom interface {
		add(parent *statsValue, val int64)
		observe(parent *statsValue, label string, val float64)
	}

	counter      struct{ prometheus.Counter }
	histogram    struct{ prometheus.Histogram }
	histogramVec struct{ *prometheus.HistogramVec }

	statsValue struct {
		iprom      iprom
		kind       string
		Value      int64 // counter value or number of latency samples
		cumulative int64 // total latency, ns
	}

	// Prom tracks all metrics in-process and mirrors them into Prometheus collectors
	Prom struct {
		tracker map[string]*statsValue
	}
)

// interface guard
var (
	_ iprom = (*counter)(nil)
	_ iprom = (*histogram)(nil)
	_ iprom = (*histogramVec)(nil)

	_ Tracker = (*Prom)(nil)
)

// exported names and help strings
var promNames = map[string][2]string{
	Rounds:     {"rounds_total", "total number of transposition rounds"},
	Exchanges:  {"exchanges_total", "total number of compare-split exchanges"},
	IdleRounds: {"idle_rounds_total", "total number of rounds without a partner"},
	SentSize:   {"sent_bytes_total", "total payload size sent (bytes)"},
	RecvSize:   {"recv_bytes_total", "total payload size received (bytes)"},
	Errors:     {"errors_total", "total number of failed sort runs"},
	LocalSort:  {"local_sort_seconds", "local sort latency"},
	Exchange:   {"exchange_seconds", "compare-split exchange latency"},
	Phase:      {"phase_seconds", "sort phase latency"},
}

func (v counter) add(parent *statsValue, val int64) {
	ratomic.AddInt64(&parent.Value, val)
	v.Add(float64(val))
}

func (v histogram) observe(parent *statsValue, _ string, val float64) {
	ratomic.AddInt64(&parent.Value, 1)
	ratomic.AddInt64(&parent.cumulative, int64(val*float64(time.Second)))
	v.Observe(val)
}

func (v histogramVec) observe(parent *statsValue, label string, val float64) {
	ratomic.AddInt64(&parent.Value, 1)
	ratomic.AddInt64(&parent.cumulative, int64(val*float64(time.Second)))
	v.WithLabelValues(label).Observe(val)
}

// illegal impl. placeholders
func (counter) observe(*statsValue, string, float64) { debug.Assert(false) }
func (histogram) add(*statsValue, int64)             { debug.Assert(false) }
func (histogramVec) add(*statsValue, int64)          { debug.Assert(false) }

//////////
// Prom //
//////////

// NewProm creates and registers all collectors with `reg`
// (nil: private registry, metrics tracked in-process only).
func NewProm(reg prometheus.Registerer) (*Prom, error) {
	p := &Prom{tracker: make(map[string]*statsValue, len(promNames))}
	p.reg(Rounds, KindCounter)
	p.reg(Exchanges, KindCounter)
	p.reg(IdleRounds, KindCounter)
	p.reg(SentSize, KindSize)
	p.reg(RecvSize, KindSize)
	p.reg(Errors, KindCounter)
	p.reg(LocalSort, KindLatency)
	p.reg(Exchange, KindLatency)
	p.regVec(Phase, phaseLabel)

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	for _, name := range p.names() {
		if err := reg.Register(p.collector(name)); err != nil {
			return nil, fmt.Errorf("failed to register %q: %w", name, err)
		}
	}
	return p, nil
}

func promOpts(name string) (string, string) {
	names, ok := promNames[name]
	debug.Assertf(ok, "invalid metric name %q", name)
	return names[0], names[1]
}

func (p *Prom) reg(name, kind string) {
	pname, help := promOpts(name)
	v := &statsValue{kind: kind}
	switch kind {
	case KindCounter, KindSize:
		v.iprom = counter{prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: pname, Help: help})}
	case KindLatency:
		v.iprom = histogram{prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: pname, Help: help,
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 12), // 10us .. ~42s
		})}
	default:
		debug.Assertf(false, "invalid metric kind %q", kind)
	}
	p.tracker[name] = v
}

func (p *Prom) regVec(name, label string) {
	pname, help := promOpts(name)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: pname, Help: help,
		Buckets: prometheus.ExponentialBuckets(1e-4, 4, 12),
	}, []string{label})
	p.tracker[name] = &statsValue{kind: KindLatency, iprom: histogramVec{vec}}
}

func (p *Prom) collector(name string) prometheus.Collector {
	switch v := p.tracker[name].iprom.(type) {
	case counter:
		return v.Counter
	case histogram:
		return v.Histogram
	case histogramVec:
		return v.HistogramVec
	default:
		debug.Assertf(false, "unexpected %T", v)
		return nil
	}
}

func (p *Prom) names() []string {
	names := make([]string, 0, len(p.tracker))
	for name := range p.tracker {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Prom) get(name string) *statsValue {
	v, ok := p.tracker[name]
	debug.Assertf(ok, "invalid metric name %q", name)
	return v
}

func (p *Prom) Inc(name string) { p.Add(name, 1) }

func (p *Prom) Add(name string, val int64) {
	v := p.get(name)
	v.iprom.add(v, val)
}

func (p *Prom) Observe(name string, d time.Duration) {
	v := p.get(name)
	v.iprom.observe(v, "", d.Seconds())
}

func (p *Prom) ObserveWith(name, label string, d time.Duration) {
	v := p.get(name)
	v.iprom.observe(v, label, d.Seconds())
}

// Get returns counter value or the number of latency samples.
func (p *Prom) Get(name string) int64 { return ratomic.LoadInt64(&p.get(name).Value) }

// String returns a compact one-line summary for logging.
func (p *Prom) String() string {
	var sb strings.Builder
	for i, name := range p.names() {
		v := p.tracker[name]
		if i > 0 {
			sb.WriteString(", ")
		}
		val := ratomic.LoadInt64(&v.Value)
		if v.kind == KindLatency && val > 0 {
			avg := time.Duration(ratomic.LoadInt64(&v.cumulative) / val)
			fmt.Fprintf(&sb, "%s: %d (avg %v)", name, val, avg)
		} else {
			fmt.Fprintf(&sb, "%s: %d", name, val)
		}
	}
	return sb.String()
}
