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
	"net"
	"net/http"
	"time"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/mono"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/dsort"
	"github.com/NVIDIA/oesort/memsys"
	"github.com/NVIDIA/oesort/stats"
	"github.com/NVIDIA/oesort/transport"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	rankLocal = -1 // in-process job: all ranks in this process
	stdio     = "-"
)

type job struct {
	config     *cmn.Config
	tracker    stats.Tracker
	runFn      func(context.Context, *job) error
	stdout     io.Writer
	stderr     io.Writer
	typ        string
	in         string
	out        string
	format     string
	reportPath string
	rank       int
	printStats bool
}

var runners = map[string]func(context.Context, *job) error{
	"int8":    run[int8],
	"int16":   run[int16],
	"int32":   run[int32],
	"int64":   run[int64],
	"uint8":   run[uint8],
	"uint16":  run[uint16],
	"uint32":  run[uint32],
	"uint64":  run[uint64],
	"float32": run[float32],
	"float64": run[float64],
}

func (j *job) String() string {
	if j.rank == rankLocal {
		return fmt.Sprintf("job[local/%s/p%d]", j.typ, j.config.Workers)
	}
	return fmt.Sprintf("job[r%d/%s/p%d]", j.rank, j.typ, j.config.Workers)
}

func (j *job) run(ctx context.Context) error {
	nlog.SetTitle(appName + " " + version + ": " + j.String())
	nlog.Setup(j.config.Log.Dir, j.config.Log.ToStderr, j.config.Log.Level)
	j.tracker = &stats.Nop{}
	if j.config.Metrics.Enabled {
		srv, err := j.serveMetrics()
		if err != nil {
			return err
		}
		defer srv.Close()
	}
	if nlog.V(1) {
		nlog.Infoln(j.String(), "starting")
	}
	err := j.runFn(ctx, j)
	if err != nil {
		nlog.Errorln(j.String(), "failed:", err)
	}
	if p, ok := j.tracker.(*stats.Prom); ok {
		nlog.Infoln(j.String(), p.String())
	}
	if nlog.V(1) {
		nlog.Infoln(j.String(), "memsys:", memsys.DefaultMM().GetStats())
	}
	return err
}

func (j *job) serveMetrics() (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tracker, err := stats.NewProm(reg)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", j.config.Metrics.Listen)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			nlog.Errorln(j.String(), "metrics server:", err)
		}
	}()
	nlog.Infoln(j.String(), "serving metrics at", ln.Addr())
	j.tracker = tracker
	return srv, nil
}

func run[T dsort.Elem](ctx context.Context, j *job) error {
	var (
		in      []T
		metrics *dsort.Metrics
		err     error
		r       = &report{Type: j.typ, Rank: j.rank, Workers: j.config.Workers}
		started = mono.NanoTime()
	)
	// local job or rank 0 (root)
	if j.rank <= 0 {
		if in, err = readFile[T](j.in, j.format); err != nil {
			return err
		}
	}
	out := make([]T, len(in))
	if j.rank == rankLocal {
		m := dsort.NewManager(j.config, j.tracker, in, out)
		if err := m.Sort(ctx); err != nil {
			return err
		}
		metrics = m.Metrics
		r.UUID, r.Fingerprint = m.UUID, m.InFP
	} else if metrics, err = runWorker(ctx, j, in, out, r); err != nil {
		return err
	}
	if j.rank <= 0 {
		if err := writeFile(j.out, out, j.format); err != nil {
			return err
		}
	}
	elapsed := mono.Since(started)
	r.Count, r.Elapsed, r.Metrics = len(out), cos.Duration(elapsed), metrics
	if err := j.saveReport(r); err != nil {
		return err
	}
	if j.rank <= 0 {
		fmt.Fprintf(j.infoWriter(), "%s %d %s value%s with %d worker%s in %v\n",
			fcyan("sorted"), len(out), j.typ, plural(len(out), "s"), j.config.Workers, plural(j.config.Workers, "s"), elapsed)
	}
	if j.printStats {
		b, err := metrics.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintln(j.stderr, string(b))
	}
	return nil
}

// one rank of a tcp job
func runWorker[T dsort.Elem](ctx context.Context, j *job, in, out []T, r *report) (*dsort.Metrics, error) {
	var fp dsort.Fingerprint
	if j.rank == 0 {
		if err := dsort.ValidateInput(in); err != nil {
			return nil, err
		}
		if j.config.Sort.Verify {
			fp = dsort.NewFingerprint(in)
			r.Fingerprint = &fp
		}
	}
	ep, err := transport.Listen(j.rank, &j.config.Transport, memsys.DefaultMM())
	if err != nil {
		return nil, err
	}
	defer ep.Close()
	r.UUID = ep.SessID()

	w := dsort.NewWorker[T](ep, &dsort.Options{Tracker: j.tracker, JobID: ep.SessID(), Cutoff: j.config.Sort.Cutoff})
	if err := w.Run(ctx, in, out); err != nil {
		j.tracker.Inc(stats.Errors)
		if sbr := transport.AsErrSBR(err); sbr != nil {
			nlog.Errorf("%s: receive from rank %d failed (%s)", w, sbr.Src(), sbr.Code())
		}
		return nil, err
	}
	if nlog.V(1) {
		nlog.Infoln(w.String(), "tx:", ep.TxStats().String(), "rx:", ep.RxStats().String())
	}
	if j.rank == 0 && j.config.Sort.Verify {
		if err := dsort.Verify(fp, out); err != nil {
			j.tracker.Inc(stats.Errors)
			return nil, err
		}
	}
	return w.Metrics(), nil
}
