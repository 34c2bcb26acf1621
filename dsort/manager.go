// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"context"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/nlog"
	"github.com/NVIDIA/oesort/comm"
	"github.com/NVIDIA/oesort/memsys"
	"github.com/NVIDIA/oesort/stats"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Task is the job lifecycle driven by RunTask: each step runs only if
// the previous one succeeded.
type Task interface {
	Validate() error
	PreProcess(ctx context.Context) error
	Run(ctx context.Context) error
	PostProcess(ctx context.Context) error
}

func RunTask(ctx context.Context, t Task) error {
	if err := t.Validate(); err != nil {
		return errors.Wrap(err, "validate")
	}
	if err := t.PreProcess(ctx); err != nil {
		return errors.Wrap(err, "pre-process")
	}
	if err := t.Run(ctx); err != nil {
		return err
	}
	return t.PostProcess(ctx)
}

// Manager sorts `in` into `out` with config.Workers in-process workers
// connected by a comm.World.
type Manager[T Elem] struct {
	// tagged fields are reported once the job finishes
	UUID    string       `json:"uuid"`
	Metrics *Metrics     `json:"metrics"`
	InFP    *Fingerprint `json:"input_fingerprint,omitempty"`

	config  *cmn.Config
	tracker stats.Tracker
	mm      *memsys.MMSA
	world   *comm.World
	in, out []T
	workers []*Worker[T]
}

// interface guard
var _ Task = (*Manager[float64])(nil)

// NewManager: nil tracker means stats.Nop.
func NewManager[T Elem](config *cmn.Config, tracker stats.Tracker, in, out []T) *Manager[T] {
	if tracker == nil {
		tracker = &stats.Nop{}
	}
	return &Manager[T]{
		UUID:    cmn.GenUUID(),
		config:  config,
		tracker: tracker,
		mm:      memsys.DefaultMM(),
		in:      in,
		out:     out,
	}
}

func (m *Manager[T]) String() string { return "dsort[" + m.UUID + "]" }

// Sort runs the entire lifecycle.
func (m *Manager[T]) Sort(ctx context.Context) error { return RunTask(ctx, m) }

func (m *Manager[T]) Validate() error {
	if len(m.in) != len(m.out) {
		return errors.Wrapf(ErrLengthMismatch, "%s: in %d, out %d", m, len(m.in), len(m.out))
	}
	if err := m.config.Validate(); err != nil {
		return err
	}
	return errors.Wrap(ValidateInput(m.in), m.String())
}

// ValidateInput rejects NaNs: they have no place in a total order.
func ValidateInput[T Elem](in []T) error {
	if !isFloat[T]() {
		return nil
	}
	for i, v := range in {
		if v != v {
			return errors.Wrapf(ErrNaN, "input[%d]", i)
		}
	}
	return nil
}

func (m *Manager[T]) PreProcess(context.Context) error {
	p := m.config.Workers
	m.world = comm.NewWorld(p)
	m.workers = make([]*Worker[T], p)
	opts := &Options{Tracker: m.tracker, MM: m.mm, JobID: m.UUID, Cutoff: m.config.Sort.Cutoff}
	for rank := range p {
		m.workers[rank] = NewWorker[T](m.world.Comm(rank), opts)
	}
	if m.config.Sort.Verify {
		fp := NewFingerprint(m.in)
		m.InFP = &fp
	}
	if nlog.V(1) {
		nlog.Infoln(m.String(), "starting: n", len(m.in), "workers", p)
	}
	return nil
}

// Run starts all workers concurrently; the first failure cancels the others
// so that no worker blocks forever on a peer that is gone.
func (m *Manager[T]) Run(ctx context.Context) error {
	var (
		group, gctx = errgroup.WithContext(ctx)
		errs        = cos.NewErrs()
	)
	defer m.world.Close()
	for rank, w := range m.workers {
		var in, out []T
		if rank == root {
			in, out = m.in, m.out
		}
		group.Go(func() error {
			err := w.Run(gctx, in, out)
			if err != nil && !cos.IsCanceled(err) {
				errs.Add(err)
			}
			return err
		})
	}
	err := group.Wait()
	if err == nil {
		return nil
	}
	m.tracker.Inc(stats.Errors)
	if errs.Cnt() > 0 {
		err = errs
	}
	nlog.Errorf("%s: failed: %v", m, err)
	return err
}

func (m *Manager[T]) PostProcess(context.Context) error {
	m.Metrics = m.workers[root].Metrics()
	if m.InFP != nil {
		if err := Verify(*m.InFP, m.out); err != nil {
			m.tracker.Inc(stats.Errors)
			return errors.Wrap(err, m.String())
		}
	}
	if nlog.V(1) {
		nlog.Infof("%s: finished in %v (%s)", m, m.Metrics.Total(), &m.Metrics.Layout)
	}
	return nil
}
