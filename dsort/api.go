// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import (
	"math"
	"reflect"

	"github.com/NVIDIA/oesort/memsys"
	"github.com/NVIDIA/oesort/stats"
)

// Elem enumerates sortable element types: fixed-size integers and floats
// (and named types over them). Plain int/uint are excluded - the wire
// encoding requires a fixed size.
type Elem interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// partner rank for idle workers (see Partner)
const Idle = -1

type Options struct {
	Tracker stats.Tracker // nil: stats.Nop
	MM      *memsys.MMSA  // nil: memsys.DefaultMM()
	JobID   string        // for logging
	Cutoff  int           // insertion-sort cutoff; 0: cmn.DefaultCutoff
}

// Sentinel returns the padding value: the maximum representable value of T
// (+Inf for floats), so that padding always sorts to the tail of the last partition.
func Sentinel[T Elem]() T {
	var v int64
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		v = math.MaxInt8
	case reflect.Int16:
		v = math.MaxInt16
	case reflect.Int32:
		v = math.MaxInt32
	case reflect.Int64:
		v = math.MaxInt64
	case reflect.Uint8:
		v = math.MaxUint8
	case reflect.Uint16:
		v = math.MaxUint16
	case reflect.Uint32:
		v = math.MaxUint32
	case reflect.Uint64:
		u := uint64(math.MaxUint64)
		return T(u)
	default:
		return T(math.Inf(1))
	}
	return T(v)
}
