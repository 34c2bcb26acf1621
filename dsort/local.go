// Package dsort implements distributed odd-even transposition (compare-split) sort
// over a line of cooperating workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package dsort

import "github.com/NVIDIA/oesort/cmn"

// [low, high)
type span struct {
	low, high int
}

// SortLocal sorts `part` in place, ascending: three-way quicksort (pivot = last
// element of the range) driven by an explicit stack of ranges; ranges shorter than
// `cutoff` finish with insertion sort. Not stable; equal keys end up contiguous.
func SortLocal[T Elem](part []T, cutoff int) {
	if cutoff < 1 {
		cutoff = cmn.DefaultCutoff
	}
	if len(part) < 2 {
		return
	}
	stack := make([]span, 0, 32)
	var less, equal, greater []T
	stack = append(stack, span{0, len(part)})
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.high-s.low < cutoff {
			insertionSort(part[s.low:s.high])
			continue
		}
		pivot := part[s.high-1]
		less, equal, greater = less[:0], equal[:0], greater[:0]
		for _, v := range part[s.low:s.high] {
			switch {
			case v < pivot:
				less = append(less, v)
			case v > pivot:
				greater = append(greater, v)
			default:
				equal = append(equal, v)
			}
		}
		n := s.low + copy(part[s.low:], less)
		n += copy(part[n:], equal)
		copy(part[n:], greater)

		if len(less) > 1 {
			stack = append(stack, span{s.low, s.low + len(less)})
		}
		if len(greater) > 1 {
			stack = append(stack, span{s.high - len(greater), s.high})
		}
	}
}

func insertionSort[T Elem](a []T) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for ; j >= 0 && a[j] > v; j-- {
			a[j+1] = a[j]
		}
		a[j+1] = v
	}
}
