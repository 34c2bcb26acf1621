// Package main is the oesort command: distributed odd-even transposition sort
// of number lists, in-process or across tcp-connected workers.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/dsort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// number list formats
const (
	fmtLines = "lines" // whitespace-separated, one per line on output
	fmtJSON  = "json"  // array of numbers
)

const maxNumLen = 64 // longest number literal on output

type numfmt[T dsort.Elem] struct {
	kind reflect.Kind
	bits int
}

func newNumfmt[T dsort.Elem]() numfmt[T] {
	t := reflect.TypeFor[T]()
	return numfmt[T]{kind: t.Kind(), bits: t.Bits()}
}

func (f numfmt[T]) parse(s string) (T, error) {
	switch f.kind {
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, f.bits)
		return T(v), err
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, f.bits)
		return T(v), err
	default:
		v, err := strconv.ParseInt(s, 10, f.bits)
		return T(v), err
	}
}

func (f numfmt[T]) append(b []byte, v T) []byte {
	switch f.kind {
	case reflect.Float32, reflect.Float64:
		return strconv.AppendFloat(b, float64(v), 'g', -1, f.bits)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.AppendUint(b, uint64(v), 10)
	default:
		return strconv.AppendInt(b, int64(v), 10)
	}
}

func readNumbers[T dsort.Elem](r io.Reader, format string) ([]T, error) {
	var (
		f   = newNumfmt[T]()
		out = make([]T, 0, 1024)
	)
	if format == fmtJSON {
		var raw []jsoniter.Number
		if err := jsoniter.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON number list")
		}
		for i, num := range raw {
			v, err := f.parse(string(num))
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			out = append(out, v)
		}
		return out, nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4*cos.KiB), 64*cos.KiB)
	scanner.Split(bufio.ScanWords)
	for i := 0; scanner.Scan(); i++ {
		v, err := f.parse(scanner.Text())
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out = append(out, v)
	}
	return out, scanner.Err()
}

func writeNumbers[T dsort.Elem](w io.Writer, data []T, format string) error {
	var (
		f   = newNumfmt[T]()
		bw  = bufio.NewWriterSize(w, 64*cos.KiB)
		buf = make([]byte, 0, maxNumLen)
	)
	if format == fmtJSON {
		bw.WriteByte('[')
		for i, v := range data {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.Write(f.append(buf[:0], v))
		}
		bw.WriteString("]\n")
		return bw.Flush()
	}
	for _, v := range data {
		buf = append(f.append(buf[:0], v), '\n')
		bw.Write(buf)
	}
	return bw.Flush()
}

func readFile[T dsort.Elem](path, format string) ([]T, error) {
	if path == stdio {
		return readNumbers[T](os.Stdin, format)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	data, err := readNumbers[T](fh, format)
	return data, errors.Wrap(err, path)
}

func writeFile[T dsort.Elem](path string, data []T, format string) error {
	if path == stdio {
		return writeNumbers(os.Stdout, data, format)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeNumbers(fh, data, format); err != nil {
		fh.Close()
		return errors.Wrap(err, path)
	}
	return fh.Close()
}
