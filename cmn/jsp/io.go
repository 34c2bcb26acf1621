// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/debug"

	jsoniter "github.com/json-iterator/go"
	"github.com/pierrec/lz4/v4"
)

const (
	signature = "oesort" // file signature
	//                              0 ---------------- 63  64 ------ 95 | 96 ------ 127
	prefLen = 2 * cos.SizeofI64 // [ signature | jsp ver | meta version |   bit flags  ]
	version = 1                 // jsp encoding version
)

const (
	flagCompress = 1 << 0
	flagChecksum = 1 << 1
)

func Encode(w io.Writer, v any, opts Options) error {
	var (
		buf     bytes.Buffer
		zw      *lz4.Writer
		encoder *jsoniter.Encoder
	)
	if opts.Compress {
		zw = lz4.NewWriter(&buf)
		encoder = jsoniter.NewEncoder(zw)
	} else {
		encoder = jsoniter.NewEncoder(&buf)
		if opts.Indent {
			encoder.SetIndent("", "  ")
		}
	}
	if err := encoder.Encode(v); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	if opts.Signature {
		var prefix [prefLen]byte
		// 1st 64-bit word
		l := copy(prefix[:], signature)
		debug.Assert(l < prefLen/2)
		prefix[l] = version

		// 2nd 64-bit word: meta version and packing info
		var flags uint32
		if opts.Compress {
			flags |= flagCompress
		}
		if opts.Checksum {
			flags |= flagChecksum
		}
		binary.BigEndian.PutUint32(prefix[cos.SizeofI64:], opts.Metaver)
		binary.BigEndian.PutUint32(prefix[cos.SizeofI64+cos.SizeofI32:], flags)
		if _, err := w.Write(prefix[:]); err != nil {
			return err
		}
	}
	if opts.Checksum {
		var hsum [cos.SizeofI64]byte
		binary.BigEndian.PutUint64(hsum[:], cos.ChecksumB(buf.Bytes()))
		if _, err := w.Write(hsum[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode is the inverse of Encode. With opts.Signature, the packing options
// (compression, checksum) are taken from the prefix rather than from `opts`.
func Decode(r io.Reader, v any, opts Options, tag string) error {
	if opts.Signature {
		var prefix [prefLen]byte
		if _, err := io.ReadFull(r, prefix[:]); err != nil {
			return err
		}
		l := len(signature)
		if signature != string(prefix[:l]) {
			return &ErrBadSignature{tag: tag, got: string(prefix[:l]), expected: signature}
		}
		if prefix[l] != version {
			return newErrVersion(tag, uint32(prefix[l]), version)
		}
		metaver := binary.BigEndian.Uint32(prefix[cos.SizeofI64:])
		if opts.Metaver != 0 && metaver != opts.Metaver {
			return newErrVersion(tag, metaver, opts.Metaver)
		}
		flags := binary.BigEndian.Uint32(prefix[cos.SizeofI64+cos.SizeofI32:])
		opts.Compress = flags&flagCompress != 0
		opts.Checksum = flags&flagChecksum != 0
	}
	var hsum [cos.SizeofI64]byte
	if opts.Checksum {
		if _, err := io.ReadFull(r, hsum[:]); err != nil {
			return err
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if opts.Checksum {
		expected, actual := binary.BigEndian.Uint64(hsum[:]), cos.ChecksumB(b)
		if expected != actual {
			return cos.NewErrBadCksum(expected, actual, tag)
		}
	}
	var src io.Reader = bytes.NewReader(b)
	if opts.Compress {
		src = lz4.NewReader(src)
	}
	return jsoniter.NewDecoder(src).Decode(v)
}
