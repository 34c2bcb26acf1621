// Package jsp (JSON persistence) provides utilities to store and load arbitrary
// JSON-encoded structures with optional checksumming and compression.
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"os"
	"path/filepath"

	"github.com/NVIDIA/oesort/cmn"
	"github.com/NVIDIA/oesort/cmn/cos"
	"github.com/NVIDIA/oesort/cmn/nlog"
)

// Save writes a temp file in the same directory and renames it into place,
// so that readers never observe a partially written file.
func Save(path string, v any, opts Options) (err error) {
	var (
		file *os.File
		tmp  = path + ".tmp." + cmn.GenUUID()
	)
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if file, err = os.Create(tmp); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRm := os.Remove(tmp); errRm != nil && !os.IsNotExist(errRm) {
				nlog.Errorln("failed to remove", tmp, errRm)
			}
		}
	}()
	if err = Encode(file, v, opts); err != nil {
		file.Close()
		return err
	}
	if err = file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load(path string, v any, opts Options) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	err = Decode(file, v, opts, path)
	file.Close()
	if err != nil && cos.IsErrBadCksum(err) {
		nlog.Errorln("bad checksum:", path)
	}
	return err
}
