// Package cmn provides common constants, types, and utilities for oesort
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"math/rand/v2"
	"sync"

	"github.com/teris-io/shortid"
)

// NOTE: BEWARE: `shortid` uses hardcoded 01/2016 as a starting timestamp

const (
	// Alphabet for generating UUIDs similar to the shortid.DEFAULT_ABC
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"
)

var (
	sids     [4]*shortid.Shortid
	sidsOnce sync.Once
)

func InitShortid(seed uint64) {
	for i := range sids {
		sids[i] = shortid.MustNew(uint8(i+1) /*worker*/, uuidABC, seed)
	}
}

// GenUUID generates unique and user-friendly IDs.
func GenUUID() (uuid string) {
	sidsOnce.Do(func() {
		if sids[0] == nil {
			InitShortid(rand.Uint64())
		}
	})
	var err error
	for _, sid := range sids {
		uuid, err = sid.Generate()
		if err == nil &&
			uuid[0] != '-' && uuid[0] != '_' && uuid[len(uuid)-1] != '-' && uuid[len(uuid)-1] != '_' {
			return
		}
	}
	return randString(9)
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.IntN(len(letters))]
	}
	return string(b)
}
