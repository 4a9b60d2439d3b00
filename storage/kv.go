// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage implements the persisted key-value layer: a mapping from
// content hash to opaque bytes, with an in-memory backend for tests and two
// embedded on-disk LSM backends (goleveldb and pebble) for production use,
// each honoring a sync-on-insert toggle.
package storage

import (
	"errors"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KV is the persisted key-value contract every backend implements.
type KV interface {
	Insert(key ids.Hash, value []byte) error
	Get(key ids.Hash) ([]byte, error)
	Flush() error
	Close() error
}
