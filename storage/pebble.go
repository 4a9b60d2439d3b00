// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/cockroachdb/pebble"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// Pebble is an on-disk KV backed by cockroachdb/pebble, the LSM engine used
// by validator nodes that prefer pebble's manifest format and block cache
// over goleveldb's. The sync toggle mirrors LevelDB's: enabled forces a WAL
// fsync per Insert, disabled batches durability behind Flush.
type Pebble struct {
	db   *pebble.DB
	sync bool
}

// OpenPebble opens (creating if absent) a pebble database at dir.
func OpenPebble(dir string, sync bool) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Pebble{db: db, sync: sync}, nil
}

func (p *Pebble) Insert(key ids.Hash, value []byte) error {
	opts := pebble.NoSync
	if p.sync {
		opts = pebble.Sync
	}
	return p.db.Set(key[:], value, opts)
}

func (p *Pebble) Get(key ids.Hash) ([]byte, error) {
	v, closer, err := p.db.Get(key[:])
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	_ = closer.Close()
	return cp, nil
}

// Flush forces pebble's memtable to disk.
func (p *Pebble) Flush() error {
	return p.db.Flush()
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
