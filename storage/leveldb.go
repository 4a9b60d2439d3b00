// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// LevelDB is an on-disk KV backed by goleveldb. When sync is enabled every
// Insert forces an fsync before returning, trading write latency for
// durability across crashes; when disabled, writes land in the OS page
// cache and only Flush (or leveldb's own background compaction) guarantees
// they reach disk.
type LevelDB struct {
	db   *leveldb.DB
	sync bool
}

// OpenLevelDB opens (creating if absent) a goleveldb database at dir.
func OpenLevelDB(dir string, sync bool) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db, sync: sync}, nil
}

func (l *LevelDB) Insert(key ids.Hash, value []byte) error {
	return l.db.Put(key[:], value, &opt.WriteOptions{Sync: l.sync})
}

func (l *LevelDB) Get(key ids.Hash) ([]byte, error) {
	v, err := l.db.Get(key[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Flush forces goleveldb to compact the full key range, persisting any
// buffered writes to disk.
func (l *LevelDB) Flush() error {
	return l.db.CompactRange(util.Range{})
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
