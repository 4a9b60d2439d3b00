// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// Memory is an in-memory KV backed by a guarded map, used in tests and as
// the default storage backend ("memory").
type Memory struct {
	mu sync.RWMutex
	m  map[ids.Hash][]byte
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[ids.Hash][]byte)}
}

func (m *Memory) Insert(key ids.Hash, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.m[key] = cp
	return nil
}

func (m *Memory) Get(key ids.Hash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Flush is a no-op: Memory has no write buffer to drain.
func (m *Memory) Flush() error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
