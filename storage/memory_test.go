// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
)

func TestMemoryInsertGet(t *testing.T) {
	require := require.New(t)

	m := NewMemory()
	key := ids.Hash{7}
	require.NoError(m.Insert(key, []byte("value")))

	got, err := m.Get(key)
	require.NoError(err)
	require.Equal([]byte("value"), got)
}

func TestMemoryGetMissingReturnsErrNotFound(t *testing.T) {
	require := require.New(t)

	m := NewMemory()
	_, err := m.Get(ids.Hash{1})
	require.ErrorIs(err, ErrNotFound)
}

func TestMemoryInsertCopiesValue(t *testing.T) {
	require := require.New(t)

	m := NewMemory()
	key := ids.Hash{3}
	buf := []byte("original")
	require.NoError(m.Insert(key, buf))
	buf[0] = 'X'

	got, err := m.Get(key)
	require.NoError(err)
	require.Equal([]byte("original"), got)
}

func TestMemoryFlushIsNoop(t *testing.T) {
	require := require.New(t)

	m := NewMemory()
	require.NoError(m.Flush())
	require.NoError(m.Close())
}
