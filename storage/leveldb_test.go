// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
)

func TestLevelDBInsertGetPersists(t *testing.T) {
	require := require.New(t)

	db, err := OpenLevelDB(t.TempDir(), false)
	require.NoError(err)
	defer db.Close()

	key := ids.Hash{4}
	require.NoError(db.Insert(key, []byte("payload")))

	got, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("payload"), got)
}

func TestLevelDBGetMissingReturnsErrNotFound(t *testing.T) {
	require := require.New(t)

	db, err := OpenLevelDB(t.TempDir(), false)
	require.NoError(err)
	defer db.Close()

	_, err = db.Get(ids.Hash{9})
	require.ErrorIs(err, ErrNotFound)
}

func TestLevelDBSyncModeInsertSurvivesFlush(t *testing.T) {
	require := require.New(t)

	db, err := OpenLevelDB(t.TempDir(), true)
	require.NoError(err)
	defer db.Close()

	key := ids.Hash{5}
	require.NoError(db.Insert(key, []byte("synced")))
	require.NoError(db.Flush())

	got, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("synced"), got)
}
