// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
)

func TestConflictSetOnlyGrows(t *testing.T) {
	require := require.New(t)

	cs := NewConflictSet()
	state := ids.Hash{1}

	cs.Insert(state, ids.Hash{10})
	require.Equal(1, cs.Len(state))

	cs.Insert(state, ids.Hash{11})
	require.Equal(2, cs.Len(state))

	// Re-inserting an existing candidate never shrinks the set.
	cs.Insert(state, ids.Hash{10})
	require.Equal(2, cs.Len(state))
}

// TestChoiceMapNoDoubleAccept checks that once set, further TrySet calls for
// the same state fail regardless of the candidate offered.
func TestChoiceMapNoDoubleAccept(t *testing.T) {
	require := require.New(t)

	cm := NewChoiceMap()
	state := ids.Hash{1}

	require.True(cm.TrySet(state, ids.Hash{10}))
	require.False(cm.TrySet(state, ids.Hash{10}))
	require.False(cm.TrySet(state, ids.Hash{11}))

	got, ok := cm.Get(state)
	require.True(ok)
	require.Equal(ids.Hash{10}, got)
}

func TestHashTreeGetPutRoundTrip(t *testing.T) {
	require := require.New(t)

	tree := NewHashTree()
	key := ids.Hash{1}
	parent := ids.Hash{2}
	node := TreeNode{Node: key, Confidence: 3, Preferred: key, Last: key, Count: 1}

	_, _, ok := tree.Get(key)
	require.False(ok)

	tree.Put(key, parent, node)
	gotParent, gotNode, ok := tree.Get(key)
	require.True(ok)
	require.Equal(parent, gotParent)
	require.Equal(node, gotNode)
}
