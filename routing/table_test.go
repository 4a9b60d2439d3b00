// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// TestConvergesOverLineTopology checks a three-node line topology N1-N2-N3:
// after bootstrapping direct connections and one round of gossip each, N1
// and N3 learn of each other via N2 at hop count 2.
func TestConvergesOverLineTopology(t *testing.T) {
	require := require.New(t)

	n1, n2, n3 := ids.NodeID{1}, ids.NodeID{2}, ids.NodeID{3}

	t1, t2, t3 := New(), New(), New()

	t1.Connect(n2)
	t2.Connect(n1)
	t2.Connect(n3)
	t3.Connect(n2)

	require.Equal(uint64(1), t1.Version())
	require.Equal(uint64(2), t2.Version())
	require.Equal(uint64(1), t3.Version())

	// One round of gossip: N2 shares its table with N1 and N3.
	changed1 := t1.MergeGossip(n2, t2.Snapshot())
	changed3 := t3.MergeGossip(n2, t2.Snapshot())
	require.True(changed1)
	require.True(changed3)

	e1, ok := t1.Get(n3)
	require.True(ok)
	require.Equal(Entry{NextHop: n2, HopCount: 2}, e1)

	e3, ok := t3.Get(n1)
	require.True(ok)
	require.Equal(Entry{NextHop: n2, HopCount: 2}, e3)

	require.GreaterOrEqual(t1.Version(), uint64(2))
	require.GreaterOrEqual(t3.Version(), uint64(2))
}

// TestMergeGossipSeedsUnknownDestinationsUnreachable checks that unknown
// destinations seed to Unreachable, never to a random placeholder.
func TestMergeGossipSeedsUnknownDestinationsUnreachable(t *testing.T) {
	require := require.New(t)

	self := New()
	peer := ids.NodeID{2}
	far := ids.NodeID{9}

	changed := self.MergeGossip(peer, Shared{far: UnreachableHopCount})
	require.False(changed)

	e, ok := self.Get(far)
	require.True(ok)
	require.True(e.Unreachable())
}

// TestMergeGossipOnlyImprovesHopCount ensures a worse path via a peer never
// displaces a better existing route.
func TestMergeGossipOnlyImprovesHopCount(t *testing.T) {
	require := require.New(t)

	self := New()
	direct := ids.NodeID{2}
	dest := ids.NodeID{3}

	self.Connect(direct)
	self.Connect(dest) // direct connection: hop count 1

	changed := self.MergeGossip(direct, Shared{dest: 5})
	require.False(changed)

	e, ok := self.Get(dest)
	require.True(ok)
	require.Equal(uint32(1), e.HopCount)
}
