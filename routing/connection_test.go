// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
)

func addr(s string) net.Addr {
	a, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		panic(err)
	}
	return a
}

func noContacts() []net.Addr { return nil }

func TestIdentifyPromotesToConnectedAndMutatesRouting(t *testing.T) {
	require := require.New(t)

	rt := New()
	m := NewManager(rt, noContacts)
	peerAddr := addr("127.0.0.1:9000")
	node := ids.NodeID{7}

	_, err := m.Add(peerAddr, true)
	require.NoError(err)
	state, ok := m.State(peerAddr)
	require.True(ok)
	require.Equal(StateIncoming, state)

	require.NoError(m.Identify(peerAddr, node))
	state, ok = m.State(peerAddr)
	require.True(ok)
	require.Equal(StateConnected, state)

	e, ok := rt.Get(node)
	require.True(ok)
	require.Equal(Entry{NextHop: node, HopCount: 1}, e)
	require.Contains(m.ActiveConnections(), node)
}

func TestReidentificationRejected(t *testing.T) {
	require := require.New(t)

	rt := New()
	m := NewManager(rt, noContacts)
	peerAddr := addr("127.0.0.1:9001")

	_, err := m.Add(peerAddr, true)
	require.NoError(err)
	require.NoError(m.Identify(peerAddr, ids.NodeID{1}))

	err = m.Identify(peerAddr, ids.NodeID{2})
	require.ErrorIs(err, errReidentification)
}

func TestConnectionTableFullRefersPeer(t *testing.T) {
	require := require.New(t)

	contacts := []net.Addr{addr("127.0.0.1:1"), addr("127.0.0.1:2")}
	rt := New()
	m := NewManager(rt, func() []net.Addr { return contacts })

	for i := 0; i < MaxConnectionLen; i++ {
		_, err := m.Add(addr("127.0.0.1:900"+string(rune('0'+i))), true)
		require.NoError(err)
	}

	got, err := m.Add(addr("127.0.0.1:9999"), true)
	require.ErrorIs(err, ErrConnectionTableFull)
	require.Equal(contacts, got)
}

func TestRemoveReleasesRoutingEntry(t *testing.T) {
	require := require.New(t)

	rt := New()
	m := NewManager(rt, noContacts)
	peerAddr := addr("127.0.0.1:9002")
	node := ids.NodeID{3}

	_, err := m.Add(peerAddr, false)
	require.NoError(err)
	require.NoError(m.Identify(peerAddr, node))

	m.Remove(peerAddr)
	_, ok := rt.Get(node)
	require.False(ok)
	require.NotContains(m.ActiveConnections(), node)
}
