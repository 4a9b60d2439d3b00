// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messaging

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/wire"
)

// TestMessageRoundTrip checks Pack/UnpackMessage round-trip the base
// tagged-union envelope.
func TestMessageRoundTrip(t *testing.T) {
	require := require.New(t)

	m := Message{Kind: KindSigned, Payload: []byte("restricted-projection-bytes")}
	p := &wire.Packer{}
	m.Pack(p)

	decoded := UnpackMessage(wire.NewUnpacker(p.Bytes))
	require.Equal(m, decoded)
}

func TestIdentificationRoundTrip(t *testing.T) {
	require := require.New(t)

	self := ids.NodeID{42}
	decoded, err := UnpackIdentification(Identification(self))
	require.NoError(err)
	require.Equal(self, decoded)
}

func TestContactsRoundTrip(t *testing.T) {
	require := require.New(t)

	addrs := []string{"10.0.0.1:9000", "10.0.0.2:9000"}
	decoded, err := UnpackContacts(Contacts(addrs))
	require.NoError(err)
	require.Equal(addrs, decoded)
}

func TestRoutingTableMessageRoundTrip(t *testing.T) {
	require := require.New(t)

	rtm := RoutingTableMessage{
		Source: ids.NodeID{1},
		Shared: map[ids.NodeID]uint32{
			{2}: 1,
			{3}: 2,
		},
	}

	decoded, err := UnpackRoutingTable(rtm.Pack())
	require.NoError(err)
	require.Equal(rtm, decoded)
}

func TestDagConsensusRequestRoundTrip(t *testing.T) {
	require := require.New(t)

	req := DagConsensusRequest{ConsensusItem{
		AccountStateID: ids.Hash{1},
		TxID:           ids.Hash{2},
		Parent:         ids.Hash{3},
	}}

	decoded, err := UnpackDagConsensusRequest(req.Pack())
	require.NoError(err)
	require.Equal(req, decoded)
}

func TestDagConsensusResponseRoundTrip(t *testing.T) {
	require := require.New(t)

	resp := DagConsensusResponse{
		AccountStateID: ids.Hash{1},
		TxID:           ids.Hash{2},
		Preferred:      ids.Hash{4},
		HasPreferred:   true,
		Exists:         true,
	}

	decoded, err := UnpackDagConsensusResponse(resp.Pack())
	require.NoError(err)
	require.Equal(resp, decoded)
}

func TestBatchedConsensusRequestRoundTrip(t *testing.T) {
	require := require.New(t)

	req := BatchedConsensusRequest{
		Sender: ids.NodeID{9},
		Items: []ConsensusItem{
			{AccountStateID: ids.Hash{1}, TxID: ids.Hash{2}, Parent: ids.Hash{3}},
			{AccountStateID: ids.Hash{1}, TxID: ids.Hash{5}, Parent: ids.Hash{3}},
		},
	}

	decoded, err := UnpackBatchedConsensusRequest(req.Pack())
	require.NoError(err)
	require.Equal(req, decoded)
}

func TestBatchedConsensusRequestRoundTripEmpty(t *testing.T) {
	require := require.New(t)

	req := BatchedConsensusRequest{Sender: ids.NodeID{9}, Items: nil}
	decoded, err := UnpackBatchedConsensusRequest(req.Pack())
	require.NoError(err)
	require.Equal(BatchedConsensusRequest{Sender: ids.NodeID{9}, Items: []ConsensusItem{}}, decoded)
}

func TestBatchedConsensusResponseRoundTrip(t *testing.T) {
	require := require.New(t)

	resp := BatchedConsensusResponse{
		Sender: ids.NodeID{9},
		Votes: []Vote{
			{TxID: ids.Hash{2}, Accepted: true},
			{TxID: ids.Hash{5}, Accepted: false},
		},
	}

	decoded, err := UnpackBatchedConsensusResponse(resp.Pack())
	require.NoError(err)
	require.Equal(resp, decoded)
}
