// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sample implements consensus.CommonConsensusNetwork: uniform
// sampling without replacement over a node's currently connected peers, the
// collaborator both the DAG and Quantum engines use to pick query targets.
//
// Stake-weighted validator sampling solves a harder weighted-without-
// replacement problem; dagchain has no notion of stake, so this is the
// unweighted special case of that same problem, implemented directly rather
// than carrying a weighted Uniform/Weighted collaborator split.
package sample

import (
	"context"
	"errors"
	"math/rand"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/routing"
)

// ErrNotEnoughPeers is returned when fewer than k peers (excluding self) are
// available to sample from.
var ErrNotEnoughPeers = errors.New("sample: not enough connected peers")

// Peers implements consensus.CommonConsensusNetwork over a routing.Manager's
// live connection set.
type Peers struct {
	mgr *routing.Manager
}

// New constructs a Peers sampler backed by mgr.
func New(mgr *routing.Manager) *Peers {
	return &Peers{mgr: mgr}
}

// GetNodesExceptOne returns up to k distinct NodeIDs sampled without
// replacement from the currently connected peers, excluding self. self is
// never itself among Manager's active connections, but the exclusion is
// checked explicitly so a caller-supplied self of ids.Empty (no identity
// yet) cannot accidentally match a real peer.
func (p *Peers) GetNodesExceptOne(_ context.Context, k uint64, self ids.NodeID) ([]ids.NodeID, error) {
	active := p.mgr.ActiveConnections()

	pool := make([]ids.NodeID, 0, len(active))
	for _, node := range active {
		if node != self {
			pool = append(pool, node)
		}
	}

	if uint64(len(pool)) < k {
		return nil, ErrNotEnoughPeers
	}

	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:k], nil
}
