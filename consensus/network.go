// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// CommonConsensusNetwork is the uniform-random peer sampling collaborator
// both engine variants consume.
type CommonConsensusNetwork interface {
	// GetNodesExceptOne returns up to k NodeIDs sampled without replacement
	// from known nodes, excluding self.
	GetNodesExceptOne(ctx context.Context, k uint64, self ids.NodeID) ([]ids.NodeID, error)
}

// Responder answers an incoming peer query against local consensus state:
// the node's current preference for an account state (if decided) and
// whether the queried transaction is a recorded candidate. *DAG and *Quantum
// both implement this identically via their own OnQuery.
type Responder interface {
	OnQuery(state AccountStateChoice) (ids.Hash, bool)
}

// Querier records a candidate transaction against an account state's
// conflict set. *DAG and *Quantum both implement this identically via their
// own Query.
type Querier interface {
	Query(state AccountStateChoice)
}

// Engine is the local consensus engine surface a ConsensusNetwork
// implementation needs in order to answer inbound queries and adopt
// previously-unseen candidates it learns about from a peer.
type Engine interface {
	Responder
	Querier
}

// TxVote is one entry of a BatchedConsensusResponse's ordered reply vector:
// a (tx_id, accepted) pair. The engine correlates by TxID, not position, to
// tolerate reordering.
type TxVote struct {
	TxID     ids.Hash
	Accepted bool
}

// BatchedConsensusRequest coalesces multiple (state, tx) pairs destined for
// the same peer, flushed once MaxBatchSize pairs are queued or
// MaxBatchInterval elapses since the first pair was queued.
type BatchedConsensusRequest struct {
	Sender ids.NodeID
	Data   []AccountStateChoice
	Count  uint64
}

// BatchedConsensusResponse carries one peer's replies to a
// BatchedConsensusRequest.
type BatchedConsensusResponse struct {
	Sender ids.NodeID
	Data   []TxVote
}

// ConsensusNetwork is the query-dispatch collaborator the engine consumes.
// Transport and serialization live outside this package (messaging);
// MessagingNetwork in this package implements it, including the per-peer
// batching. The engine only needs these semantics.
type ConsensusNetwork interface {
	// DagQuery samples k peers for state and returns the count of positive
	// (strongly-preferred) replies.
	DagQuery(ctx context.Context, k uint64, state AccountStateChoice, common CommonConsensusNetwork) (uint64, error)
	// SendDagQueries fires individual, unbatched dag-query requests to
	// targets and registers them for response accounting.
	SendDagQueries(ctx context.Context, state AccountStateChoice, targets []ids.NodeID) error
	// SendDagQueriesBatched coalesces (state, tx) pairs bound for the same
	// peer into BatchedConsensusRequests per the MaxBatchSize/
	// MaxBatchInterval policy.
	SendDagQueriesBatched(ctx context.Context, state AccountStateChoice, targets []ids.NodeID) error
	// Query samples k peers and returns each replying peer's preferred
	// choice, tallied by candidate hash.
	Query(ctx context.Context, k uint64, state AccountStateChoice, common CommonConsensusNetwork) (map[ids.Hash]uint64, error)
	// AcceptIncomingConsensusResponse records one peer's vote on txID and
	// returns the running yes-count and total response count observed so
	// far for that transaction.
	AcceptIncomingConsensusResponse(node ids.NodeID, txID ids.Hash, accepted bool) (runningYes, total uint64)
}
