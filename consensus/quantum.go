// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
)

// Quantum is the iterative majority-count consensus variant: a single
// FireConsensus call repeatedly samples peers and tallies per-candidate
// confidence until an acceptance rule fires or a round cap is exhausted.
//
// Nothing in the acceptance loop otherwise terminates it, so
// RoundCapMultiplier bounds the iteration count; exhausting the cap is this
// engine's only Reject path.
type Quantum struct {
	cfg         Config
	self        ids.NodeID
	conflictSet *ConflictSet
	choice      *ChoiceMap
	log         log.Logger
}

// NewQuantum constructs a Quantum engine.
func NewQuantum(cfg Config, self ids.NodeID) *Quantum {
	return &Quantum{
		cfg:         cfg,
		self:        self,
		conflictSet: NewConflictSet(),
		choice:      NewChoiceMap(),
		log:         log.Named("consensus-quantum"),
	}
}

// TargetCount returns k, this engine's sample size.
func (q *Quantum) TargetCount() uint64 { return q.cfg.K }

// Query records state.Tx.ID as a candidate for state.AccountStateID.
func (q *Quantum) Query(state AccountStateChoice) {
	q.conflictSet.Insert(state.AccountStateID, *state.Tx.ID)
}

// OnQuery answers an incoming query from a peer.
func (q *Quantum) OnQuery(state AccountStateChoice) (ids.Hash, bool) {
	current, _ := q.choice.Get(state.AccountStateID)
	exists := q.conflictSet.Has(state.AccountStateID, *state.Tx.ID)
	return current, exists
}

// SendConsensusRequests samples up to count peers (excluding self) and
// dispatches unbatched queries for state.
func (q *Quantum) SendConsensusRequests(ctx context.Context, state AccountStateChoice, net ConsensusNetwork, common CommonConsensusNetwork, count uint64) error {
	targets, err := common.GetNodesExceptOne(ctx, count, q.self)
	if err != nil {
		return err
	}
	return net.SendDagQueries(ctx, state, targets)
}

// FireConsensus runs the Quantum acceptance loop.
func (q *Quantum) FireConsensus(ctx context.Context, state AccountStateChoice, net ConsensusNetwork, common CommonConsensusNetwork) (Outcome, error) {
	txID := *state.Tx.ID

	if q.conflictSet.Len(state.AccountStateID) > 0 {
		// Another contest is already in flight for this account state.
		return recordOutcome(inProgress()), nil
	}

	q.conflictSet.Insert(state.AccountStateID, txID)
	// Seed the persisted choice map with the first candidate. This is
	// distinct from, and must never be overwritten by, the rolling local
	// choice variables tracked below.
	q.choice.TrySet(state.AccountStateID, txID)

	localChoice := txID
	lastChoice := txID
	var choiceCount uint64
	confidence := make(map[ids.Hash]uint64)

	roundCap := RoundCapMultiplier * q.cfg.K
	for round := uint64(0); round < roundCap; round++ {
		tally, err := net.Query(ctx, q.cfg.K, state, common)
		if err != nil {
			return Outcome{}, err
		}

		for _, candidate := range q.conflictSet.Entries(state.AccountStateID) {
			if !q.cfg.Threshold(tally[candidate]) {
				continue
			}

			confidence[candidate]++
			if confidence[candidate] > confidence[localChoice] {
				localChoice = candidate
			}

			if lastChoice != candidate {
				lastChoice = candidate
				choiceCount = 0
				continue
			}
			choiceCount++
			if choiceCount > q.cfg.Beta {
				return recordOutcome(accept(localChoice)), nil
			}
		}
	}

	q.log.Debug("quantum round cap exhausted", log.Hash("account_state", state.AccountStateID))
	return recordOutcome(reject()), nil
}
