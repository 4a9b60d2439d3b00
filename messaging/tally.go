// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messaging

import (
	"context"
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// ResponseTally is the accounting hook a ConsensusNetwork implementation
// correlates incoming DagConsensusResponse/BatchedConsensusResponse replies
// through: per transaction id, the running count of positive ("accepted")
// replies against the total replies seen, deduplicated per responding node
// so a peer cannot inflate its own vote by replying twice.
type ResponseTally struct {
	mu   sync.Mutex
	cond *sync.Cond
	rows map[ids.Hash]*tallyRow
}

type tallyRow struct {
	yes, total uint64
	seen       map[ids.NodeID]struct{}
}

// NewResponseTally returns an empty ResponseTally.
func NewResponseTally() *ResponseTally {
	rt := &ResponseTally{rows: make(map[ids.Hash]*tallyRow)}
	rt.cond = sync.NewCond(&rt.mu)
	return rt
}

// Record registers node's vote on txID and returns the running yes/total
// counts observed for it so far. A repeat vote from the same node for the
// same transaction is counted once.
func (r *ResponseTally) Record(node ids.NodeID, txID ids.Hash, accepted bool) (yes, total uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[txID]
	if !ok {
		row = &tallyRow{seen: make(map[ids.NodeID]struct{})}
		r.rows[txID] = row
	}
	if _, dup := row.seen[node]; !dup {
		row.seen[node] = struct{}{}
		row.total++
		if accepted {
			row.yes++
		}
		r.cond.Broadcast()
	}
	return row.yes, row.total
}

// Wait blocks until txID has accumulated at least want total responses or
// ctx is done, whichever comes first, and returns the yes/total counts
// observed at that point.
func (r *ResponseTally) Wait(ctx context.Context, txID ids.Hash, want uint64) (yes, total uint64) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.cond.Broadcast()
			r.mu.Unlock()
		case <-stop:
		}
	}()
	defer close(stop)

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if row, ok := r.rows[txID]; ok {
			yes, total = row.yes, row.total
		}
		if total >= want || ctx.Err() != nil {
			return yes, total
		}
		r.cond.Wait()
	}
}

// Reset discards any accumulated votes for txID, so a later re-query starts
// clean instead of folding in a stale tally from a previous round.
func (r *ResponseTally) Reset(txID ids.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, txID)
}
