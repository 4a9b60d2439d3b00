// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
)

// DAG is the single-shot tree-based consensus variant: one FireConsensus
// call samples peers, decides whether the threshold was met, and if so
// walks the confidence tree up the parent chain until an acceptance rule
// fires.
type DAG struct {
	cfg         Config
	self        ids.NodeID
	conflictSet *ConflictSet
	choice      *ChoiceMap
	parentOf    ParentLookup
	log         log.Logger
}

// NewDAG constructs a DAG engine. parentOf resolves an arbitrary transaction
// hash to its parent, backing the tree walk's lazy node creation.
func NewDAG(cfg Config, self ids.NodeID, parentOf ParentLookup) *DAG {
	return &DAG{
		cfg:         cfg,
		self:        self,
		conflictSet: NewConflictSet(),
		choice:      NewChoiceMap(),
		parentOf:    parentOf,
		log:         log.Named("consensus-dag"),
	}
}

// TargetCount returns k, this engine's sample size.
func (d *DAG) TargetCount() uint64 { return d.cfg.K }

// Query records state.Tx.ID as a candidate for state.AccountStateID.
func (d *DAG) Query(state AccountStateChoice) {
	d.conflictSet.Insert(state.AccountStateID, *state.Tx.ID)
}

// OnQuery answers an incoming query from a peer: our current choice for
// state.AccountStateID (if decided) and whether the queried tx is in our
// conflict set.
func (d *DAG) OnQuery(state AccountStateChoice) (ids.Hash, bool) {
	current, _ := d.choice.Get(state.AccountStateID)
	exists := d.conflictSet.Has(state.AccountStateID, *state.Tx.ID)
	return current, exists
}

// SendConsensusRequests samples up to count peers (excluding self) and
// dispatches batched dag-queries for state.
func (d *DAG) SendConsensusRequests(ctx context.Context, state AccountStateChoice, net ConsensusNetwork, common CommonConsensusNetwork, count uint64) error {
	targets, err := common.GetNodesExceptOne(ctx, count, d.self)
	if err != nil {
		return err
	}
	return net.SendDagQueriesBatched(ctx, state, targets)
}

// FireConsensus runs the full DAG acceptance path: insert, sample,
// threshold-gate, choice-set guard, then the confidence tree walk.
func (d *DAG) FireConsensus(ctx context.Context, state AccountStateChoice, net ConsensusNetwork, common CommonConsensusNetwork, tree *HashTree) (Outcome, error) {
	txID := *state.Tx.ID
	d.conflictSet.Insert(state.AccountStateID, txID)

	p, err := net.DagQuery(ctx, d.cfg.K, state, common)
	if err != nil {
		return Outcome{}, err
	}

	if !d.cfg.Threshold(p) {
		d.log.Debug("dag threshold miss", log.Hash("account_state", state.AccountStateID), log.Hash("tx", txID))
		return recordOutcome(reject()), nil
	}

	if !d.choice.TrySet(state.AccountStateID, txID) {
		// Either this state was already decided, or another candidate won
		// the race to seed the choice map first: this is the double-accept
		// guard.
		return recordOutcome(reject()), nil
	}

	outcome, err := d.CompleteDagConsensus(true, state, tree)
	if err != nil {
		return Outcome{}, err
	}
	return recordOutcome(outcome), nil
}

// CompleteDagConsensus performs the confidence tree walk. accepted is the
// threshold+choice-set-guard result FireConsensus already computed; a
// caller invoking this directly with accepted=false gets an immediate
// Reject.
func (d *DAG) CompleteDagConsensus(accepted bool, state AccountStateChoice, tree *HashTree) (Outcome, error) {
	if !accepted {
		return reject(), nil
	}

	txID := *state.Tx.ID
	ancestor := state.Tx.Parent

	// The parent chain is a DAG by construction, but a buggy or malicious
	// construction could still loop; a visited set turns that into a Reject
	// instead of a hang.
	visited := make(map[ids.Hash]struct{})

	for {
		if _, seen := visited[ancestor]; seen {
			d.log.Warn("confidence tree walk revisited an ancestor, aborting", log.Hash("ancestor", ancestor))
			break
		}
		visited[ancestor] = struct{}{}

		parentOfAncestor, node, ok := tree.Get(ancestor)
		if !ok {
			parent, found := d.parentOf(ancestor)
			if !found {
				break
			}
			node = TreeNode{Node: ancestor, Preferred: ancestor, Last: ids.Empty}
			parentOfAncestor = parent
		}

		node.Confidence++

		// Tie-break rule: preferred is updated only on strictly greater
		// confidence, never on equality.
		_, prefNode, prefOk := tree.Get(node.Preferred)
		if !prefOk || node.Confidence > prefNode.Confidence {
			node.Preferred = node.Node
		}

		if node.Node != node.Last {
			node.Last = node.Node
			node.Count = 0
		} else {
			node.Count++
		}

		// Write the mutated node back under the position it was read from,
		// preserving its recorded parent, so a later walk through the same
		// ancestor (from this or any other descendant transaction) resumes
		// from accumulated confidence instead of starting over.
		tree.Put(ancestor, parentOfAncestor, node)

		if node.Confidence > d.cfg.Beta {
			return accept(node.Node), nil
		}
		if node.Count > d.cfg.Beta2 {
			return accept(txID), nil
		}

		ancestor = parentOfAncestor
	}

	return reject(), nil
}
