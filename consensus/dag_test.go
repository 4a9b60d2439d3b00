// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/core/tx"
	"github.com/kobby-pentangeli/dagchain/ids"
)

// fixedReplyNetwork answers every DagQuery with a fixed positive-reply
// count, the way a table-driven test fakes a peer sample without a real
// transport.
type fixedReplyNetwork struct {
	positives uint64
}

func (f *fixedReplyNetwork) DagQuery(context.Context, uint64, AccountStateChoice, CommonConsensusNetwork) (uint64, error) {
	return f.positives, nil
}
func (f *fixedReplyNetwork) SendDagQueries(context.Context, AccountStateChoice, []ids.NodeID) error {
	return nil
}
func (f *fixedReplyNetwork) SendDagQueriesBatched(context.Context, AccountStateChoice, []ids.NodeID) error {
	return nil
}
func (f *fixedReplyNetwork) Query(context.Context, uint64, AccountStateChoice, CommonConsensusNetwork) (map[ids.Hash]uint64, error) {
	return nil, nil
}
func (f *fixedReplyNetwork) AcceptIncomingConsensusResponse(ids.NodeID, ids.Hash, bool) (uint64, uint64) {
	return 0, 0
}

type fakeCommonNetwork struct{}

func (fakeCommonNetwork) GetNodesExceptOne(context.Context, uint64, ids.NodeID) ([]ids.NodeID, error) {
	return nil, nil
}

func newTestTx(parent ids.Hash) *tx.Transaction {
	txn := tx.Genesis(parent, ids.Hash{1}, ids.Hash{2}, big.NewInt(1), tx.TypeTransfer, nil)
	txn.CalculateID()
	return txn
}

// noParents treats every hash as the DAG root — the walk stops at the very
// first ancestor.
func noParents(ids.Hash) (ids.Hash, bool) { return ids.Hash{}, false }

// TestUncontestedAcceptDAG checks that with k=3, alpha=0.6 and 3/3 positive
// replies, repeated FireConsensus calls over the same parent accumulate
// confidence until the early-confidence rule (beta) fires.
func TestUncontestedAcceptDAG(t *testing.T) {
	require := require.New(t)

	cfg := Config{Alpha: 0.6, Beta: 2, Beta2: 2, K: 3}
	genesisParent := ids.Hash{0xAA}
	parentOf := func(h ids.Hash) (ids.Hash, bool) {
		if h == genesisParent {
			return ids.Empty, true
		}
		return ids.Hash{}, false
	}
	engine := NewDAG(cfg, ids.NodeID{1}, parentOf)
	tree := NewHashTree()

	txn := newTestTx(genesisParent)
	state := AccountStateChoice{AccountStateID: ids.Hash{0x01}, Tx: txn}

	// Each call to CompleteDagConsensus models one descendant transaction's
	// successful threshold pass walking back through the same parent;
	// confidence at genesisParent's tree position accumulates across calls.
	var outcome Outcome
	for i := 0; i < 3; i++ {
		var err error
		outcome, err = engine.CompleteDagConsensus(true, state, tree)
		require.NoError(err)
		if outcome.Kind == KindAccept {
			break
		}
		require.Equal(KindReject, outcome.Kind)
	}

	require.Equal(KindAccept, outcome.Kind)
}

func TestThresholdMissRejectsImmediately(t *testing.T) {
	require := require.New(t)

	cfg := Config{Alpha: 0.6, Beta: 2, Beta2: 2, K: 10}
	engine := NewDAG(cfg, ids.NodeID{1}, noParents)
	net := &fixedReplyNetwork{positives: 6}
	tree := NewHashTree()

	txn := newTestTx(ids.Hash{0xAA})
	state := AccountStateChoice{AccountStateID: ids.Hash{0x01}, Tx: txn}

	outcome, err := engine.FireConsensus(context.Background(), state, net, fakeCommonNetwork{}, tree)
	require.NoError(err)
	require.Equal(KindReject, outcome.Kind)
}

// TestDoubleAcceptGuard checks that once choice[state] is set, a second
// distinct transaction for the same state is rejected.
func TestDoubleAcceptGuard(t *testing.T) {
	require := require.New(t)

	cfg := Config{Alpha: 0.6, Beta: 2, Beta2: 2, K: 3}
	engine := NewDAG(cfg, ids.NodeID{1}, noParents)
	net := &fixedReplyNetwork{positives: 3}
	tree := NewHashTree()

	stateID := ids.Hash{0x01}
	t1 := newTestTx(ids.Hash{0xAA})
	t2State := AccountStateChoice{AccountStateID: stateID, Tx: newTestTx(ids.Hash{0xBB})}

	_, err := engine.FireConsensus(context.Background(), AccountStateChoice{AccountStateID: stateID, Tx: t1}, net, fakeCommonNetwork{}, tree)
	require.NoError(err)

	outcome, err := engine.FireConsensus(context.Background(), t2State, net, fakeCommonNetwork{}, tree)
	require.NoError(err)
	require.Equal(KindReject, outcome.Kind)
}

// TestPreferredTieBreakRequiresStrictGreater covers the tie-break design
// decision: equal confidence never updates preferred.
func TestPreferredTieBreakRequiresStrictGreater(t *testing.T) {
	require := require.New(t)

	tree := NewHashTree()
	a := ids.Hash{1}
	node := TreeNode{Node: a, Preferred: a, Confidence: 5}
	tree.Put(a, ids.Hash{0}, node)

	// The preferred entry read back from the tree has equal confidence, so
	// the strict comparison the walk uses does not fire.
	_, prefNode, ok := tree.Get(node.Preferred)
	require.True(ok)
	require.False(node.Confidence > prefNode.Confidence)
}
