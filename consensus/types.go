// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"sort"
	"sync"

	"github.com/kobby-pentangeli/dagchain/core/tx"
	"github.com/kobby-pentangeli/dagchain/ids"
)

// AccountStateChoice identifies a (state, candidate) pair: at account state
// S, the proposed next transaction is T.
type AccountStateChoice struct {
	AccountStateID ids.Hash
	Tx             *tx.Transaction
}

// ConflictSet maps an account state id to the set of candidate tx ids
// spending that state. Guarded by a single RW-lock — conflict set and choice
// are the only shared consensus state, each held under one RW-lock and
// never held across a network call. Entries only ever grow within a node's
// lifetime.
type ConflictSet struct {
	mu sync.RWMutex
	m  map[ids.Hash]map[ids.Hash]struct{}
}

// NewConflictSet returns an empty ConflictSet.
func NewConflictSet() *ConflictSet {
	return &ConflictSet{m: make(map[ids.Hash]map[ids.Hash]struct{})}
}

// Insert adds txID as a candidate for stateID. A no-op if already present.
func (cs *ConflictSet) Insert(stateID, txID ids.Hash) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	set, ok := cs.m[stateID]
	if !ok {
		set = make(map[ids.Hash]struct{})
		cs.m[stateID] = set
	}
	set[txID] = struct{}{}
}

// Has reports whether txID is a recorded candidate for stateID.
func (cs *ConflictSet) Has(stateID, txID ids.Hash) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, ok := cs.m[stateID][txID]
	return ok
}

// Len returns the number of candidates recorded for stateID.
func (cs *ConflictSet) Len(stateID ids.Hash) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.m[stateID])
}

// Entries returns a sorted snapshot of the candidates recorded for stateID,
// copied under the read lock.
func (cs *ConflictSet) Entries(stateID ids.Hash) []ids.Hash {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	set := cs.m[stateID]
	out := make([]ids.Hash, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ChoiceMap maps an account state id to the transaction id that consensus
// has accepted for it. Once an entry exists, re-insertion is rejected: this
// is both the idempotence guarantee and the no-double-accept rule.
type ChoiceMap struct {
	mu sync.RWMutex
	m  map[ids.Hash]ids.Hash
}

// NewChoiceMap returns an empty ChoiceMap.
func NewChoiceMap() *ChoiceMap {
	return &ChoiceMap{m: make(map[ids.Hash]ids.Hash)}
}

// Get returns the accepted tx id for stateID, if any.
func (c *ChoiceMap) Get(stateID ids.Hash) (ids.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.m[stateID]
	return id, ok
}

// TrySet records stateID -> txID only if stateID has no existing entry,
// returning false (and leaving the map untouched) otherwise.
func (c *ChoiceMap) TrySet(stateID, txID ids.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[stateID]; ok {
		return false
	}
	c.m[stateID] = txID
	return true
}

// TreeNode is one entry of the confidence tree walked during DAG-variant
// acceptance: the node's own identity, its accumulated confidence, the
// current highest-confidence sibling, the most recently selected child and
// how many consecutive rounds it has held that position.
type TreeNode struct {
	Node       ids.Hash
	Confidence uint64
	Preferred  ids.Hash
	Last       ids.Hash
	Count      uint64
}

type treeValue struct {
	Parent ids.Hash
	Node   TreeNode
}

// HashTree is the explicit parent-link DAG keyed by node hash: entry k ->
// (p, n) means p is k's parent in the transaction DAG and n is k's
// confidence-tracking TreeNode. The caller is responsible for
// per-account-state serialization of tree mutations; HashTree itself only
// guards the underlying map against concurrent map access.
type HashTree struct {
	mu sync.Mutex
	m  map[ids.Hash]treeValue
}

// NewHashTree returns an empty HashTree.
func NewHashTree() *HashTree {
	return &HashTree{m: make(map[ids.Hash]treeValue)}
}

// Get looks up key, returning its recorded parent and TreeNode.
func (t *HashTree) Get(key ids.Hash) (parent ids.Hash, node TreeNode, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.m[key]
	return v.Parent, v.Node, ok
}

// Put records (parent, node) under key.
func (t *HashTree) Put(key, parent ids.Hash, node TreeNode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[key] = treeValue{Parent: parent, Node: node}
}

// ParentLookup resolves a transaction hash to its parent in the tx DAG,
// consulted when the confidence tree walk reaches a hash it has not yet
// recorded an entry for. Backed by the transaction store outside this
// package; HashTree itself has no notion of the underlying DAG topology.
type ParentLookup func(txID ids.Hash) (parent ids.Hash, ok bool)

// OutcomeKind is the result of a FireConsensus call.
type OutcomeKind uint8

const (
	KindInProgress OutcomeKind = iota
	KindAccept
	KindReject
)

// Outcome is the {InProgress, Accept(H), Reject} result of FireConsensus.
type Outcome struct {
	Kind     OutcomeKind
	Accepted ids.Hash
}

func inProgress() Outcome { return Outcome{Kind: KindInProgress} }
func accept(h ids.Hash) Outcome { return Outcome{Kind: KindAccept, Accepted: h} }
func reject() Outcome { return Outcome{Kind: KindReject} }
