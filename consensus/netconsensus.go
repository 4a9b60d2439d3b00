// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/kobby-pentangeli/dagchain/core/tx"
	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
	"github.com/kobby-pentangeli/dagchain/messaging"
)

// Sender is the narrow send-one-message-to-a-node collaborator
// MessagingNetwork needs from messaging.Forwarder.
type Sender interface {
	Send(target ids.Hash, inner messaging.Message) error
}

// NewCandidateFunc is notified when a request arrives about a transaction
// this node has not seen before, so the caller can kick off its own
// FireConsensus round for it — the same way a real avalanche-family node
// adopts a candidate it first learns about via an incoming query rather
// than only ever deciding transactions it originated itself.
type NewCandidateFunc func(state AccountStateChoice)

// MessagingNetwork is the concrete ConsensusNetwork implementation: it
// dispatches dag-queries over a messaging.Forwarder (or anything satisfying
// Sender), batches per-peer requests per Config's MaxBatchSize/
// MaxBatchInterval, and correlates replies through a
// messaging.ResponseTally.
type MessagingNetwork struct {
	cfg     Config
	self    ids.NodeID
	sender  Sender
	engine  Engine
	tally   *messaging.ResponseTally
	onNewTx NewCandidateFunc
	log     log.Logger

	batchMu sync.Mutex
	batches map[ids.NodeID]*pendingBatch

	corrMu      sync.Mutex
	correlators map[ids.Hash]*queryCorrelator
}

type pendingBatch struct {
	items []messaging.ConsensusItem
	timer *time.Timer
}

// NewMessagingNetwork constructs a MessagingNetwork. engine is the local
// DAG/Quantum engine instance, consulted to answer inbound queries and to
// adopt previously-unseen candidates; onNewTx (optional, may be nil) is
// called when such a candidate is first learned about.
func NewMessagingNetwork(cfg Config, self ids.NodeID, sender Sender, engine Engine, onNewTx NewCandidateFunc) *MessagingNetwork {
	return &MessagingNetwork{
		cfg:         cfg,
		self:        self,
		sender:      sender,
		engine:      engine,
		tally:       messaging.NewResponseTally(),
		onNewTx:     onNewTx,
		log:         log.Named("consensus-network"),
		batches:     make(map[ids.NodeID]*pendingBatch),
		correlators: make(map[ids.Hash]*queryCorrelator),
	}
}

func toItem(state AccountStateChoice) messaging.ConsensusItem {
	return messaging.ConsensusItem{
		AccountStateID: state.AccountStateID,
		TxID:           *state.Tx.ID,
		Parent:         state.Tx.Parent,
	}
}

// minimalState reconstructs the AccountStateChoice an inbound ConsensusItem
// refers to. Only ID and Parent are read by either engine's OnQuery/Query,
// so a full Transaction (amount, signatures) is never required on this path.
func minimalState(item messaging.ConsensusItem) AccountStateChoice {
	txID := item.TxID
	return AccountStateChoice{
		AccountStateID: item.AccountStateID,
		Tx:             &tx.Transaction{ID: &txID, Parent: item.Parent},
	}
}

// DagQuery samples k peers via common, dispatches unbatched dag-query
// requests to them and blocks (ctx-bounded) until as many replies land as
// peers were queried, returning the accumulated positive-reply count.
func (n *MessagingNetwork) DagQuery(ctx context.Context, k uint64, state AccountStateChoice, common CommonConsensusNetwork) (uint64, error) {
	targets, err := common.GetNodesExceptOne(ctx, k, n.self)
	if err != nil {
		return 0, err
	}

	txID := *state.Tx.ID
	n.tally.Reset(txID)
	if err := n.sendRequests(state, targets); err != nil {
		return 0, err
	}

	yes, _ := n.tally.Wait(ctx, txID, uint64(len(targets)))
	return yes, nil
}

func (n *MessagingNetwork) sendRequests(state AccountStateChoice, targets []ids.NodeID) error {
	req := messaging.DagConsensusRequest{ConsensusItem: toItem(state)}
	msg := req.Pack()

	var firstErr error
	for _, target := range targets {
		if err := n.sender.Send(target, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendDagQueries fires unbatched requests to targets without waiting for
// replies; the caller accounts for them as they land via
// AcceptIncomingConsensusResponse.
func (n *MessagingNetwork) SendDagQueries(_ context.Context, state AccountStateChoice, targets []ids.NodeID) error {
	return n.sendRequests(state, targets)
}

// SendDagQueriesBatched coalesces (state, tx) pairs bound for the same peer,
// flushing each peer's batch once MaxBatchSize items are queued or
// MaxBatchInterval elapses since the batch's first item, per Config.
func (n *MessagingNetwork) SendDagQueriesBatched(_ context.Context, state AccountStateChoice, targets []ids.NodeID) error {
	item := toItem(state)

	var firstErr error
	for _, target := range targets {
		if err := n.queueBatchItem(target, item); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *MessagingNetwork) queueBatchItem(target ids.NodeID, item messaging.ConsensusItem) error {
	n.batchMu.Lock()
	b, ok := n.batches[target]
	if !ok {
		b = &pendingBatch{}
		n.batches[target] = b
		b.timer = time.AfterFunc(n.cfg.MaxBatchInterval, func() {
			if err := n.flushBatch(target); err != nil {
				n.log.Warn("batch flush on interval failed", log.Hash("target", target))
			}
		})
	}
	b.items = append(b.items, item)
	full := len(b.items) >= n.cfg.MaxBatchSize
	n.batchMu.Unlock()

	if full {
		return n.flushBatch(target)
	}
	return nil
}

func (n *MessagingNetwork) flushBatch(target ids.NodeID) error {
	n.batchMu.Lock()
	b, ok := n.batches[target]
	if !ok || len(b.items) == 0 {
		n.batchMu.Unlock()
		return nil
	}
	b.timer.Stop()
	items := b.items
	delete(n.batches, target)
	n.batchMu.Unlock()

	req := messaging.BatchedConsensusRequest{Sender: n.self, Items: items}
	return n.sender.Send(target, req.Pack())
}

// Query samples k peers via common, dispatches unbatched dag-query requests
// and blocks (ctx-bounded) until replies land, tallying each peer's reported
// preference by candidate hash.
func (n *MessagingNetwork) Query(ctx context.Context, k uint64, state AccountStateChoice, common CommonConsensusNetwork) (map[ids.Hash]uint64, error) {
	targets, err := common.GetNodesExceptOne(ctx, k, n.self)
	if err != nil {
		return nil, err
	}

	txID := *state.Tx.ID
	corr := newQueryCorrelator()
	n.corrMu.Lock()
	n.correlators[txID] = corr
	n.corrMu.Unlock()
	defer func() {
		n.corrMu.Lock()
		delete(n.correlators, txID)
		n.corrMu.Unlock()
	}()

	if err := n.sendRequests(state, targets); err != nil {
		return nil, err
	}

	return corr.wait(ctx, uint64(len(targets))), nil
}

// AcceptIncomingConsensusResponse records node's vote on txID, returning the
// running yes/total counts DagQuery's waiter consumes.
func (n *MessagingNetwork) AcceptIncomingConsensusResponse(node ids.NodeID, txID ids.Hash, accepted bool) (runningYes, total uint64) {
	return n.tally.Record(node, txID, accepted)
}

// HandleDagConsensusRequest answers an inbound DagConsensusRequest from
// peer, adopting and kicking off a consensus round for a previously-unseen
// candidate before replying.
func (n *MessagingNetwork) HandleDagConsensusRequest(peer ids.NodeID, req messaging.DagConsensusRequest) {
	state := minimalState(req.ConsensusItem)

	preferred, exists := n.engine.OnQuery(state)
	if !exists {
		n.engine.Query(state)
		if n.onNewTx != nil {
			go n.onNewTx(state)
		}
		preferred, exists = n.engine.OnQuery(state)
	}

	resp := messaging.DagConsensusResponse{
		AccountStateID: req.AccountStateID,
		TxID:           req.TxID,
		Preferred:      preferred,
		HasPreferred:   preferred != ids.Empty,
		Exists:         exists,
	}
	if err := n.sender.Send(peer, resp.Pack()); err != nil {
		n.log.Warn("failed to send dag consensus response", log.Hash("to", peer))
	}
}

// HandleDagConsensusResponse correlates an inbound DagConsensusResponse
// against both the yes/total accounting hook (for a waiting DagQuery) and
// any in-flight Query's per-candidate tally.
func (n *MessagingNetwork) HandleDagConsensusResponse(peer ids.NodeID, resp messaging.DagConsensusResponse) {
	positive := resp.Exists && (!resp.HasPreferred || resp.Preferred == resp.TxID)
	n.AcceptIncomingConsensusResponse(peer, resp.TxID, positive)

	n.corrMu.Lock()
	corr, ok := n.correlators[resp.TxID]
	n.corrMu.Unlock()
	if !ok {
		return
	}
	choice := resp.Preferred
	if !resp.HasPreferred && resp.Exists {
		choice = resp.TxID
	}
	if resp.HasPreferred || resp.Exists {
		corr.record(choice)
	}
}

// HandleBatchedConsensusRequest answers an inbound BatchedConsensusRequest,
// one Vote per coalesced item, adopting previously-unseen candidates the
// same way HandleDagConsensusRequest does.
func (n *MessagingNetwork) HandleBatchedConsensusRequest(peer ids.NodeID, req messaging.BatchedConsensusRequest) {
	votes := make([]messaging.Vote, 0, len(req.Items))
	for _, item := range req.Items {
		state := minimalState(item)

		preferred, exists := n.engine.OnQuery(state)
		if !exists {
			n.engine.Query(state)
			if n.onNewTx != nil {
				go n.onNewTx(state)
			}
			preferred, exists = n.engine.OnQuery(state)
		}

		accepted := exists && (!(preferred != ids.Empty) || preferred == item.TxID)
		votes = append(votes, messaging.Vote{TxID: item.TxID, Accepted: accepted})
	}

	resp := messaging.BatchedConsensusResponse{Sender: n.self, Votes: votes}
	if err := n.sender.Send(peer, resp.Pack()); err != nil {
		n.log.Warn("failed to send batched consensus response", log.Hash("to", peer))
	}
}

// HandleBatchedConsensusResponse records every vote in resp against the
// yes/total accounting hook.
func (n *MessagingNetwork) HandleBatchedConsensusResponse(peer ids.NodeID, resp messaging.BatchedConsensusResponse) {
	for _, v := range resp.Votes {
		n.AcceptIncomingConsensusResponse(peer, v.TxID, v.Accepted)
	}
}

// queryCorrelator tallies a single in-flight Query call's replies by
// candidate hash, and lets the caller block until enough have landed.
type queryCorrelator struct {
	mu     sync.Mutex
	cond   *sync.Cond
	counts map[ids.Hash]uint64
	total  uint64
}

func newQueryCorrelator() *queryCorrelator {
	c := &queryCorrelator{counts: make(map[ids.Hash]uint64)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *queryCorrelator) record(choice ids.Hash) {
	c.mu.Lock()
	c.counts[choice]++
	c.total++
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *queryCorrelator) wait(ctx context.Context, want uint64) map[ids.Hash]uint64 {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-stop:
		}
	}()
	defer close(stop)

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.total < want && ctx.Err() == nil {
		c.cond.Wait()
	}
	out := make(map[ids.Hash]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
