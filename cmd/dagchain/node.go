// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/kobby-pentangeli/dagchain/config"
	"github.com/kobby-pentangeli/dagchain/consensus"
	"github.com/kobby-pentangeli/dagchain/consensus/sample"
	"github.com/kobby-pentangeli/dagchain/core/tx"
	"github.com/kobby-pentangeli/dagchain/crypto/hash"
	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
	"github.com/kobby-pentangeli/dagchain/messaging"
	"github.com/kobby-pentangeli/dagchain/network"
	"github.com/kobby-pentangeli/dagchain/routing"
	"github.com/kobby-pentangeli/dagchain/storage"
)

// consensusEngine is the subset of *consensus.DAG / *consensus.Quantum a
// node needs at this wiring layer, selected once at startup by
// cfg.Consensus.Quantum. It also satisfies consensus.Engine so the same
// value can answer inbound queries through a consensus.MessagingNetwork.
type consensusEngine interface {
	TargetCount() uint64
	consensus.Responder
	consensus.Querier
}

// ledger is the node's in-memory index of seen transactions, backing the
// consensus engine's parent lookups. It is not persisted: nothing is written
// to the opened storage.KV, so the index starts empty on every restart.
type ledger struct {
	mu  sync.RWMutex
	txs map[ids.Hash]*tx.Transaction
}

func newLedger() *ledger {
	return &ledger{txs: make(map[ids.Hash]*tx.Transaction)}
}

func (l *ledger) put(t *tx.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[*t.ID] = t
}

func (l *ledger) parentOf(id ids.Hash) (ids.Hash, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.txs[id]
	if !ok {
		return ids.Hash{}, false
	}
	return t.Parent, true
}

// dispatcher implements messaging.EventDispatcher: it routes inbound
// messages by Kind to the routing table or the consensus network, and logs
// any kind it has no handler for.
type dispatcher struct {
	self         ids.NodeID
	table        *routing.Table
	consensusNet *consensus.MessagingNetwork
	log          log.Logger
}

func (d *dispatcher) Dispatch(from ids.NodeID, inner messaging.Message) {
	switch inner.Kind {
	case messaging.KindIdentification:
		// Identity is already established at the transport layer on
		// connect; nothing further to do here.
	case messaging.KindContacts:
		addrs, err := messaging.UnpackContacts(inner)
		if err != nil {
			d.log.Warn("malformed contacts message", log.Hash("from", from))
			return
		}
		d.log.Debug("received contacts referral", zap.Strings("addrs", addrs))
	case messaging.KindRoutingTable:
		rt, err := messaging.UnpackRoutingTable(inner)
		if err != nil {
			d.log.Warn("malformed routing table message", log.Hash("from", from))
			return
		}
		if d.table.MergeGossip(rt.Source, rt.Shared) {
			d.log.Debug("routing table updated from gossip", log.Hash("from", from))
		}
	case messaging.KindDagConsensusRequest:
		req, err := messaging.UnpackDagConsensusRequest(inner)
		if err != nil {
			d.log.Warn("malformed dag consensus request", log.Hash("from", from))
			return
		}
		d.consensusNet.HandleDagConsensusRequest(from, req)
	case messaging.KindDagConsensusResponse:
		resp, err := messaging.UnpackDagConsensusResponse(inner)
		if err != nil {
			d.log.Warn("malformed dag consensus response", log.Hash("from", from))
			return
		}
		d.consensusNet.HandleDagConsensusResponse(from, resp)
	case messaging.KindBatchedConsensusRequest:
		req, err := messaging.UnpackBatchedConsensusRequest(inner)
		if err != nil {
			d.log.Warn("malformed batched consensus request", log.Hash("from", from))
			return
		}
		d.consensusNet.HandleBatchedConsensusRequest(from, req)
	case messaging.KindBatchedConsensusResponse:
		resp, err := messaging.UnpackBatchedConsensusResponse(inner)
		if err != nil {
			d.log.Warn("malformed batched consensus response", log.Hash("from", from))
			return
		}
		d.consensusNet.HandleBatchedConsensusResponse(from, resp)
	default:
		d.log.Debug("received message kind with no local handler", zap.Uint8("kind", uint8(inner.Kind)), log.Hash("from", from))
	}
}

// node owns the wiring between transport, routing, messaging and consensus
// for one running dagchain process.
type node struct {
	cfg   config.Config
	store storage.KV
	self  ids.NodeID

	table   *routing.Table
	connMgr *routing.Manager
	nw      *network.Network
	fwd     *messaging.Forwarder
	engine  consensusEngine
	sampler *sample.Peers
	ledger  *ledger

	// tree backs the confidence-tree walk of the DAG engine variant; left
	// nil when running the Quantum variant, which carries no such tree.
	tree         *consensus.HashTree
	consensusNet *consensus.MessagingNetwork

	log log.Logger
}

// deriveSelfID derives a stable node identity from the configured listen
// address. A production deployment would derive this from a provisioned BLS
// keypair (see crypto/bls); that provisioning step is out of scope for this
// wiring layer.
func deriveSelfID(cfg config.Config) ids.NodeID {
	return hash.Sum256([]byte(cfg.ListenAddr))
}

// newNode wires together a node's transport, routing, messaging and
// consensus layers without starting any network activity; call Run to begin
// listening and dialing bootstrap peers.
func newNode(cfg config.Config, store storage.KV) *node {
	self := deriveSelfID(cfg)
	nodeLog := log.Named("node")

	table := routing.New()
	connMgr := routing.NewManager(table, func() []net.Addr { return nil })

	nw := network.New(self, connMgr)

	led := newLedger()
	disp := &dispatcher{self: self, table: table, log: log.Named("dispatch")}

	nextHop := func(target ids.Hash) (ids.NodeID, bool) {
		entry, ok := table.Get(target)
		if !ok || entry.Unreachable() {
			return ids.NodeID{}, false
		}
		return entry.NextHop, true
	}
	fwd := messaging.NewForwarder(self, nextHop, nw, disp)
	nw.AttachForwarder(fwd)

	cfg.Consensus.K = clampSampleSize(cfg.Consensus.K, connMgr)

	var (
		engine consensusEngine
		tree   *consensus.HashTree
	)
	if cfg.Consensus.Quantum {
		engine = consensus.NewQuantum(cfg.Consensus, self)
	} else {
		engine = consensus.NewDAG(cfg.Consensus, self, led.parentOf)
		tree = consensus.NewHashTree()
	}

	sampler := sample.New(connMgr)

	n := &node{
		cfg:     cfg,
		store:   store,
		self:    self,
		table:   table,
		connMgr: connMgr,
		nw:      nw,
		fwd:     fwd,
		engine:  engine,
		sampler: sampler,
		ledger:  led,
		tree:    tree,
		log:     nodeLog,
	}

	// A request about a transaction this node has never seen adopts it
	// locally and fires a consensus round for it. With the DAG engine that
	// round runs like one for a locally submitted transaction; with the
	// Quantum engine the adopted candidate is already in the conflict set,
	// so its FireConsensus reports InProgress.
	onNewTx := func(state consensus.AccountStateChoice) {
		if _, err := n.runConsensusRound(context.Background(), state); err != nil {
			n.log.Warn("consensus round for adopted candidate failed", log.Hash("tx", *state.Tx.ID), zap.Error(err))
		}
	}
	n.consensusNet = consensus.NewMessagingNetwork(cfg.Consensus, self, fwd, engine, onNewTx)
	disp.consensusNet = n.consensusNet

	return n
}

// runConsensusRound drives one FireConsensus call for state against the
// live MessagingNetwork, dispatching the sample-and-query round over the
// wire and dispatching on the concrete engine variant, since *consensus.DAG
// and *consensus.Quantum's FireConsensus signatures differ by one argument
// (the confidence tree).
func (n *node) runConsensusRound(ctx context.Context, state consensus.AccountStateChoice) (consensus.Outcome, error) {
	switch eng := n.engine.(type) {
	case *consensus.DAG:
		if err := eng.SendConsensusRequests(ctx, state, n.consensusNet, n.sampler, eng.TargetCount()); err != nil {
			return consensus.Outcome{}, err
		}
		return eng.FireConsensus(ctx, state, n.consensusNet, n.sampler, n.tree)
	case *consensus.Quantum:
		if err := eng.SendConsensusRequests(ctx, state, n.consensusNet, n.sampler, eng.TargetCount()); err != nil {
			return consensus.Outcome{}, err
		}
		return eng.FireConsensus(ctx, state, n.consensusNet, n.sampler)
	default:
		return consensus.Outcome{}, fmt.Errorf("unsupported consensus engine type %T", eng)
	}
}

// SubmitTransaction records t in the ledger and drives a consensus round
// for it, returning the decided outcome.
func (n *node) SubmitTransaction(ctx context.Context, t *tx.Transaction) (consensus.Outcome, error) {
	n.ledger.put(t)
	state := consensus.AccountStateChoice{AccountStateID: t.Origin, Tx: t}
	return n.runConsensusRound(ctx, state)
}

// clampSampleSize is a no-op placeholder kept distinct from
// consensus.DefaultConfig's K so a future bootstrap-aware sizing rule (k no
// larger than the known peer count) has an obvious seam to land in.
func clampSampleSize(k uint64, _ *routing.Manager) uint64 { return k }

// Run starts listening for inbound connections, dials every configured
// bootstrap node, and blocks until the process receives an interrupt or
// termination signal.
func (n *node) Run() error {
	ln, err := n.nw.Listen(n.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	n.log.Info("listening", zap.String("addr", n.cfg.ListenAddr), log.Hash("self", n.self))

	for _, addr := range n.cfg.BootstrapNodes {
		if err := n.nw.Dial(addr); err != nil {
			n.log.Warn("failed to dial bootstrap node", zap.String("addr", addr), zap.Error(err))
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	n.log.Info("shutting down")
	return nil
}
