// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package network ties the peer package's TCP framing to the routing
// connection-lifecycle state machine and the messaging forwarder, giving
// cmd/dagchain one Dial/Listen surface to start a node on.
package network

import (
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
	"github.com/kobby-pentangeli/dagchain/messaging"
	"github.com/kobby-pentangeli/dagchain/network/peer"
	"github.com/kobby-pentangeli/dagchain/routing"
)

// Network is the messaging.Transport and peer.Handler collaborator wiring
// live TCP connections into the routing connection Manager and, once
// attached, the messaging Forwarder.
type Network struct {
	self ids.NodeID
	mgr  *routing.Manager
	log  log.Logger

	mu    sync.RWMutex
	peers map[ids.NodeID]*peer.Peer

	fwd *messaging.Forwarder
}

// New constructs a Network for node self, backed by connection manager mgr.
// AttachForwarder must be called once the messaging.Forwarder using this
// Network as its Transport exists, closing the construction cycle between
// the two.
func New(self ids.NodeID, mgr *routing.Manager) *Network {
	return &Network{
		self:  self,
		mgr:   mgr,
		log:   log.Named("network"),
		peers: make(map[ids.NodeID]*peer.Peer),
	}
}

// AttachForwarder wires the Forwarder that owns dispatch of inbound
// AgentMessages.
func (n *Network) AttachForwarder(fwd *messaging.Forwarder) {
	n.fwd = fwd
}

// Send implements messaging.Transport: deliver payload to an already
// identified peer, or report an error so the Forwarder parks it for retry.
func (n *Network) Send(target ids.NodeID, payload []byte) error {
	n.mu.RLock()
	p, ok := n.peers[target]
	n.mu.RUnlock()
	if !ok {
		return fmt.Errorf("network: no open connection to %s", target.Abridged())
	}
	return p.Send(payload)
}

// HandleMessage implements peer.Handler: every framed payload received over
// a connection is a packed messaging.AgentMessage.
func (n *Network) HandleMessage(from ids.NodeID, payload []byte) {
	am, err := messaging.UnpackAgentMessage(payload)
	if err != nil {
		n.log.Warn("dropping malformed agent message", log.Hash("from", from))
		return
	}
	if n.fwd != nil {
		n.fwd.Receive(from, am)
	}
}

// Listen accepts inbound connections on addr until the returned listener is
// closed, registering each as it completes the handshake.
func (n *Network) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go n.acceptLoop(ln)
	return ln, nil
}

func (n *Network) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		raddr := conn.RemoteAddr()
		if _, err := n.mgr.Add(raddr, true); err != nil {
			n.log.Debug("rejecting connection, table full", zap.String("from", raddr.String()))
			conn.Close()
			continue
		}
		p, err := peer.Accept(conn, n.self, n)
		if err != nil {
			n.mgr.Remove(raddr)
			continue
		}
		n.register(raddr, p)
	}
}

// Dial opens an outgoing connection to addr and registers it the same way
// an accepted connection is registered.
func (n *Network) Dial(addr string) error {
	raddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}
	if _, err := n.mgr.Add(raddr, false); err != nil {
		return err
	}
	p, err := peer.Dial(addr, n.self, n)
	if err != nil {
		n.mgr.Remove(raddr)
		return err
	}
	n.register(raddr, p)
	return nil
}

func (n *Network) register(addr net.Addr, p *peer.Peer) {
	if err := n.mgr.Identify(addr, p.ID()); err != nil {
		n.log.Warn("identify failed, closing connection", log.Hash("peer", p.ID()))
		p.Close()
		return
	}
	n.mu.Lock()
	n.peers[p.ID()] = p
	n.mu.Unlock()
	n.log.Info("peer connected", log.Hash("peer", p.ID()))
}
