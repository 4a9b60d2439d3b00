// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package messaging

import (
	"errors"
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
	"github.com/kobby-pentangeli/dagchain/wire"
)

// DefaultTTL is AgentMessage's initial hop budget.
const DefaultTTL = 5

// Hop is one (target, inner message, ttl_remaining) triple of an
// AgentMessage's payload.
type Hop struct {
	Target ids.Hash
	Inner  Message
	TTL    uint8
}

// Pack appends h's wire encoding to p.
func (h Hop) Pack(p *wire.Packer) {
	p.PackFixedBytes(h.Target[:])
	h.Inner.Pack(p)
	p.PackByte(h.TTL)
}

// UnpackHop decodes a Hop written by Pack.
func UnpackHop(u *wire.Unpacker) (Hop, error) {
	target, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return Hop{}, err
	}
	inner := UnpackMessage(u)
	ttl := u.UnpackByte()
	return Hop{Target: target, Inner: inner, TTL: ttl}, u.Err
}

// AgentMessage is the TTL-bounded, source-routed, per-hop-batched envelope
// every application payload is wrapped in.
type AgentMessage struct {
	Payload []Hop
}

// Pack encodes am canonically.
func (am AgentMessage) Pack() []byte {
	p := &wire.Packer{}
	p.PackInt(uint32(len(am.Payload)))
	for _, h := range am.Payload {
		h.Pack(p)
	}
	return p.Bytes
}

// UnpackAgentMessage decodes an AgentMessage written by Pack.
func UnpackAgentMessage(b []byte) (AgentMessage, error) {
	u := wire.NewUnpacker(b)
	n := u.UnpackInt()
	out := make([]Hop, 0, n)
	for i := uint32(0); i < n; i++ {
		h, err := UnpackHop(u)
		if err != nil {
			return AgentMessage{}, err
		}
		out = append(out, h)
	}
	return AgentMessage{Payload: out}, u.Err
}

// NextHopLookup resolves target's next hop for forwarding, backed by the
// routing table.
type NextHopLookup func(target ids.Hash) (nextHop ids.NodeID, ok bool)

// Transport is the narrow send(peer, bytes) collaborator messaging sits on
// top of: the raw UDP/QUIC datagram transport, exposed only as
// send(peer, bytes) with unreliable delivery hints.
type Transport interface {
	Send(peer ids.NodeID, payload []byte) error
}

// EventDispatcher delivers a Message addressed to this node to whichever
// consensus/routing handler understands its Kind.
type EventDispatcher interface {
	Dispatch(from ids.NodeID, inner Message)
}

// Forwarder implements the per-node agent-message forwarding loop: on
// receipt, pop every hop; deliver local targets, re-queue forwarded ones
// (TTL permitting) into a per-next-hop outbox, then flush the outbox as one
// AgentMessage per next hop.
type Forwarder struct {
	self      ids.NodeID
	nextHop   NextHopLookup
	transport Transport
	dispatch  EventDispatcher
	log       log.Logger

	mu      sync.Mutex
	pending map[ids.NodeID][]byte // unsent datagrams, re-flushed on next send
}

// NewForwarder constructs a Forwarder for node self.
func NewForwarder(self ids.NodeID, nextHop NextHopLookup, transport Transport, dispatch EventDispatcher) *Forwarder {
	return &Forwarder{
		self:      self,
		nextHop:   nextHop,
		transport: transport,
		dispatch:  dispatch,
		log:       log.Named("messaging"),
		pending:   make(map[ids.NodeID][]byte),
	}
}

// Receive processes an incoming AgentMessage from peer: delivers hops
// addressed to self, re-queues hops bound elsewhere (TTL permitting) into a
// per-next-hop outbox, then flushes that outbox, one AgentMessage per next
// hop.
func (f *Forwarder) Receive(from ids.NodeID, am AgentMessage) {
	outbox := make(map[ids.NodeID][]Hop)

	for _, hop := range am.Payload {
		switch {
		case hop.Target == f.self:
			f.dispatch.Dispatch(from, hop.Inner)
		case hop.TTL >= 1:
			next, ok := f.nextHop(hop.Target)
			if !ok {
				f.log.Warn("no route to forward target, dropping hop", log.Hash("target", hop.Target))
				continue
			}
			outbox[next] = append(outbox[next], Hop{Target: hop.Target, Inner: hop.Inner, TTL: hop.TTL - 1})
		default:
			// TTL exhausted: drop silently.
		}
	}

	for next, hops := range outbox {
		f.sendAgentMessage(next, AgentMessage{Payload: hops})
	}
}

// Send wraps a single inner message for target, routed via the current
// next-hop and dispatched as a fresh DefaultTTL AgentMessage.
func (f *Forwarder) Send(target ids.Hash, inner Message) error {
	next, ok := f.nextHop(target)
	if !ok {
		return errNoRoute
	}
	f.sendAgentMessage(next, AgentMessage{Payload: []Hop{{Target: target, Inner: inner, TTL: DefaultTTL}}})
	return nil
}

// sendAgentMessage transmits am to next hop's socket, parking it in the
// pending queue on a transport-reported unsent datagram: there is no
// acknowledgement and no retransmit-with-backoff. Any previously pending
// datagram for next is flushed first.
func (f *Forwarder) sendAgentMessage(next ids.NodeID, am AgentMessage) {
	f.flushPending(next)

	if err := f.transport.Send(next, am.Pack()); err != nil {
		f.mu.Lock()
		f.pending[next] = am.Pack()
		f.mu.Unlock()
		f.log.Debug("parked unsent agent message", log.Hash("next_hop", next))
	}
}

// flushPending re-sends any datagram parked for next from a prior unsent
// report.
func (f *Forwarder) flushPending(next ids.NodeID) {
	f.mu.Lock()
	payload, ok := f.pending[next]
	if ok {
		delete(f.pending, next)
	}
	f.mu.Unlock()
	if !ok {
		return
	}
	if err := f.transport.Send(next, payload); err != nil {
		f.mu.Lock()
		f.pending[next] = payload
		f.mu.Unlock()
	}
}

var errNoRoute = errors.New("messaging: no route to target")
