// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package messaging implements the wire message envelope, the TTL-bounded
// source-routed AgentMessage forwarding and the per-destination outbox the
// consensus and routing layers sit on top of.
package messaging

import (
	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/wire"
)

// Kind tags the wire message union.
type Kind uint8

const (
	KindUser Kind = iota
	KindEncrypted
	KindAuthenticated
	KindSigned
	KindIdentification
	KindContacts
	KindAgent
	KindRoutingTable
	KindConsensusRequest
	KindDagConsensusRequest
	KindDagConsensusResponse
	KindInitBenchmarking
	KindCompleteRound
	KindBenchmarkStats
	KindBatchedConsensusRequest
	KindBatchedConsensusResponse
)

// Message is the tagged-union wire envelope: a Kind tag plus the canonical
// binary encoding of that kind's payload, packed with the wire.Packer codec
// used throughout dagchain.
type Message struct {
	Kind    Kind
	Payload []byte
}

// Pack appends m's wire encoding to p.
func (m Message) Pack(p *wire.Packer) {
	p.PackByte(byte(m.Kind))
	p.PackBytes(m.Payload)
}

// UnpackMessage decodes a Message written by Pack.
func UnpackMessage(u *wire.Unpacker) Message {
	return Message{
		Kind:    Kind(u.UnpackByte()),
		Payload: u.UnpackBytes(),
	}
}

// Identification wraps the handshake payload: our own node hash, the first
// application message on any new connection.
func Identification(self ids.NodeID) Message {
	p := &wire.Packer{}
	p.PackFixedBytes(self[:])
	return Message{Kind: KindIdentification, Payload: p.Bytes}
}

// UnpackIdentification decodes an Identification payload.
func UnpackIdentification(m Message) (ids.NodeID, error) {
	u := wire.NewUnpacker(m.Payload)
	node, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return ids.NodeID{}, err
	}
	return node, u.Err
}

// Contacts wraps the referral payload sent to a peer when the connection
// table is full: our current peer addresses, encoded as length-prefixed
// strings.
func Contacts(addrs []string) Message {
	p := &wire.Packer{}
	p.PackInt(uint32(len(addrs)))
	for _, a := range addrs {
		p.PackString(a)
	}
	return Message{Kind: KindContacts, Payload: p.Bytes}
}

// UnpackContacts decodes a Contacts payload.
func UnpackContacts(m Message) ([]string, error) {
	u := wire.NewUnpacker(m.Payload)
	n := u.UnpackInt()
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, u.UnpackString())
	}
	return out, u.Err
}

// RoutingTableMessage wraps the gossip payload: a peer's shared routing
// table plus its source node id.
type RoutingTableMessage struct {
	Source ids.NodeID
	Shared map[ids.NodeID]uint32
}

// Pack encodes r canonically.
func (r RoutingTableMessage) Pack() Message {
	p := &wire.Packer{}
	p.PackFixedBytes(r.Source[:])
	p.PackInt(uint32(len(r.Shared)))
	dests := make([]ids.NodeID, 0, len(r.Shared))
	for d := range r.Shared {
		dests = append(dests, d)
	}
	sortHashes(dests)
	for _, d := range dests {
		p.PackFixedBytes(d[:])
		p.PackInt(r.Shared[d])
	}
	return Message{Kind: KindRoutingTable, Payload: p.Bytes}
}

// UnpackRoutingTable decodes a RoutingTableMessage.
func UnpackRoutingTable(m Message) (RoutingTableMessage, error) {
	u := wire.NewUnpacker(m.Payload)
	source, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return RoutingTableMessage{}, err
	}
	n := u.UnpackInt()
	shared := make(map[ids.NodeID]uint32, n)
	for i := uint32(0); i < n; i++ {
		dest, derr := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
		if derr != nil {
			return RoutingTableMessage{}, derr
		}
		shared[dest] = u.UnpackInt()
	}
	return RoutingTableMessage{Source: source, Shared: shared}, u.Err
}

func sortHashes(hs []ids.Hash) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Less(hs[j-1]); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}

// ConsensusItem is the compact (state, candidate) reference a dag-query
// carries over the wire: the account state being contested, the candidate
// transaction's id, and that transaction's parent (enough for the peer's
// local conflict-set/choice-map lookups and confidence tree walk — the full
// Transaction, including amount and signatures, never needs to cross this
// particular wire).
type ConsensusItem struct {
	AccountStateID ids.Hash
	TxID           ids.Hash
	Parent         ids.Hash
}

func (c ConsensusItem) pack(p *wire.Packer) {
	p.PackFixedBytes(c.AccountStateID[:])
	p.PackFixedBytes(c.TxID[:])
	p.PackFixedBytes(c.Parent[:])
}

func unpackConsensusItem(u *wire.Unpacker) (ConsensusItem, error) {
	stateID, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return ConsensusItem{}, err
	}
	txID, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return ConsensusItem{}, err
	}
	parent, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return ConsensusItem{}, err
	}
	return ConsensusItem{AccountStateID: stateID, TxID: txID, Parent: parent}, u.Err
}

// DagConsensusRequest asks one peer whether TxID (with the given Parent) is
// a known candidate for AccountStateID, and what that peer currently
// prefers for it.
type DagConsensusRequest struct {
	ConsensusItem
}

// Pack encodes r as a Message.
func (r DagConsensusRequest) Pack() Message {
	p := &wire.Packer{}
	r.ConsensusItem.pack(p)
	return Message{Kind: KindDagConsensusRequest, Payload: p.Bytes}
}

// UnpackDagConsensusRequest decodes a DagConsensusRequest.
func UnpackDagConsensusRequest(m Message) (DagConsensusRequest, error) {
	u := wire.NewUnpacker(m.Payload)
	item, err := unpackConsensusItem(u)
	if err != nil {
		return DagConsensusRequest{}, err
	}
	return DagConsensusRequest{ConsensusItem: item}, u.Err
}

// DagConsensusResponse answers a DagConsensusRequest: whether the queried
// transaction is a recorded candidate (Exists), and the responder's current
// preference for that account state, if any (HasPreferred/Preferred).
type DagConsensusResponse struct {
	AccountStateID ids.Hash
	TxID           ids.Hash
	Preferred      ids.Hash
	HasPreferred   bool
	Exists         bool
}

// Pack encodes r as a Message.
func (r DagConsensusResponse) Pack() Message {
	p := &wire.Packer{}
	p.PackFixedBytes(r.AccountStateID[:])
	p.PackFixedBytes(r.TxID[:])
	p.PackFixedBytes(r.Preferred[:])
	p.PackBool(r.HasPreferred)
	p.PackBool(r.Exists)
	return Message{Kind: KindDagConsensusResponse, Payload: p.Bytes}
}

// UnpackDagConsensusResponse decodes a DagConsensusResponse.
func UnpackDagConsensusResponse(m Message) (DagConsensusResponse, error) {
	u := wire.NewUnpacker(m.Payload)
	stateID, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return DagConsensusResponse{}, err
	}
	txID, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return DagConsensusResponse{}, err
	}
	preferred, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return DagConsensusResponse{}, err
	}
	hasPreferred := u.UnpackBool()
	exists := u.UnpackBool()
	return DagConsensusResponse{
		AccountStateID: stateID,
		TxID:           txID,
		Preferred:      preferred,
		HasPreferred:   hasPreferred,
		Exists:         exists,
	}, u.Err
}

// BatchedConsensusRequest coalesces multiple ConsensusItems bound for the
// same peer into one wire message, per Config's MaxBatchSize/
// MaxBatchInterval policy.
type BatchedConsensusRequest struct {
	Sender ids.NodeID
	Items  []ConsensusItem
}

// Pack encodes r as a Message.
func (r BatchedConsensusRequest) Pack() Message {
	p := &wire.Packer{}
	p.PackFixedBytes(r.Sender[:])
	p.PackInt(uint32(len(r.Items)))
	for _, item := range r.Items {
		item.pack(p)
	}
	return Message{Kind: KindBatchedConsensusRequest, Payload: p.Bytes}
}

// UnpackBatchedConsensusRequest decodes a BatchedConsensusRequest.
func UnpackBatchedConsensusRequest(m Message) (BatchedConsensusRequest, error) {
	u := wire.NewUnpacker(m.Payload)
	sender, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return BatchedConsensusRequest{}, err
	}
	n := u.UnpackInt()
	items := make([]ConsensusItem, 0, n)
	for i := uint32(0); i < n; i++ {
		item, ierr := unpackConsensusItem(u)
		if ierr != nil {
			return BatchedConsensusRequest{}, ierr
		}
		items = append(items, item)
	}
	return BatchedConsensusRequest{Sender: sender, Items: items}, u.Err
}

// Vote is one entry of a BatchedConsensusResponse's reply vector: a
// (tx_id, accepted) pair. The requester correlates by TxID, not position, to
// tolerate reordering.
type Vote struct {
	TxID     ids.Hash
	Accepted bool
}

func (v Vote) pack(p *wire.Packer) {
	p.PackFixedBytes(v.TxID[:])
	p.PackBool(v.Accepted)
}

func unpackVote(u *wire.Unpacker) (Vote, error) {
	txID, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return Vote{}, err
	}
	return Vote{TxID: txID, Accepted: u.UnpackBool()}, u.Err
}

// BatchedConsensusResponse carries one peer's replies to a
// BatchedConsensusRequest.
type BatchedConsensusResponse struct {
	Sender ids.NodeID
	Votes  []Vote
}

// Pack encodes r as a Message.
func (r BatchedConsensusResponse) Pack() Message {
	p := &wire.Packer{}
	p.PackFixedBytes(r.Sender[:])
	p.PackInt(uint32(len(r.Votes)))
	for _, v := range r.Votes {
		v.pack(p)
	}
	return Message{Kind: KindBatchedConsensusResponse, Payload: p.Bytes}
}

// UnpackBatchedConsensusResponse decodes a BatchedConsensusResponse.
func UnpackBatchedConsensusResponse(m Message) (BatchedConsensusResponse, error) {
	u := wire.NewUnpacker(m.Payload)
	sender, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
	if err != nil {
		return BatchedConsensusResponse{}, err
	}
	n := u.UnpackInt()
	votes := make([]Vote, 0, n)
	for i := uint32(0); i < n; i++ {
		v, verr := unpackVote(u)
		if verr != nil {
			return BatchedConsensusResponse{}, verr
		}
		votes = append(votes, v)
	}
	return BatchedConsensusResponse{Sender: sender, Votes: votes}, u.Err
}
