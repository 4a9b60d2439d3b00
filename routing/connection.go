// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"errors"
	"net"
	"sort"
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// MaxConnectionLen is the maximum number of simultaneous peer connections a
// node holds.
const MaxConnectionLen = 5

// State is a connection's position in the lifecycle FSM: Connecting -> (on
// transport connect success) Incoming or Connected -> (on Identification or
// our own outgoing-connect success) Connected -> (on transport error)
// removed.
type State uint8

const (
	StateConnecting State = iota
	StateIncoming
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIncoming:
		return "Incoming"
	case StateConnected:
		return "Connected"
	default:
		return "Connecting"
	}
}

// ErrConnectionTableFull is returned by Manager.Add when MaxConnectionLen is
// already reached; the caller should refer the peer via Contacts and close
// the socket.
var ErrConnectionTableFull = errors.New("routing: connection table full")

// peerEntry is one row of the connection map: socket_addr -> (Option<NodeHash>, state).
type peerEntry struct {
	nodeID ids.NodeID
	known  bool
	state  State
}

// Manager tracks socket-level connections and the subset of them promoted
// to an identified, active peer.
type Manager struct {
	mu       sync.RWMutex
	conns    map[string]*peerEntry
	active   map[ids.NodeID]string
	routing  *Table
	contacts func() []net.Addr
}

// NewManager constructs a connection Manager backed by routing table rt.
// contacts supplies the current peer list for Contacts-message referral
// when the table is full.
func NewManager(rt *Table, contacts func() []net.Addr) *Manager {
	return &Manager{
		conns:    make(map[string]*peerEntry),
		active:   make(map[ids.NodeID]string),
		routing:  rt,
		contacts: contacts,
	}
}

// Len returns the number of tracked connections, including ones not yet
// identified.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Add registers a new connection at addr as Connecting. If the table is
// already at MaxConnectionLen, it returns the current contacts list and
// ErrConnectionTableFull so the caller can refer the peer elsewhere and
// close the socket.
func (m *Manager) Add(addr net.Addr, incoming bool) ([]net.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.conns) >= MaxConnectionLen {
		return m.contacts(), ErrConnectionTableFull
	}

	state := StateConnecting
	if incoming {
		state = StateIncoming
	}
	m.conns[addr.String()] = &peerEntry{state: state}
	return nil, nil
}

// Identify promotes addr's connection to Connected once the peer's
// Identification(node_id) has been received, or once our own outgoing
// connect attempt succeeds. Re-identification of an already-identified
// socket as a different peer is rejected explicitly rather than silently
// accepted.
func (m *Manager) Identify(addr net.Addr, node ids.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := addr.String()
	entry, ok := m.conns[key]
	if !ok {
		return errUnknownConnection
	}
	if entry.known && entry.nodeID != node {
		return errReidentification
	}

	entry.known = true
	entry.nodeID = node
	entry.state = StateConnected
	m.active[node] = key

	m.routing.Connect(node)
	return nil
}

var (
	errUnknownConnection = errors.New("routing: identify called on unknown connection")
	errReidentification  = errors.New("routing: connection already identified as a different peer")
)

// Remove drops a connection on transport error, releasing its routing-table
// entry if it was the active path to that peer.
func (m *Manager) Remove(addr net.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := addr.String()
	entry, ok := m.conns[key]
	if !ok {
		return
	}
	delete(m.conns, key)
	if entry.known {
		delete(m.active, entry.nodeID)
		m.routing.Disconnect(entry.nodeID)
	}
}

// ActiveConnections returns the node ids of every Connected peer, sorted,
// for deterministic gossip fan-out.
func (m *Manager) ActiveConnections() []ids.NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ids.NodeID, 0, len(m.active))
	for node := range m.active {
		out = append(out, node)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// State returns addr's current FSM state.
func (m *Manager) State(addr net.Addr) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.conns[addr.String()]
	if !ok {
		return 0, false
	}
	return entry.state, true
}
