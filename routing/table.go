// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package routing implements the connection lifecycle state machine and the
// gossiped distance-vector routing table the messaging layer forwards
// through.
package routing

import (
	"math"
	"sort"
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// UnreachableHopCount is the sentinel hop_count for a destination seeded
// from gossip but not yet known to be reachable.
const UnreachableHopCount = math.MaxUint32

// unreachableNextHop is the sentinel next-hop for an unreachable
// destination: a dedicated marker rather than a random node id, so
// diagnostics never confuse "unreachable" with an actual peer.
var unreachableNextHop = ids.Empty

// Entry is one routing-table row: the next hop toward a destination and the
// hop count via that path.
type Entry struct {
	NextHop  ids.NodeID
	HopCount uint32
}

// Unreachable reports whether e is the sentinel "no known path" entry.
func (e Entry) Unreachable() bool {
	return e.NextHop == unreachableNextHop && e.HopCount == UnreachableHopCount
}

// Table is this node's distance-vector routing table: per-destination next
// hop and hop count, plus a version counter bumped by Connect, Disconnect and
// any MergeGossip that improves a hop count.
type Table struct {
	mu      sync.RWMutex
	entries map[ids.NodeID]Entry
	version uint64
}

// New returns an empty routing table.
func New() *Table {
	return &Table{entries: make(map[ids.NodeID]Entry)}
}

// Version returns the table's current version. Readers taking a snapshot
// must copy under the read lock; Snapshot below does this.
func (t *Table) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Get returns the routing entry for dest, if any.
func (t *Table) Get(dest ids.NodeID) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[dest]
	return e, ok
}

// Connect records a direct connection to peer: entries[peer] := (peer, 1);
// version += 1.
func (t *Table) Connect(peer ids.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[peer] = Entry{NextHop: peer, HopCount: 1}
	t.version++
	t.reportLocked()
}

// Disconnect removes a destination whose only known path went through a now
// lost connection. Routing-table entries are never deleted except on
// connection loss.
func (t *Table) Disconnect(peer ids.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[peer]; ok && e.NextHop == peer {
		delete(t.entries, peer)
		t.version++
		t.reportLocked()
	}
}

// Shared is the gossip-visible projection of a routing table: hop counts
// only, no next-hop.
type Shared map[ids.NodeID]uint32

// Snapshot copies the table into its gossip-visible projection under the
// read lock.
func (t *Table) Snapshot() Shared {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Shared, len(t.entries))
	for dest, e := range t.entries {
		out[dest] = e.HopCount
	}
	return out
}

// MergeGossip applies a peer's shared routing table, the distance-vector
// gossip step:
//   - every dest in peer's table unknown to us is seeded unreachable;
//   - every (dest, hopsViaPeer) improving on our current hop count updates
//     our entry to route via peer;
//   - if any hop count improved, bumps Version and reports true, so the
//     caller can re-gossip. Seeding an unreachable entry alone reports false.
func (t *Table) MergeGossip(peer ids.NodeID, shared Shared) (changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for dest := range shared {
		if _, ok := t.entries[dest]; !ok {
			t.entries[dest] = Entry{NextHop: unreachableNextHop, HopCount: UnreachableHopCount}
		}
	}

	for dest, hopsViaPeer := range shared {
		if hopsViaPeer == UnreachableHopCount {
			continue
		}
		candidate := hopsViaPeer + 1
		current := t.entries[dest]
		if candidate < current.HopCount {
			t.entries[dest] = Entry{NextHop: peer, HopCount: candidate}
			changed = true
		}
	}

	if changed {
		t.version++
	}
	t.reportLocked()
	return changed
}

// Destinations returns a sorted snapshot of every known destination, for
// deterministic iteration in tests and diagnostics.
func (t *Table) Destinations() []ids.NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ids.NodeID, 0, len(t.entries))
	for dest := range t.entries {
		out = append(out, dest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
