// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hvc implements the Hierarchical Vector Clock: a per-actor
// monotonic counter vector plus a local logical tick, used to order
// transactions causally.
//
// Merge takes the componentwise max of the two vectors, the standard
// vector-clock merge. A sum-based merge would double-count increments two
// clocks already each recorded and break the partition of every pair into
// happened-before, happened-after or concurrent.
package hvc

import (
	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/wire"
)

// HVC is a vector of per-node counters plus a local logical clock used to
// order an account's own transaction history independent of the network.
type HVC struct {
	vector            map[ids.NodeID]uint64
	hierarchicalOrder uint64
}

// New returns an empty HVC.
func New() *HVC {
	return &HVC{vector: make(map[ids.NodeID]uint64)}
}

// Clone returns a deep copy.
func (h *HVC) Clone() *HVC {
	out := &HVC{
		vector:            make(map[ids.NodeID]uint64, len(h.vector)),
		hierarchicalOrder: h.hierarchicalOrder,
	}
	for k, v := range h.vector {
		out.vector[k] = v
	}
	return out
}

// Increment bumps the counter for node, treating an absent entry as zero.
func (h *HVC) Increment(node ids.NodeID) {
	h.vector[node] = h.vector[node] + 1
}

// Get returns node's component, or 0 if unknown.
func (h *HVC) Get(node ids.NodeID) uint64 {
	return h.vector[node]
}

// Order is the local per-account monotonic tick used to order local balance
// updates.
type Order struct {
	h *HVC
}

// Order returns a handle onto this HVC's local logical clock.
func (h *HVC) Order() Order { return Order{h: h} }

// Increment advances the local logical clock by one and returns the new
// value.
func (o Order) Increment() uint64 {
	o.h.hierarchicalOrder++
	return o.h.hierarchicalOrder
}

// Get returns the current local logical clock value.
func (o Order) Get() uint64 { return o.h.hierarchicalOrder }

// HappenedBefore reports whether h strictly happened-before other:
// componentwise (zero-filling missing keys) every component of h is <= the
// corresponding component of other, and at least one is strictly less.
// Returns false on equality.
func (h *HVC) HappenedBefore(other *HVC) bool {
	lessOrEqual, strictlyLess := compare(h, other)
	return lessOrEqual && strictlyLess
}

// Concurrent reports whether neither clock happened-before the other.
func (h *HVC) Concurrent(other *HVC) bool {
	return !h.HappenedBefore(other) && !other.HappenedBefore(h)
}

// compare walks the union of both clocks' keys and reports:
//  1. whether every component of a is <= the corresponding component of b
//  2. whether at least one component of a is strictly < the corresponding
//     component of b
func compare(a, b *HVC) (lessOrEqual, strictlyLess bool) {
	lessOrEqual = true
	seen := make(map[ids.NodeID]struct{}, len(a.vector)+len(b.vector))
	for node := range a.vector {
		seen[node] = struct{}{}
	}
	for node := range b.vector {
		seen[node] = struct{}{}
	}
	for node := range seen {
		av := a.vector[node]
		bv := b.vector[node]
		if av > bv {
			lessOrEqual = false
		}
		if av < bv {
			strictlyLess = true
		}
	}
	return lessOrEqual, strictlyLess
}

// Merge produces a fresh HVC holding the componentwise max of h and other,
// with a reset hierarchical order.
func (h *HVC) Merge(other *HVC) *HVC {
	out := New()
	for node, v := range h.vector {
		out.vector[node] = v
	}
	for node, v := range other.vector {
		if v > out.vector[node] {
			out.vector[node] = v
		}
	}
	return out
}

// Marshal encodes the HVC canonically (wire.Packer), for persistence and for
// embedding inside a Transaction's wire encoding.
func (h *HVC) Marshal(p *wire.Packer) {
	p.PackInt(uint32(len(h.vector)))

	nodes := make([]ids.NodeID, 0, len(h.vector))
	for n := range h.vector {
		nodes = append(nodes, n)
	}
	// Sort so the encoding is deterministic across runs with the same
	// logical content — required for id determinism when an HVC is embedded
	// in a restricted transaction projection.
	sortHashes(nodes)

	for _, n := range nodes {
		p.PackFixedBytes(n[:])
		p.PackLong(h.vector[n])
	}
	p.PackLong(h.hierarchicalOrder)
}

// Unmarshal decodes an HVC written by Marshal.
func Unmarshal(u *wire.Unpacker) *HVC {
	h := New()
	n := u.UnpackInt()
	for i := uint32(0); i < n; i++ {
		node, err := ids.HashFromBytes(u.UnpackFixedBytes(ids.HashLen))
		if err != nil {
			u.Err = err
			return h
		}
		h.vector[node] = u.UnpackLong()
	}
	h.hierarchicalOrder = u.UnpackLong()
	return h
}

func sortHashes(hs []ids.Hash) {
	// Simple insertion sort: vectors are small (one entry per known node),
	// so this avoids pulling in sort.Slice's reflection overhead for a
	// function called on every transaction hash.
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j].Less(hs[j-1]); j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}
