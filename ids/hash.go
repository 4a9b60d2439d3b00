// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the content-addressed identifiers used throughout the
// consensus, routing and messaging layers.
package ids

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/mr-tron/base58"
)

// HashLen is the width, in bytes, of every Hash in the system. Hashes are
// Blake2b-256 digests; see crypto/hash.
const HashLen = 32

var errWrongHashLen = errors.New("wrong hash length")

// Hash is a 32-byte content digest. The zero value is the all-zero hash and
// is used as the default/"no parent" sentinel throughout the transaction and
// tree-walk code.
type Hash [HashLen]byte

// Empty is the all-zero Hash.
var Empty = Hash{}

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashLen)
	copy(b, h[:])
	return b
}

// Compare gives Hash a total byte-content order, used to sort hashes into a
// canonical order (conflict-set entries, HVC and routing-table encodings).
func (h Hash) Compare(o Hash) int {
	return bytes.Compare(h[:], o[:])
}

// Less reports whether h sorts before o.
func (h Hash) Less(o Hash) bool { return h.Compare(o) < 0 }

// String renders the hash as base58, the same short human-readable form
// ids.ID.String uses elsewhere, safe to print in logs.
func (h Hash) String() string {
	return base58.Encode(h[:])
}

// Hex renders the hash as a lowercase hex string, used by the abridged
// peer-identifier logging convention (AABBCC...XXYYZZ).
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Abridged returns a short "AABBCC...XXYYZZ" form for safe logging of
// peer/tx identifiers.
func (h Hash) Abridged() string {
	full := h.Hex()
	if len(full) <= 12 {
		return full
	}
	return full[:6] + "..." + full[len(full)-6:]
}

// HashFromBytes copies b into a Hash, failing if the length doesn't match.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLen {
		return h, errWrongHashLen
	}
	copy(h[:], b)
	return h, nil
}

// NodeID identifies a participant in the overlay network. It is a plain
// Hash rather than a public key, so routing and messaging never carry BLS
// key material; cmd/dagchain derives its own from its listen address.
type NodeID = Hash
