// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hash wraps Blake2b-256, the content digest used to derive
// transaction and node identities: hash(bytes) -> 32 bytes, treated as a
// black box everywhere else in dagchain. This package is the one seam that
// calls into golang.org/x/crypto.
package hash

import (
	"golang.org/x/crypto/blake2b"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// Sum256 computes the Blake2b-256 digest of data.
func Sum256(data []byte) ids.Hash {
	return blake2b.Sum256(data)
}

// Writer incrementally hashes, for callers that need to fold multiple byte
// slices (e.g. restricted-projection serialization) without concatenating
// them first.
type Writer struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

// NewWriter returns an incremental Blake2b-256 hasher.
func NewWriter() *Writer {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for a non-nil key longer than 64 bytes;
		// we never pass one.
		panic(err)
	}
	return &Writer{h: h}
}

// Write feeds more bytes into the running digest.
func (w *Writer) Write(p []byte) {
	_, _ = w.h.Write(p)
}

// Sum finalizes and returns the digest.
func (w *Writer) Sum() ids.Hash {
	var out ids.Hash
	copy(out[:], w.h.Sum(nil))
	return out
}
