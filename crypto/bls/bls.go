// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bls wraps BLS12-381 signing, verification and aggregation behind
// a narrow black-box interface: sign(sk, bytes) -> sig, verify(pk, bytes,
// sig) -> bool, aggregate([sig]) -> sig. It carries
// github.com/supranational/blst as its BLS implementation and exposes a
// narrow Signer-shaped surface in the style of
// vms/platformvm/signer/empty.go.
package bls

import (
	"errors"

	blst "github.com/supranational/blst/bindings/go"
)

const (
	// SecretKeyLen is the width, in bytes, of a serialized secret key.
	SecretKeyLen = 32
	// PublicKeyLen is the width, in bytes, of a compressed public key.
	PublicKeyLen = 48
	// SignatureLen is the width, in bytes, of a compressed signature.
	SignatureLen = 96
)

var dst = []byte("DAGCHAIN-CONSENSUS-BLS-SIG-V1")

type (
	blstSecretKey = blst.SecretKey
	blstPublicKey = blst.P1Affine
	blstSignature = blst.P2Affine
)

var (
	// ErrNoSecretKey is returned by SecretKeyFromBytes on malformed input.
	ErrNoSecretKey = errors.New("bls: couldn't parse secret key")
	// ErrNoPublicKey is returned by PublicKeyFromBytes on malformed input.
	ErrNoPublicKey = errors.New("bls: couldn't parse public key")
	// ErrNoSignature is returned by SignatureFromBytes on malformed input.
	ErrNoSignature = errors.New("bls: couldn't parse signature")
	// ErrEmptyAggregation is returned by AggregateSignatures with no inputs.
	ErrEmptyAggregation = errors.New("bls: cannot aggregate zero signatures")
)

// SecretKey is a BLS private key.
type SecretKey struct{ sk blstSecretKey }

// PublicKey is a BLS public key.
type PublicKey struct{ pk blstPublicKey }

// Signature is a BLS signature.
type Signature struct{ sig blstSignature }

// NewSecretKey derives a deterministic secret key from 32 bytes of entropy,
// keying material off of an externally-supplied seed rather than reading
// system randomness directly.
func NewSecretKey(seed []byte) (*SecretKey, error) {
	sk := new(blstSecretKey).KeyGen(seed, nil)
	if sk == nil {
		return nil, ErrNoSecretKey
	}
	return &SecretKey{sk: *sk}, nil
}

// PublicKey returns the public half of sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	pk := new(blstPublicKey).From(&sk.sk)
	return &PublicKey{pk: *pk}
}

// Bytes serializes the secret key. This must never cross the wire — it is
// for local keystore persistence only.
func (sk *SecretKey) Bytes() []byte {
	return sk.sk.Serialize()
}

// SecretKeyFromBytes parses a serialized secret key.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	sk := new(blstSecretKey)
	if sk.Deserialize(b) == nil {
		return nil, ErrNoSecretKey
	}
	return &SecretKey{sk: *sk}, nil
}

// Sign signs msg, returning a compressed signature. This is the black-boxed
// sign(sk, bytes) -> sig primitive.
func Sign(sk *SecretKey, msg []byte) *Signature {
	sig := new(blstSignature).Sign(&sk.sk, msg, dst)
	return &Signature{sig: *sig}
}

// Bytes serializes the public key.
func (pk *PublicKey) Bytes() []byte {
	return pk.pk.Compress()
}

// PublicKeyFromBytes parses a compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	pk := new(blstPublicKey).Uncompress(b)
	if pk == nil || !pk.KeyValidate() {
		return nil, ErrNoPublicKey
	}
	return &PublicKey{pk: *pk}, nil
}

// Bytes serializes the signature.
func (s *Signature) Bytes() []byte {
	return s.sig.Compress()
}

// SignatureFromBytes parses a compressed signature.
func SignatureFromBytes(b []byte) (*Signature, error) {
	sig := new(blstSignature).Uncompress(b)
	if sig == nil {
		return nil, ErrNoSignature
	}
	return &Signature{sig: *sig}, nil
}

// Verify reports whether sig is pk's signature over msg. This is the
// black-boxed verify(pk, bytes, sig) -> bool primitive.
func Verify(pk *PublicKey, msg []byte, sig *Signature) bool {
	return sig.sig.Verify(true, &pk.pk, true, msg, dst)
}

// AggregateSignatures combines multiple signatures into one. The result
// verifies against any permutation of the same input set — BLS aggregation
// is order-independent, so callers may co-sign and aggregate in any order.
func AggregateSignatures(sigs []*Signature) (*Signature, error) {
	if len(sigs) == 0 {
		return nil, ErrEmptyAggregation
	}
	raw := make([]*blstSignature, len(sigs))
	for i, s := range sigs {
		raw[i] = &s.sig
	}
	agg := new(blst.P2Aggregate)
	if !agg.Aggregate(raw, true) {
		return nil, ErrNoSignature
	}
	out := agg.ToAffine()
	return &Signature{sig: *out}, nil
}

// VerifyAggregate verifies an aggregated signature against the set of
// public keys that contributed to it, all signing the same message (the
// restricted transaction projection, in dagchain's case).
func VerifyAggregate(pks []*PublicKey, msg []byte, agg *Signature) bool {
	if len(pks) == 0 {
		return false
	}
	raw := make([]*blstPublicKey, len(pks))
	for i, pk := range pks {
		raw[i] = &pk.pk
	}
	return agg.sig.FastAggregateVerify(true, raw, dst, msg)
}
