// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tx defines the Transaction model the consensus engine operates on:
// identity derivation over a restricted projection, signing, aggregation and
// account application.
package tx

import (
	"errors"
	"math/big"
	"time"

	"github.com/kobby-pentangeli/dagchain/core/account"
	"github.com/kobby-pentangeli/dagchain/core/hvc"
	"github.com/kobby-pentangeli/dagchain/crypto/bls"
	"github.com/kobby-pentangeli/dagchain/crypto/hash"
	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/wire"
)

// Status is the transaction's consensus disposition.
type Status uint8

const (
	StatusNone Status = iota
	StatusPending
	StatusAccepted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return "None"
	}
}

// Type distinguishes the two transaction kinds the ledger supports.
type Type uint8

const (
	TypeCreateAccount Type = iota
	TypeTransfer
)

var (
	// ErrNotSigned is returned by Verify when no signature exists for the
	// public key in question, and by Apply when no aggregated signature is
	// present.
	ErrNotSigned = errors.New("tx: no signature for public key")
	// ErrInvalidSignature is returned by Verify when a present signature
	// fails to verify against the restricted projection.
	ErrInvalidSignature = errors.New("tx: signature does not verify")
)

// Transaction is a candidate state transition for one account.
//
// ID is nil until CalculateID has been called, rather than defaulting to
// ids.Empty, so a zero-value Transaction can never be mistaken for one that
// has already been identified.
type Transaction struct {
	ID          *ids.Hash
	Parent      ids.Hash
	Origin      ids.Hash
	Destination ids.Hash
	Amount      *big.Int
	Status      Status
	Type        Type
	Payload     []byte
	HVC         *hvc.HVC
	Timestamp   time.Duration

	// Signatures maps hash(pubkey bytes) -> signature.
	Signatures map[ids.Hash]*bls.Signature
	// AggSignature is nil until AggregateSignatures has run.
	AggSignature *bls.Signature
	Children     []ids.Hash
}

// New constructs a Pending transaction stamped with the current time.
func New(parent, origin, destination ids.Hash, amount *big.Int, typ Type, payload []byte) *Transaction {
	return newTx(parent, origin, destination, amount, typ, payload, time.Duration(timeNowUnixNano()))
}

// Genesis constructs a transaction stamped at timestamp zero so every node
// bootstrapping from the same genesis parameters independently derives the
// identical id.
func Genesis(parent, origin, destination ids.Hash, amount *big.Int, typ Type, payload []byte) *Transaction {
	return newTx(parent, origin, destination, amount, typ, payload, 0)
}

func newTx(parent, origin, destination ids.Hash, amount *big.Int, typ Type, payload []byte, ts time.Duration) *Transaction {
	return &Transaction{
		Parent:      parent,
		Origin:      origin,
		Destination: destination,
		Amount:      amount,
		Status:      StatusPending,
		Type:        typ,
		Payload:     payload,
		HVC:         hvc.New(),
		Timestamp:   ts,
		Signatures:  make(map[ids.Hash]*bls.Signature),
	}
}

// timeNowUnixNano is the one seam that calls wall-clock time; kept in a
// function so the determinism of Genesis is visibly unrelated to it.
var timeNowUnixNano = func() int64 { return time.Now().UnixNano() }

// restricted encodes the projection of tx that identity and signatures
// commit to: id, signatures, agg_signature and children are zeroed/omitted,
// so a signature commits to the content but not to who has signed yet,
// enabling co-signing and aggregation. Encoding uses the canonical
// wire.Packer codec so the result is deterministic across platforms and
// independent of map iteration order.
func (t *Transaction) restricted() []byte {
	p := &wire.Packer{}
	p.PackFixedBytes(t.Parent[:])
	p.PackFixedBytes(t.Origin[:])
	p.PackFixedBytes(t.Destination[:])
	p.PackBytes(t.Amount.Bytes())
	p.PackByte(byte(t.Type))
	p.PackBytes(t.Payload)
	t.HVC.Marshal(p)
	p.PackLong(uint64(t.Timestamp))
	return p.Bytes
}

// CalculateID derives and stores the transaction's id as the hash of its
// restricted projection.
func (t *Transaction) CalculateID() ids.Hash {
	id := hash.Sum256(t.restricted())
	t.ID = &id
	return id
}

// Sign signs the restricted projection with sk. It does not store the
// result; callers combine Sign with SetSignature.
func (t *Transaction) Sign(sk *bls.SecretKey) *bls.Signature {
	return bls.Sign(sk, t.restricted())
}

// SetSignature records sig as pk's contribution, keyed by hash(pk.Bytes()).
func (t *Transaction) SetSignature(pk *bls.PublicKey, sig *bls.Signature) {
	t.Signatures[hash.Sum256(pk.Bytes())] = sig
}

// AggregateSignatures combines every recorded signature into AggSignature.
// BLS aggregation is order-independent, so the map iteration order used to
// build the input slice does not affect the result.
func (t *Transaction) AggregateSignatures() error {
	sigs := make([]*bls.Signature, 0, len(t.Signatures))
	for _, sig := range t.Signatures {
		sigs = append(sigs, sig)
	}
	agg, err := bls.AggregateSignatures(sigs)
	if err != nil {
		return err
	}
	t.AggSignature = agg
	return nil
}

// Accept marks the transaction Accepted, signs it with the origin's key,
// records that signature and aggregates. A transaction may only be locally
// accepted after the consensus engine has already fired Accept for it — this
// method performs the bookkeeping side-effect, not the consensus decision
// itself.
func (t *Transaction) Accept(sk *bls.SecretKey) error {
	t.Status = StatusAccepted
	sig := t.Sign(sk)
	t.SetSignature(sk.PublicKey(), sig)
	return t.AggregateSignatures()
}

// Reject marks the transaction Rejected, e.g. on conflict loss.
func (t *Transaction) Reject() { t.Status = StatusRejected }

// Verify reports whether pk has a recorded signature and it verifies against
// the restricted projection.
func (t *Transaction) Verify(pk *bls.PublicKey) error {
	sig, ok := t.Signatures[hash.Sum256(pk.Bytes())]
	if !ok {
		return ErrNotSigned
	}
	if !bls.Verify(pk, t.restricted(), sig) {
		return ErrInvalidSignature
	}
	return nil
}

// CheckTransferAvailability reports whether source can cover t.Amount, the
// precondition Apply requires before mutating balances.
func (t *Transaction) CheckTransferAvailability(source *account.Account) bool {
	return source.CanAfford(t.Amount)
}

// Apply moves t.Amount from origin to destination. The precondition
// origin.Balance >= Amount MUST already hold (checked via
// CheckTransferAvailability by the caller); Apply itself refuses via
// account.Decrease's own guard as a second line of defense. Apply also
// requires an aggregated signature to already be present before it will
// mutate any balance.
func (t *Transaction) Apply(origin, destination *account.Account) error {
	if t.AggSignature == nil {
		return ErrNotSigned
	}
	if t.ID == nil {
		t.CalculateID()
	}
	if err := origin.Decrease(t.Amount); err != nil {
		return err
	}
	destination.Increase(t.Amount)
	origin.Touch(*t.ID)
	destination.Touch(*t.ID)
	return nil
}
