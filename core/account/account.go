// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package account defines the ledger account model: identity, balance and
// the HVC that orders an account's own history. Go has no native 128-bit
// integer, so balances are carried as *big.Int, the same way utils/json's
// BigInt wraps arbitrary-precision amounts for wire/JSON use.
package account

import (
	"errors"
	"math/big"
	"time"

	"github.com/kobby-pentangeli/dagchain/core/hvc"
	"github.com/kobby-pentangeli/dagchain/ids"
)

// ErrInsufficientBalance is returned when a decrement would take a balance
// negative. Callers MUST check availability before calling Decrease, the
// same way CheckTransferAvailability gates Apply.
var ErrInsufficientBalance = errors.New("account: insufficient balance")

// Account is a ledger participant's state.
type Account struct {
	ID        ids.Hash
	Balance   *big.Int
	HVC       *hvc.HVC
	LastTx    ids.Hash
	CreatedAt time.Duration
}

// New creates an account with zero balance, the effect of applying a
// CreateAccount transaction.
func New(id ids.Hash, createdAt time.Duration) *Account {
	return &Account{
		ID:        id,
		Balance:   new(big.Int),
		HVC:       hvc.New(),
		LastTx:    ids.Empty,
		CreatedAt: createdAt,
	}
}

// CanAfford reports whether the account can cover amount. This is the
// precondition that MUST be evaluated before any Decrease.
func (a *Account) CanAfford(amount *big.Int) bool {
	return a.Balance.Cmp(amount) >= 0
}

// Decrease subtracts amount from the balance. Callers MUST have already
// verified CanAfford; Decrease itself still refuses to go negative so a
// caller bug never corrupts the ledger.
func (a *Account) Decrease(amount *big.Int) error {
	if !a.CanAfford(amount) {
		return ErrInsufficientBalance
	}
	a.Balance.Sub(a.Balance, amount)
	return nil
}

// Increase adds amount to the balance. A u128 balance would saturate at its
// max; *big.Int has no fixed width, so Increase never needs to saturate in
// practice.
func (a *Account) Increase(amount *big.Int) {
	a.Balance.Add(a.Balance, amount)
}

// Touch records that txID was the most recent transaction to mutate this
// account and advances the account's local logical clock, the bookkeeping
// Apply performs on both sides of a transfer.
func (a *Account) Touch(txID ids.Hash) {
	a.LastTx = txID
	a.HVC.Order().Increment()
}
