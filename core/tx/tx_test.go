// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/core/account"
	"github.com/kobby-pentangeli/dagchain/crypto/bls"
	"github.com/kobby-pentangeli/dagchain/ids"
)

func TestGenesisIDDeterministic(t *testing.T) {
	require := require.New(t)

	parent := ids.Hash{1}
	origin := ids.Hash{2}
	dest := ids.Hash{3}
	amount := big.NewInt(1000)

	a := Genesis(parent, origin, dest, amount, TypeCreateAccount, []byte("seed"))
	b := Genesis(parent, origin, dest, amount, TypeCreateAccount, []byte("seed"))

	require.Equal(a.CalculateID(), b.CalculateID())
}

func TestCalculateIDIgnoresMutableFields(t *testing.T) {
	require := require.New(t)

	txn := Genesis(ids.Hash{1}, ids.Hash{2}, ids.Hash{3}, big.NewInt(5), TypeTransfer, nil)
	id1 := txn.CalculateID()

	txn.Status = StatusAccepted
	txn.Children = append(txn.Children, ids.Hash{9})
	id2 := txn.CalculateID()

	require.Equal(id1, id2)
}

func TestSignSetSignatureAndVerify(t *testing.T) {
	require := require.New(t)

	sk, err := bls.NewSecretKey([]byte("01234567890123456789012345678901"))
	require.NoError(err)
	pk := sk.PublicKey()

	txn := Genesis(ids.Hash{1}, ids.Hash{2}, ids.Hash{3}, big.NewInt(10), TypeTransfer, nil)
	sig := txn.Sign(sk)
	txn.SetSignature(pk, sig)

	require.NoError(txn.Verify(pk))
}

func TestVerifyFailsWithoutSignature(t *testing.T) {
	require := require.New(t)

	sk, err := bls.NewSecretKey([]byte("01234567890123456789012345678901"))
	require.NoError(err)

	txn := Genesis(ids.Hash{1}, ids.Hash{2}, ids.Hash{3}, big.NewInt(10), TypeTransfer, nil)
	require.ErrorIs(txn.Verify(sk.PublicKey()), ErrNotSigned)
}

func TestAggregateSignaturesThenApply(t *testing.T) {
	require := require.New(t)

	sk1, err := bls.NewSecretKey([]byte("01234567890123456789012345678901"))
	require.NoError(err)
	sk2, err := bls.NewSecretKey([]byte("abcdefghijabcdefghijabcdefghijab"))
	require.NoError(err)

	origin := account.New(ids.Hash{1}, 0)
	origin.Increase(big.NewInt(100))
	dest := account.New(ids.Hash{2}, 0)

	txn := Genesis(ids.Hash{0}, origin.ID, dest.ID, big.NewInt(40), TypeTransfer, nil)
	require.True(txn.CheckTransferAvailability(origin))

	txn.SetSignature(sk1.PublicKey(), txn.Sign(sk1))
	txn.SetSignature(sk2.PublicKey(), txn.Sign(sk2))
	require.NoError(txn.AggregateSignatures())

	require.NoError(txn.Apply(origin, dest))
	require.Equal(big.NewInt(60), origin.Balance)
	require.Equal(big.NewInt(40), dest.Balance)
	require.NotNil(txn.ID)
	require.Equal(*txn.ID, origin.LastTx)
	require.Equal(*txn.ID, dest.LastTx)
}

func TestApplyRejectsWithoutAggregateSignature(t *testing.T) {
	require := require.New(t)

	origin := account.New(ids.Hash{1}, 0)
	origin.Increase(big.NewInt(100))
	dest := account.New(ids.Hash{2}, 0)

	txn := Genesis(ids.Hash{0}, origin.ID, dest.ID, big.NewInt(40), TypeTransfer, nil)
	require.ErrorIs(txn.Apply(origin, dest), ErrNotSigned)
	require.Equal(big.NewInt(100), origin.Balance)
}
