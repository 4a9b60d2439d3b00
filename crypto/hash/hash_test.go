// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum256IsDeterministic(t *testing.T) {
	require := require.New(t)

	a := Sum256([]byte("dagchain"))
	b := Sum256([]byte("dagchain"))
	require.Equal(a, b)
}

func TestSum256DistinguishesInputs(t *testing.T) {
	require := require.New(t)

	a := Sum256([]byte("alpha"))
	b := Sum256([]byte("beta"))
	require.NotEqual(a, b)
}

func TestWriterMatchesSum256OfConcatenation(t *testing.T) {
	require := require.New(t)

	w := NewWriter()
	w.Write([]byte("foo"))
	w.Write([]byte("bar"))

	require.Equal(Sum256([]byte("foobar")), w.Sum())
}

func TestWriterEmptyMatchesSum256OfNil(t *testing.T) {
	require := require.New(t)

	w := NewWriter()
	require.Equal(Sum256(nil), w.Sum())
}
