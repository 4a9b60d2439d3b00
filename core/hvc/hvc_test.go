// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hvc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/wire"
)

func mustHash(b byte) ids.Hash {
	var h ids.Hash
	h[0] = b
	return h
}

func TestHappenedBeforeMonotonicity(t *testing.T) {
	require := require.New(t)

	n1, n2 := mustHash(1), mustHash(2)

	a := New()
	a.Increment(n1)
	a.Increment(n2)

	b := a.Clone()
	b.Increment(n1)

	require.True(a.HappenedBefore(b))
	require.False(b.HappenedBefore(a))
	require.False(a.Concurrent(b))
}

func TestHappenedBeforeFalseOnEquality(t *testing.T) {
	require := require.New(t)

	n1 := mustHash(1)
	a := New()
	a.Increment(n1)
	b := a.Clone()

	require.False(a.HappenedBefore(b))
	require.False(b.HappenedBefore(a))
	// Concurrency is defined purely in terms of HappenedBefore, and neither
	// of two equal clocks happened-before the other, so equal clocks count
	// as concurrent.
	require.True(a.Concurrent(b))
}

// TestConcurrentDivergentHistories checks a classic diverging-history case:
// A:{n1:2, n2:1}, B:{n1:1, n2:2} — neither happened-before the other.
func TestConcurrentDivergentHistories(t *testing.T) {
	require := require.New(t)

	n1, n2 := mustHash(1), mustHash(2)

	a := New()
	a.Increment(n1)
	a.Increment(n1)
	a.Increment(n2)

	b := New()
	b.Increment(n1)
	b.Increment(n2)
	b.Increment(n2)

	require.False(a.HappenedBefore(b))
	require.False(b.HappenedBefore(a))
	require.True(a.Concurrent(b))
}

func TestMergeTakesComponentwiseMax(t *testing.T) {
	require := require.New(t)

	n1, n2 := mustHash(1), mustHash(2)

	a := New()
	a.Increment(n1)
	a.Increment(n1)
	a.Increment(n2)

	b := New()
	b.Increment(n1)
	b.Increment(n2)
	b.Increment(n2)

	merged := a.Merge(b)
	require.Equal(uint64(2), merged.Get(n1))
	require.Equal(uint64(2), merged.Get(n2))

	// A naive sum-based merge would have produced 3 and 3.
	require.NotEqual(uint64(3), merged.Get(n1))
}

func TestOrderIncrementsIndependentlyOfVector(t *testing.T) {
	require := require.New(t)

	h := New()
	require.Equal(uint64(0), h.Order().Get())
	require.Equal(uint64(1), h.Order().Increment())
	require.Equal(uint64(2), h.Order().Increment())
	require.Equal(uint64(2), h.Order().Get())
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	require := require.New(t)

	n1, n2 := mustHash(1), mustHash(2)
	h := New()
	h.Increment(n1)
	h.Increment(n2)
	h.Increment(n2)
	h.Order().Increment()

	p := &wire.Packer{}
	h.Marshal(p)
	require.NoError(p.Err)

	u := wire.NewUnpacker(p.Bytes)
	decoded := Unmarshal(u)
	require.NoError(u.Err)
	require.Equal(h.Get(n1), decoded.Get(n1))
	require.Equal(h.Get(n2), decoded.Get(n2))
	require.Equal(h.hierarchicalOrder, decoded.hierarchicalOrder)
}
