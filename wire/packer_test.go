// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackerRoundTrip(t *testing.T) {
	require := require.New(t)

	p := &Packer{}
	p.PackByte(7)
	p.PackBool(true)
	p.PackShort(1234)
	p.PackInt(987654)
	p.PackLong(1 << 40)
	p.PackFixedBytes([]byte{1, 2, 3, 4})
	p.PackBytes([]byte("hello"))
	p.PackString("world")
	require.NoError(p.Err)

	u := NewUnpacker(p.Bytes)
	require.Equal(byte(7), u.UnpackByte())
	require.True(u.UnpackBool())
	require.Equal(uint16(1234), u.UnpackShort())
	require.Equal(uint32(987654), u.UnpackInt())
	require.Equal(uint64(1<<40), u.UnpackLong())
	require.Equal([]byte{1, 2, 3, 4}, u.UnpackFixedBytes(4))
	require.Equal([]byte("hello"), u.UnpackBytes())
	require.Equal("world", u.UnpackString())
	require.NoError(u.Err)
}

func TestUnpackerFailsClosedPastEnd(t *testing.T) {
	require := require.New(t)

	u := NewUnpacker([]byte{1, 2})
	require.Equal(uint32(0), u.UnpackInt())
	require.ErrorIs(u.Err, ErrInsufficientLength)

	// Further reads stay zero and don't panic once Err is set.
	require.Equal(byte(0), u.UnpackByte())
	require.Nil(u.UnpackBytes())
}
