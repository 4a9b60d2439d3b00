// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the canonical binary encoding used for every
// persisted and on-the-wire structure in dagchain: transactions, HVCs,
// routing tables and the tagged-union messages. It follows the
// wrappers.Packer idiom (seen packing a vertex in
// snow/engine/avalanche/vertex/vertex.go: PackShort/PackFixedBytes/PackLong/
// PackInt/PackBytes, with errors accumulated on the Packer rather than
// returned per-call) so that encoding is deterministic and independent of
// platform endianness and serialization framework choices.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrInsufficientLength is set on an Unpacker when an Unpack call runs past the
// end of the buffer.
var ErrInsufficientLength = errors.New("wire: insufficient length")

const (
	// ByteLen, ShortLen, IntLen, LongLen are the encoded widths of the fixed
	// integer types, named the way the wrappers package names them.
	ByteLen  = 1
	ShortLen = 2
	IntLen   = 4
	LongLen  = 8
)

// Packer accumulates a canonical big-endian byte encoding. Every Pack method
// is a no-op once Err is set, so call sites can pack a whole struct and check
// Err exactly once at the end.
type Packer struct {
	Bytes []byte
	Err   error
}

func (p *Packer) PackByte(b byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b)
}

func (p *Packer) PackBool(b bool) {
	if b {
		p.PackByte(1)
	} else {
		p.PackByte(0)
	}
}

func (p *Packer) PackShort(v uint16) {
	if p.Err != nil {
		return
	}
	var buf [ShortLen]byte
	binary.BigEndian.PutUint16(buf[:], v)
	p.Bytes = append(p.Bytes, buf[:]...)
}

func (p *Packer) PackInt(v uint32) {
	if p.Err != nil {
		return
	}
	var buf [IntLen]byte
	binary.BigEndian.PutUint32(buf[:], v)
	p.Bytes = append(p.Bytes, buf[:]...)
}

func (p *Packer) PackLong(v uint64) {
	if p.Err != nil {
		return
	}
	var buf [LongLen]byte
	binary.BigEndian.PutUint64(buf[:], v)
	p.Bytes = append(p.Bytes, buf[:]...)
}

// PackFixedBytes packs b without a length prefix — used for fields whose
// length is implied by the schema (hashes, public keys).
func (p *Packer) PackFixedBytes(b []byte) {
	if p.Err != nil {
		return
	}
	p.Bytes = append(p.Bytes, b...)
}

// PackBytes packs a length-prefixed byte slice.
func (p *Packer) PackBytes(b []byte) {
	p.PackInt(uint32(len(b)))
	p.PackFixedBytes(b)
}

// PackString packs a length-prefixed UTF-8 string.
func (p *Packer) PackString(s string) {
	p.PackBytes([]byte(s))
}

// Unpacker reads back what Packer wrote, failing closed: any read past the
// end sets Err and all further reads return zero values.
type Unpacker struct {
	Bytes  []byte
	Offset int
	Err    error
}

func NewUnpacker(b []byte) *Unpacker { return &Unpacker{Bytes: b} }

func (u *Unpacker) has(n int) bool {
	if u.Err != nil {
		return false
	}
	if u.Offset+n > len(u.Bytes) {
		u.Err = ErrInsufficientLength
		return false
	}
	return true
}

func (u *Unpacker) UnpackByte() byte {
	if !u.has(ByteLen) {
		return 0
	}
	b := u.Bytes[u.Offset]
	u.Offset += ByteLen
	return b
}

func (u *Unpacker) UnpackBool() bool { return u.UnpackByte() != 0 }

func (u *Unpacker) UnpackShort() uint16 {
	if !u.has(ShortLen) {
		return 0
	}
	v := binary.BigEndian.Uint16(u.Bytes[u.Offset:])
	u.Offset += ShortLen
	return v
}

func (u *Unpacker) UnpackInt() uint32 {
	if !u.has(IntLen) {
		return 0
	}
	v := binary.BigEndian.Uint32(u.Bytes[u.Offset:])
	u.Offset += IntLen
	return v
}

func (u *Unpacker) UnpackLong() uint64 {
	if !u.has(LongLen) {
		return 0
	}
	v := binary.BigEndian.Uint64(u.Bytes[u.Offset:])
	u.Offset += LongLen
	return v
}

func (u *Unpacker) UnpackFixedBytes(n int) []byte {
	if !u.has(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, u.Bytes[u.Offset:u.Offset+n])
	u.Offset += n
	return out
}

func (u *Unpacker) UnpackBytes() []byte {
	n := int(u.UnpackInt())
	if n == 0 {
		return nil
	}
	return u.UnpackFixedBytes(n)
}

func (u *Unpacker) UnpackString() string {
	return string(u.UnpackBytes())
}
