// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peer implements the length-prefixed TCP framing dagchain's
// messaging layer runs its AgentMessage envelopes over, standing in for the
// abstracted "send(peer, bytes)" transport messaging.Transport describes.
package peer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/kobby-pentangeli/dagchain/ids"
	"github.com/kobby-pentangeli/dagchain/log"
)

// MaxMessageLen bounds a single framed payload, guarding against a
// malformed length prefix driving an unbounded allocation.
const MaxMessageLen = 16 << 20

var (
	errMessageTooBig = errors.New("peer: framed message exceeds MaxMessageLen")
)

// Handler receives a fully-framed payload read from a peer connection.
type Handler interface {
	HandleMessage(from ids.NodeID, payload []byte)
}

// Peer owns one TCP connection to a remote node and the per-connection
// write lock; reading happens on its own goroutine, started by Dial/Accept.
type Peer struct {
	id   ids.NodeID
	conn net.Conn

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool

	log log.Logger
}

func newPeer(id ids.NodeID, conn net.Conn) *Peer {
	return &Peer{id: id, conn: conn, log: log.Named("peer")}
}

// Dial opens a TCP connection to addr, exchanges identities with self, and
// starts a read loop delivering framed payloads to handler.
func Dial(addr string, self ids.NodeID, handler Handler) (*Peer, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return handshake(conn, self, handler)
}

// Accept completes the same handshake as Dial on an already-accepted
// connection, typically from a net.Listener's Accept loop.
func Accept(conn net.Conn, self ids.NodeID, handler Handler) (*Peer, error) {
	return handshake(conn, self, handler)
}

// handshake exchanges a fixed 32-byte node identity on connect, then starts
// the peer's own read loop. There is no certificate or version negotiation;
// dagchain trusts whatever identity a peer asserts on connect, leaving
// authentication to a layer above transport.
func handshake(conn net.Conn, self ids.NodeID, handler Handler) (*Peer, error) {
	if _, err := conn.Write(self[:]); err != nil {
		conn.Close()
		return nil, err
	}
	var remote ids.NodeID
	if _, err := io.ReadFull(conn, remote[:]); err != nil {
		conn.Close()
		return nil, err
	}

	p := newPeer(remote, conn)
	go p.readLoop(handler)
	return p, nil
}

// ID returns the remote node's identity.
func (p *Peer) ID() ids.NodeID { return p.id }

// Send writes one length-prefixed frame. Safe for concurrent use.
func (p *Peer) Send(payload []byte) error {
	if len(payload) > MaxMessageLen {
		return errMessageTooBig
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := p.conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := p.conn.Write(payload)
	return err
}

// Close shuts down the underlying connection, idempotently.
func (p *Peer) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}

// readLoop blocks reading length-prefixed frames off the connection and
// forwards each to handler until the connection errors or closes.
func (p *Peer) readLoop(handler Handler) {
	r := bufio.NewReader(p.conn)
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			break
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if n > MaxMessageLen {
			p.log.Warn("peer sent oversized frame, dropping connection", log.Hash("peer", p.id))
			break
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			break
		}
		handler.HandleMessage(p.id, payload)
	}
	_ = p.Close()
}
