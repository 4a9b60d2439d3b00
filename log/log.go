// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log wraps zap the way network/peer and snow/engine/avalanche do:
// component loggers built once at startup, structured fields attached per
// call site (zap.Stringer, zap.Error), never fmt.Sprintf'd into the message
// string.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kobby-pentangeli/dagchain/ids"
)

// Logger is an alias of *zap.Logger, so tests can pass zaptest loggers
// directly.
type Logger = *zap.Logger

var base *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a broken sink/encoder
		// registration, which cannot happen with the defaults used here.
		panic(err)
	}
	base = l
}

// Named returns a component-scoped logger, e.g. log.Named("consensus").
func Named(component string) Logger {
	return base.Named(component)
}

// Hash renders a Hash as an abridged "AABBCC...XXYYZZ" field: peer and
// transaction identifiers are never logged in full.
func Hash(key string, h ids.Hash) zap.Field {
	return zap.String(key, h.Abridged())
}

// SetGlobal replaces the base logger, used by cmd/dagchain to honor
// --log-level.
func SetGlobal(l *zap.Logger) { base = l }
