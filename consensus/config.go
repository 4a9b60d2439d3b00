// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the per-account conflict sets, confidence
// tree walk and the two acceptance rules of the DAG-based metastable
// consensus engine, in both the single-shot tree-based "DAG" variant and the
// iterative majority-count "Quantum" variant.
package consensus

import "time"

// Config holds the tunables that parameterize both consensus variants, the
// way snow/consensus/avalanche.Parameters carries alpha/beta/k for its own
// topological walk.
type Config struct {
	// Alpha is the acceptance fraction in (0, 1].
	Alpha float64
	// Beta is the early-confidence threshold.
	Beta uint64
	// Beta2 is the consecutive-round commitment threshold, tracked
	// independently from Beta: one counts peak confidence, the other counts
	// consecutive rounds with the same preferred choice.
	Beta2 uint64
	// K is the per-round sample size.
	K uint64
	// Quantum selects the iterative majority-count variant over the
	// single-shot tree-based one.
	Quantum bool
	// MaxBatchSize caps how many (state, tx) pairs a BatchedConsensusRequest
	// coalesces before being flushed.
	MaxBatchSize int
	// MaxBatchInterval caps how long a batch may accumulate before being
	// flushed even if MaxBatchSize hasn't been reached.
	MaxBatchInterval time.Duration
}

// DefaultConfig returns the engine's built-in defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:            0.66,
		Beta:             2,
		Beta2:            2,
		K:                10,
		MaxBatchSize:     40,
		MaxBatchInterval: 2 * time.Second,
	}
}

// Threshold reports whether p positive replies clear alpha*k, using strict
// greater-than: a count that lands exactly on floor(alpha*k) does not clear.
func (c Config) Threshold(p uint64) bool {
	return float64(p) > c.Alpha*float64(c.K)
}

// RoundCapMultiplier bounds the Quantum variant's iteration count at
// RoundCapMultiplier*K rounds, since nothing else guarantees the acceptance
// loop terminates.
const RoundCapMultiplier = 100
