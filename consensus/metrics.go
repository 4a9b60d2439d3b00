// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the counters both engine variants bump on every FireConsensus
// outcome, registered once at package init the way chain_router.go's
// routerMetrics registers its own counters.
var metrics = struct {
	accepts    prometheus.Counter
	rejects    prometheus.Counter
	inProgress prometheus.Counter
}{
	accepts: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dagchain",
		Subsystem: "consensus",
		Name:      "accepts_total",
		Help:      "Number of FireConsensus calls that resulted in Accept.",
	}),
	rejects: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dagchain",
		Subsystem: "consensus",
		Name:      "rejects_total",
		Help:      "Number of FireConsensus calls that resulted in Reject.",
	}),
	inProgress: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dagchain",
		Subsystem: "consensus",
		Name:      "in_progress_total",
		Help:      "Number of FireConsensus calls that resulted in InProgress.",
	}),
}

// recordOutcome bumps the counter matching o.Kind and returns o unchanged,
// so call sites can wrap a return value in place.
func recordOutcome(o Outcome) Outcome {
	switch o.Kind {
	case KindAccept:
		metrics.accepts.Inc()
	case KindReject:
		metrics.rejects.Inc()
	default:
		metrics.inProgress.Inc()
	}
	return o
}
