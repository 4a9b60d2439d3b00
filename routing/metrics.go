// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package routing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metrics = struct {
	version prometheus.Gauge
	entries prometheus.Gauge
}{
	version: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dagchain",
		Subsystem: "routing",
		Name:      "table_version",
		Help:      "Current version counter of the local routing table.",
	}),
	entries: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dagchain",
		Subsystem: "routing",
		Name:      "table_entries",
		Help:      "Current number of destinations known to the local routing table.",
	}),
}

// reportLocked publishes t's version and entry count. Callers must hold
// t.mu (for either read or write) when calling this.
func (t *Table) reportLocked() {
	metrics.version.Set(float64(t.version))
	metrics.entries.Set(float64(len(t.entries)))
}
