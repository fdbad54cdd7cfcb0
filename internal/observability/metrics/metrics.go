// Package metrics exposes Prometheus instruments for the ledger
// primitives, grounded on the internal/observability/metrics.Metrics
// shape seen as ledger/service's optional ObsMetrics dependency
// (RecordLedgerEntry(ctx, sourceType)), repurposed from an OTLP exporter
// to github.com/prometheus/client_golang so counts are scraped the same
// way gorm's own pool/query metrics already are (pkg/db's
// gormprometheus plugin).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes counters/histograms for the ledger's balance-changing
// primitives.
type Metrics struct {
	ledgerOps     *prometheus.CounterVec
	ledgerLatency *prometheus.HistogramVec
}

// New registers the ledger instruments against the default registerer.
func New() *Metrics {
	return &Metrics{
		ledgerOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "railzway_billing_ledger_ops_total",
			Help: "Count of GRANT/CONSUME/REVOKE/EXCHANGE calls by outcome.",
		}, []string{"operation", "outcome"}),
		ledgerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "railzway_billing_ledger_op_duration_seconds",
			Help:    "Latency of GRANT/CONSUME/REVOKE/EXCHANGE calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordLedgerOp records one call's outcome and latency. Safe to call on
// a nil *Metrics (the optional fx dependency is unset in tests).
func (m *Metrics) RecordLedgerOp(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, outcome).Inc()
	m.ledgerLatency.WithLabelValues(operation).Observe(duration.Seconds())
}
