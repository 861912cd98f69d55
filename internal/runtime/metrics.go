package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	transactionsTotal   *prometheus.CounterVec
	transactionDuration prometheus.Histogram
	instructionsTotal   *prometheus.CounterVec
	lockWait            prometheus.Histogram
	airdropLamports     prometheus.Counter
	slot                prometheus.Gauge
}

// init registers collectors with promRegistry. A nil registry keeps the
// collectors unregistered, which tests rely on.
func (m *metrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.transactionsTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "editionmint_runtime_transactions_total",
		Help: "transactions executed, by final status",
	}, []string{"status"})
	m.transactionDuration = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "editionmint_runtime_transaction_duration_seconds",
		Help:    "time from lock acquisition to commit or rollback",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	m.instructionsTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "editionmint_runtime_instructions_total",
		Help: "instructions executed, by program and outcome",
	}, []string{"program", "outcome"})
	m.lockWait = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "editionmint_runtime_lock_wait_seconds",
		Help:    "time spent waiting for writable account locks",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
	m.airdropLamports = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "editionmint_runtime_airdrop_lamports_total",
		Help: "lamports handed out by the faucet",
	})
	m.slot = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "editionmint_runtime_slot",
		Help: "current slot, advanced by every committed transaction",
	})
}
