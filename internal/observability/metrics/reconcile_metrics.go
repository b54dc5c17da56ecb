package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/oilfield/internal/config"
)

const (
	OutcomeDirect         = "direct"
	OutcomeSpread         = "spread"
	OutcomeNoPrior        = "no_prior"
	OutcomeNoGauge        = "no_gauge"
	OutcomeNotGaugedDaily = "not_gauged_daily"
)

// ReconcileMetrics captures reconciliation throughput and contention.
type ReconcileMetrics struct {
	runs        *prometheus.CounterVec
	backfilled  prometheus.Counter
	propagation prometheus.Histogram
	lockWait    prometheus.Histogram
}

// Provide registers reconcile metrics on the default prometheus registry.
func Provide(cfg config.Config) *ReconcileMetrics {
	return NewReconcileMetrics(prometheus.DefaultRegisterer, cfg.AppName, cfg.Environment)
}

func NewReconcileMetrics(registerer prometheus.Registerer, serviceName, environment string) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": fallback(serviceName, "oilfield"),
		"env":     fallback(environment, "unknown"),
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "oilfield_reconcile_runs_total",
		Help:        "Gauge reconciliation runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	backfilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "oilfield_reconcile_backfilled_readings_total",
		Help:        "Daily readings whose production was written by gap distribution.",
		ConstLabels: constLabels,
	})
	propagation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "oilfield_reconcile_propagation_hops",
		Help:        "Forward reconciliation steps taken after a save or delete.",
		Buckets:     []float64{0, 1, 2, 4, 8, 16, 32, 64},
		ConstLabels: constLabels,
	})
	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "oilfield_tank_lock_wait_seconds",
		Help:        "Time spent waiting for the per-tank reconciliation lock.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(runs, backfilled, propagation, lockWait)

	return &ReconcileMetrics{
		runs:        runs,
		backfilled:  backfilled,
		propagation: propagation,
		lockWait:    lockWait,
	}
}

func (m *ReconcileMetrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *ReconcileMetrics) RecordBackfill(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.backfilled.Add(float64(n))
}

func (m *ReconcileMetrics) ObservePropagation(hops int) {
	if m == nil {
		return
	}
	m.propagation.Observe(float64(hops))
}

func (m *ReconcileMetrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
