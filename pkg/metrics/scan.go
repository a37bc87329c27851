package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScanPipelineMetrics records scan gate, resolver and checkout outcomes.
type ScanPipelineMetrics struct {
	scans            *prometheus.CounterVec
	resolverLookups  *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
}

// NewScanPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewScanPipelineMetrics(reg prometheus.Registerer) *ScanPipelineMetrics {
	if reg == nil {
		return &ScanPipelineMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_attempts_total",
		Help: "Scan attempts by outcome (found, created, not_found, suppressed, dropped, error).",
	}, []string{"outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_lookups_total",
		Help: "Resolver source lookups by source and result (hit, miss, error).",
	}, []string{"source", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by result (completed, failed, rejected).",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout execution in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(scans, lookups, checkouts, duration)
	return &ScanPipelineMetrics{
		scans:            scans,
		resolverLookups:  lookups,
		checkouts:        checkouts,
		checkoutDuration: duration,
	}
}

// ObserveScan counts one scan attempt with its outcome.
func (m *ScanPipelineMetrics) ObserveScan(outcome string) {
	if m == nil || m.scans == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// ObserveLookup counts one resolver source lookup.
func (m *ScanPipelineMetrics) ObserveLookup(source, result string) {
	if m == nil || m.resolverLookups == nil {
		return
	}
	m.resolverLookups.WithLabelValues(source, result).Inc()
}

// ObserveCheckout counts one checkout attempt and its duration.
func (m *ScanPipelineMetrics) ObserveCheckout(result string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
	if m.checkoutDuration != nil {
		m.checkoutDuration.Observe(duration.Seconds())
	}
}
