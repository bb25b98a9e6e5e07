package fame

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricFameRecomputeTotal         = "fame_recompute_total"
	MetricFameRecomputeErrors        = "fame_recompute_errors_total"
	MetricFameRecomputeDuration      = "fame_recompute_duration_seconds"
	MetricFameLastRecomputeTimestamp = "fame_last_recompute_timestamp"
	MetricFameLastRecomputeUserCount = "fame_last_recompute_user_count"
)

// Metrics contains Prometheus metrics for fame rating recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal         prometheus.Counter
	recomputeErrors        prometheus.Counter
	recomputeDuration      prometheus.Histogram
	lastRecomputeTimestamp prometheus.Gauge
	lastRecomputeUserCount prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFameRecomputeTotal,
			Help: "Total number of fame rating recompute passes",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFameRecomputeErrors,
			Help: "Total number of per-user fame recompute errors",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFameRecomputeDuration,
			Help:    "Histogram of fame recompute pass duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricFameLastRecomputeTimestamp,
			Help: "Unix timestamp of the last fame recompute pass",
		}),
		lastRecomputeUserCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricFameLastRecomputeUserCount,
			Help: "Number of users processed in the last fame recompute pass",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.lastRecomputeUserCount,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecomputeTotal increments the recompute pass counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the per-user error counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// ObserveRecomputeDuration records a recompute pass duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetLastRecomputeTimestamp sets the last-recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(ts float64) {
	m.lastRecomputeTimestamp.Set(ts)
}

// SetLastRecomputeUserCount sets the last-recompute user count gauge.
func (m *Metrics) SetLastRecomputeUserCount(count float64) {
	m.lastRecomputeUserCount.Set(count)
}
