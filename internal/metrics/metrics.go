package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemoteCallMetrics records attempts against the background-removal service.
type RemoteCallMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  prometheus.Counter
}

// NewRemoteCallMetrics registers the remote call metrics on reg. A nil
// registerer yields a no-op recorder.
func NewRemoteCallMetrics(reg prometheus.Registerer) *RemoteCallMetrics {
	if reg == nil {
		return &RemoteCallMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "photoroom_attempts_total",
		Help: "Background-removal attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photoroom_attempt_duration_seconds",
		Help:    "Duration of background-removal attempts in seconds.",
		Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
	}, []string{"outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "photoroom_retries_total",
		Help: "Background-removal attempts that were retried after a failure.",
	})
	reg.MustRegister(attempts, duration, retries)
	return &RemoteCallMetrics{attempts: attempts, duration: duration, retries: retries}
}

// ObserveAttempt records one attempt with its outcome label.
func (m *RemoteCallMetrics) ObserveAttempt(outcome string, d time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *RemoteCallMetrics) IncRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}

// BatchMetrics records scheduler activity.
type BatchMetrics struct {
	items    *prometheus.CounterVec
	duration prometheus.Histogram
	inflight prometheus.Gauge
}

func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	if reg == nil {
		return &BatchMetrics{}
	}
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_items_total",
		Help: "Batch items by terminal status.",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_duration_seconds",
		Help:    "Duration of batch orchestration calls in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batch_inflight_requests",
		Help: "Images currently being processed against the remote service.",
	})
	reg.MustRegister(items, duration, inflight)
	return &BatchMetrics{items: items, duration: duration, inflight: inflight}
}

func (m *BatchMetrics) IncItem(status string) {
	if m == nil || m.items == nil {
		return
	}
	m.items.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *BatchMetrics) ObserveBatch(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func (m *BatchMetrics) SetInflight(n int64) {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
