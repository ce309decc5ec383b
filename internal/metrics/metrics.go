// Package metrics exposes tracker counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "expression_tracker"

// Reasons a frame may be rejected before classification.
const (
	ReasonDecode      = "decode"
	ReasonUnsupported = "unsupported"
	ReasonClosed      = "closed"
)

// Metrics holds every collector the tracker reports. A nil *Metrics is valid and records nothing,
// so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal      prometheus.Counter
	FramesRejected   *prometheus.CounterVec
	ExpressionsTotal *prometheus.CounterVec
	EmissionsTotal   prometheus.Counter
	ClassifyDuration prometheus.Histogram
	ProducersActive  prometheus.Gauge
}

// New creates the collectors and registers them with a fresh registry. subscribers, when not
// nil, is sampled on every scrape to report the number of active observers.
func New(subscribers func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of face-tracking frames classified",
		}),
		FramesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Total number of frames dropped before classification",
		}, []string{"reason"}),
		ExpressionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expressions_total",
			Help:      "Total number of times each expression was detected",
		}, []string{"expression"}),
		EmissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emissions_total",
			Help:      "Total number of expression sets published to observers",
		}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time taken to classify one frame",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1us to ~260ms
		}),
		ProducersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "producers_active",
			Help:      "Number of connected frame producers",
		}),
	}

	m.registry.MustRegister(
		m.FramesTotal,
		m.FramesRejected,
		m.ExpressionsTotal,
		m.EmissionsTotal,
		m.ClassifyDuration,
		m.ProducersActive,
	)
	if subscribers != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Number of active expression observers",
		}, func() float64 { return float64(subscribers()) }))
	}
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          m.registry,
	})
}

// ObserveFrame records one classified frame and the expressions it produced.
func (m *Metrics) ObserveFrame(took time.Duration, expressions []string) {
	if m == nil {
		return
	}
	m.FramesTotal.Inc()
	m.ClassifyDuration.Observe(took.Seconds())
	for _, e := range expressions {
		m.ExpressionsTotal.WithLabelValues(e).Inc()
	}
}

// ObserveEmission records one published set.
func (m *Metrics) ObserveEmission() {
	if m == nil {
		return
	}
	m.EmissionsTotal.Inc()
}

// RejectFrame records a frame dropped for reason.
func (m *Metrics) RejectFrame(reason string) {
	if m == nil {
		return
	}
	m.FramesRejected.WithLabelValues(reason).Inc()
}

// ProducerConnected adjusts the connected-producer gauge by delta.
func (m *Metrics) ProducerConnected(delta int) {
	if m == nil {
		return
	}
	m.ProducersActive.Add(float64(delta))
}
