// Package metrics exposes engine activity as Prometheus metrics. A Metrics
// value owns its own registry so tests and multiple surfaces never collide
// on the global one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "extswitch"

// Metrics implements refresh.Observer and profile.Observer.
type Metrics struct {
	registry *prometheus.Registry

	passes         prometheus.Counter
	passDuration   prometheus.Histogram
	coalesced      prometheus.Counter
	suppressed     *prometheus.CounterVec
	toggles        *prometheus.CounterVec
	profileApplies prometheus.Counter
	profileItems   *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "refresh_passes_total",
			Help: "Compose-and-render passes completed.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "refresh_pass_duration_seconds",
			Help:    "Duration of compose-and-render passes.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "refresh_requests_coalesced_total",
			Help: "Refresh requests absorbed by a pending timer or pass.",
		}),
		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_suppressed_total",
			Help: "Change notifications dropped as echoes of local writes.",
		}, []string{"source"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "toggles_total",
			Help: "Enable/disable requests by outcome.",
		}, []string{"result"}),
		profileApplies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "profile_applies_total",
			Help: "Profile applications.",
		}),
		profileItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "profile_items_total",
			Help: "Per-item outcomes of profile applications.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.passes, m.passDuration, m.coalesced, m.suppressed,
		m.toggles, m.profileApplies, m.profileItems,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PassCompleted(d time.Duration) {
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())
}

func (m *Metrics) RequestCoalesced() { m.coalesced.Inc() }

// Suppressed counts a dropped echo; source is "store" or "management".
func (m *Metrics) Suppressed(source string) { m.suppressed.WithLabelValues(source).Inc() }

// Toggled counts an enable/disable request.
func (m *Metrics) Toggled(ok bool) {
	if ok {
		m.toggles.WithLabelValues("ok").Inc()
		return
	}
	m.toggles.WithLabelValues("failed").Inc()
}

func (m *Metrics) ProfileApplied(_ string, applied, unchanged, failed int) {
	m.profileApplies.Inc()
	m.profileItems.WithLabelValues("applied").Add(float64(applied))
	m.profileItems.WithLabelValues("unchanged").Add(float64(unchanged))
	m.profileItems.WithLabelValues("failed").Add(float64(failed))
}
