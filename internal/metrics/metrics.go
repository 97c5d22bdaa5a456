package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neuri"

// Metrics holds the service's Prometheus collectors on a private registry.
// All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	missionsCompleted *prometheus.CounterVec
	pointsAwarded     prometheus.Counter
	tierChanges       *prometheus.CounterVec

	occurrencesGenerated    prometheus.Counter
	occurrencesMaterialized prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "route"},
		),

		missionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "missions",
				Name:      "completed_total",
				Help:      "Missions completed, by mission type.",
			},
			[]string{"type"},
		),
		pointsAwarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rewards",
				Name:      "points_awarded_total",
				Help:      "Reward points awarded for completions.",
			},
		),
		tierChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rewards",
				Name:      "tier_changes_total",
				Help:      "Reward profiles moving into a tier.",
			},
			[]string{"tier"},
		),

		occurrencesGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "occurrences_generated_total",
				Help:      "Occurrences produced by schedule expansion.",
			},
		),
		occurrencesMaterialized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schedule",
				Name:      "occurrences_materialized_total",
				Help:      "Occurrences stored as missions.",
			},
		),
	}

	m.Registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.missionsCompleted,
		m.pointsAwarded,
		m.tierChanges,
		m.occurrencesGenerated,
		m.occurrencesMaterialized,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) MissionCompleted(kind string, points int) {
	if m == nil {
		return
	}
	m.missionsCompleted.WithLabelValues(kind).Inc()
	m.pointsAwarded.Add(float64(points))
}

func (m *Metrics) TierReached(tier string) {
	if m == nil {
		return
	}
	m.tierChanges.WithLabelValues(tier).Inc()
}

func (m *Metrics) OccurrencesGenerated(n int) {
	if m == nil {
		return
	}
	m.occurrencesGenerated.Add(float64(n))
}

func (m *Metrics) OccurrencesMaterialized(n int) {
	if m == nil {
		return
	}
	m.occurrencesMaterialized.Add(float64(n))
}
