package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edusmart_portal"

type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	aggregations     *prometheus.CounterVec
	aggregationTime  *prometheus.HistogramVec
	branchFailures   *prometheus.CounterVec
	gradings         *prometheus.CounterVec
	events           *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Backend API calls by method, resource and outcome.",
		}, []string{"method", "resource", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Backend API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Assignment board runs by role and result.",
		}, []string{"role", "result"}),
		aggregationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Assignment board run latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
		branchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_branch_failures_total",
			Help:      "Subject, assignment or submission fetches that were skipped.",
		}, []string{"stage"}),
		gradings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gradings_total",
			Help:      "Grading operations by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Published events by routing key and result.",
		}, []string{"routing_key", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamDuration,
		m.aggregations,
		m.aggregationTime,
		m.branchFailures,
		m.gradings,
		m.events,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(method, resource, outcome string, duration time.Duration) {
	m.upstreamRequests.WithLabelValues(method, resource, outcome).Inc()
	m.upstreamDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAggregation(role, result string, duration time.Duration) {
	m.aggregations.WithLabelValues(role, result).Inc()
	m.aggregationTime.WithLabelValues(role).Observe(duration.Seconds())
}

func (m *Metrics) BranchFailed(stage string) {
	m.branchFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveGrading(result string) {
	m.gradings.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveEvent(routingKey, result string) {
	m.events.WithLabelValues(routingKey, result).Inc()
}
