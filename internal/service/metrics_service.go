package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the session
// lifecycle engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	rotationTotal   *prometheus.CounterVec
	reuseIncidents  prometheus.Counter
	revocationTotal *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	auditDropped    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	rotationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refresh_rotations_total",
		Help: "Refresh token rotation attempts by outcome",
	}, []string{"outcome"})

	reuseIncidents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_reuse_incidents_total",
		Help: "Detected refresh token reuse incidents",
	})

	revocationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_revocations_total",
		Help: "Session revocations by reason",
	}, []string{"reason"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	auditDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audit_events_dropped_total",
		Help: "Audit events dropped because the emitter queue was full",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, rotationTotal, reuseIncidents, revocationTotal, cacheHits, cacheMisses, auditDropped, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		rotationTotal:   rotationTotal,
		reuseIncidents:  reuseIncidents,
		revocationTotal: revocationTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		auditDropped:    auditDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordRotation counts one rotation attempt by outcome.
func (m *MetricsService) RecordRotation(outcome string) {
	if m == nil {
		return
	}
	m.rotationTotal.WithLabelValues(outcome).Inc()
}

// RecordReuseIncident counts a detected reuse incident.
func (m *MetricsService) RecordReuseIncident() {
	if m == nil {
		return
	}
	m.reuseIncidents.Inc()
}

// RecordRevocation counts a session revocation by reason.
func (m *MetricsService) RecordRevocation(reason string) {
	if m == nil {
		return
	}
	m.revocationTotal.WithLabelValues(reason).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordAuditDropped counts an audit event lost to backpressure.
func (m *MetricsService) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
