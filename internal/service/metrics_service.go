package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	registrarCalls  *prometheus.CounterVec
	reconcileJobs   *prometheus.CounterVec
	syncBroadcasts  prometheus.Counter
	activeSessions  prometheus.Gauge
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

	registrarCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_requests_total",
		Help: "Total upstream registrar requests by outcome",
	}, []string{"outcome"})

	reconcileJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_jobs_total",
		Help: "Total reconciliation jobs by type",
	}, []string{"type"})

	syncBroadcasts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_broadcasts_total",
		Help: "Total student sync snapshots published",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of live session managers",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, registrarCalls, reconcileJobs, syncBroadcasts, activeSessions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		registrarCalls:  registrarCalls,
		reconcileJobs:   reconcileJobs,
		syncBroadcasts:  syncBroadcasts,
		activeSessions:  activeSessions,
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

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveRegistrarCall records one upstream call outcome ("ok"/"error").
func (m *MetricsService) ObserveRegistrarCall(outcome string) {
	if m == nil {
		return
	}
	m.registrarCalls.WithLabelValues(outcome).Inc()
}

// ObserveReconcileJob records one enqueued reconciliation job.
func (m *MetricsService) ObserveReconcileJob(jobType string) {
	if m == nil {
		return
	}
	m.reconcileJobs.WithLabelValues(jobType).Inc()
}

// ObserveBroadcast records one published sync snapshot.
func (m *MetricsService) ObserveBroadcast() {
	if m == nil {
		return
	}
	m.syncBroadcasts.Inc()
}

// SetActiveSessions tracks the live session count.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
