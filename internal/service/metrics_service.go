package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the note
// lifecycle and the HTTP surface. All methods are nil-safe so wiring
// stays optional in tests.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	notesCreated    prometheus.Counter
	noteViews       prometheus.Counter
	notesDestroyed  *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
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

	notesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notes_created_total",
		Help: "Total notes created",
	})

	noteViews := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "note_views_total",
		Help: "Total note views consumed",
	})

	notesDestroyed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_destroyed_total",
		Help: "Total notes destroyed, by reason",
	}, []string{"reason"})

	accessDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "note_access_denied_total",
		Help: "Total denied note accesses, by reason",
	}, []string{"reason"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, notesCreated, noteViews, notesDestroyed, accessDenied, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		notesCreated:    notesCreated,
		noteViews:       noteViews,
		notesDestroyed:  notesDestroyed,
		accessDenied:    accessDenied,
		dbQueryDuration: dbQueryDuration,
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

// RecordNoteCreated counts a successful note creation.
func (m *MetricsService) RecordNoteCreated() {
	if m == nil {
		return
	}
	m.notesCreated.Inc()
}

// RecordNoteView counts a consumed view.
func (m *MetricsService) RecordNoteView() {
	if m == nil {
		return
	}
	m.noteViews.Inc()
}

// RecordNoteDestroyed counts a destroyed note by reason
// ("views" or "expired").
func (m *MetricsService) RecordNoteDestroyed(reason string) {
	if m == nil {
		return
	}
	m.notesDestroyed.WithLabelValues(reason).Inc()
}

// RecordNotesExpired counts notes destroyed by the expiry sweep.
func (m *MetricsService) RecordNotesExpired(count int64) {
	if m == nil {
		return
	}
	m.notesDestroyed.WithLabelValues("expired").Add(float64(count))
}

// RecordAccessDenied counts a denied access by reason.
func (m *MetricsService) RecordAccessDenied(reason string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(reason).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}
