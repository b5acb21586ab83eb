package internal

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for HTTP requests and the stock
// workflow. It implements stock.Recorder.
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec

	entriesCreated  *prometheus.CounterVec
	unitsIssued     *prometheus.CounterVec
	stockRejections *prometheus.CounterVec
	lowStockAlerts  *prometheus.CounterVec
	notifications   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	m := &Metrics{
		reqTotal:   reqTotal,
		reqLatency: reqLatency,
		entriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_entries_created_total",
			Help: "Ledger entries written by the request form",
		}, []string{"item"}),
		unitsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_units_issued_total",
			Help: "Units handed out per item",
		}, []string{"item"}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_stock_rejections_total",
			Help: "Requests refused for insufficient stock, by reason",
		}, []string{"reason"}),
		lowStockAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_low_stock_alerts_total",
			Help: "Low-stock alerts raised",
		}, []string{"item"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_notifications_total",
			Help: "Notification deliveries by kind and result",
		}, []string{"kind", "result"}),
		registry: registry,
	}

	registry.MustRegister(reqTotal, reqLatency,
		m.entriesCreated, m.unitsIssued, m.stockRejections, m.lowStockAlerts, m.notifications)
	return m
}

func (m *Metrics) EntryCreated(item string, qty int) {
	m.entriesCreated.WithLabelValues(item).Inc()
	m.unitsIssued.WithLabelValues(item).Add(float64(qty))
}

// StockRejected counts a refused request. reason is one of the stock.Reject*
// values.
func (m *Metrics) StockRejected(reason string) {
	m.stockRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) LowStockAlert(item string) {
	m.lowStockAlerts.WithLabelValues(item).Inc()
}

// NotificationResult matches notify.ResultFunc.
func (m *Metrics) NotificationResult(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer that captures the status code
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			// Process the request
			next.ServeHTTP(rw, r)

			// Get the path (use Chi's route pattern if available)
			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}

			// Record metrics
			status := http.StatusText(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	return sr.ResponseWriter.Write(b)
}
