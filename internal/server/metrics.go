// Package server provides the HTTP API for evaluating Machin-type formulas.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "machin_active_requests",
		Help: "Requests currently being served.",
	})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "machin_requests_total",
		Help: "Requests received, by endpoint.",
	}, []string{"path"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "machin_request_duration_seconds",
		Help:    "Request latency, by endpoint and status code.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"path", "code"})
)

// Metrics serves the process-wide Prometheus registry, which also holds
// the calculation and result-cache metrics of the machin and service
// packages.
type Metrics struct {
	handler http.Handler
}

// NewMetrics returns a Metrics backed by the default registry.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// begin records the start of a request to path.
func (m *Metrics) begin(path string) {
	activeRequests.Inc()
	requestsTotal.WithLabelValues(path).Inc()
}

// end records the completion of a request started with begin.
func (m *Metrics) end(path string, status int, elapsed time.Duration) {
	activeRequests.Dec()
	requestDuration.WithLabelValues(path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.metrics.begin(path)
		defer func() { s.metrics.end(path, rec.status, time.Since(start)) }()
		next(rec, r)
	}
}
