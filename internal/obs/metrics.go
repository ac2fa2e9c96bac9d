package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request and queue instruments. It is built once in the
// composition root and handed to whoever needs it; there is no package-level
// registry state.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	workQueueLength prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qc_requests_total",
				Help: "Total API requests.",
			},
			[]string{"method", "endpoint", "http_status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qc_request_latency_seconds",
				Help:    "Request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		workQueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worker_queue_length",
			Help: "Approximate number of items in the background worker queue.",
		}),
	}

	m.registry.MustRegister(m.requestsTotal, m.requestLatency, m.workQueueLength)
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetQueueLength updates the worker queue gauge.
func (m *Metrics) SetQueueLength(n int64) {
	m.workQueueLength.Set(float64(n))
}

// Instrument records count and latency for every request passing through.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		m.requestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(sw.code)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
