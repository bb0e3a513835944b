// Package metrics exposes Prometheus counters for the name registry and HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "namewall"

// Metrics holds every collector the server reports. A nil *Metrics is valid
// and records nothing, so components can be built without it.
type Metrics struct {
	registry *prometheus.Registry

	namesCreated      prometheus.Counter
	namesExisting     prometheus.Counter
	feedbackSubmitted prometheus.Counter
	storageErrors     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	liveClients       prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus Go runtime and process
// collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.namesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "names_created_total",
		Help:      "Names inserted into the registry",
	})
	m.namesExisting = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "names_existing_total",
		Help:      "Create calls answered with an already registered name",
	})
	m.feedbackSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feedback_submitted_total",
		Help:      "Feedback entries stored",
	})
	m.storageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_errors_total",
		Help:      "Failed storage operations",
	}, []string{"op"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Name list cache lookups by result",
	}, []string{"result"}) // hit, miss, error
	m.liveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_feed_clients",
		Help:      "Connected WebSocket clients on the live name feed",
	})
	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{
		m.namesCreated,
		m.namesExisting,
		m.feedbackSubmitted,
		m.storageErrors,
		m.cacheLookups,
		m.liveClients,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) NameCreated() {
	if m != nil {
		m.namesCreated.Inc()
	}
}

func (m *Metrics) NameExisting() {
	if m != nil {
		m.namesExisting.Inc()
	}
}

func (m *Metrics) FeedbackSubmitted() {
	if m != nil {
		m.feedbackSubmitted.Inc()
	}
}

func (m *Metrics) StorageError(op string) {
	if m != nil {
		m.storageErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) CacheLookup(result string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) LiveClients(n int) {
	if m != nil {
		m.liveClients.Set(float64(n))
	}
}

// Middleware records request count and latency labelled by the chi route
// pattern, so /assets/app.js and /assets/style.css share one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
