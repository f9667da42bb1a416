package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookshelf-ua/api/internal/platform/observability"
)

// Metrics owns a private Prometheus registry exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	latencyMS        *prometheus.HistogramVec
	ordersCreated    prometheus.Counter
	stockAdjustments *prometheus.CounterVec
	stockUnits       *prometheus.CounterVec
	stockRejections  *prometheus.CounterVec
}

// New registers the API collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bookshelf"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		latencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route", "method"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders successfully created.",
		}),
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "adjustments_total",
			Help:      "Committed stock adjustments by kind.",
		}, []string{"kind"}),
		stockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "units_moved_total",
			Help:      "Absolute number of book units moved in or out of stock by adjustment kind.",
		}, []string{"kind"}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "rejections_total",
			Help:      "Order updates rejected by stock reconciliation, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.requests, m.latencyMS, m.ordersCreated, m.stockAdjustments, m.stockUnits, m.stockRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := observability.NewResponseRecorder(w)
			next.ServeHTTP(recorder, r)

			route := observability.RoutePattern(r)
			method := observability.SanitizeMethod(r.Method)
			m.requests.WithLabelValues(route, method, strconv.Itoa(recorder.Status())).Inc()
			m.latencyMS.WithLabelValues(route, method).Observe(float64(time.Since(start)) / float64(time.Millisecond))
		})
	}
}

// OrderCreated counts a persisted order.
func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

// StockAdjusted counts a committed ledger entry and the units it moved.
func (m *Metrics) StockAdjusted(kind string, units int) {
	m.stockAdjustments.WithLabelValues(kind).Inc()
	if units < 0 {
		units = -units
	}
	m.stockUnits.WithLabelValues(kind).Add(float64(units))
}

// StockRejected counts a reconciliation failure.
func (m *Metrics) StockRejected(reason string) {
	m.stockRejections.WithLabelValues(reason).Inc()
}
