package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Payment paths reported by PaymentRecorded.
const (
	PaymentPathSingle = "single"
	PaymentPathClient = "client"
)

// Metrics collects Prometheus metrics for the HTTP server and the stock,
// invoice and payment flows.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	itemsAdded        prometheus.Counter
	payments          *prometheus.CounterVec
	unusedPayment     prometheus.Counter
	insufficientStock prometheus.Counter
	lowStockRows      prometheus.Gauge
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "denimstock_http_requests_total",
		Help: "HTTP requests partitioned by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "denimstock_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	itemsAdded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "denimstock_invoice_items_added_total",
		Help: "Invoice lines created or merged.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "denimstock_payments_total",
		Help: "Payment rows written, by entry path.",
	}, []string{"path"})
	unused := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "denimstock_payment_unused_amount",
		Help: "Sum of client payment amounts that exceeded the outstanding debt.",
	})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "denimstock_insufficient_stock_total",
		Help: "Invoice item requests rejected for lack of stock.",
	})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "denimstock_low_stock_rows",
		Help: "Stock rows below the low stock threshold at the last scan.",
	})
	registry.MustRegister(requests, duration, itemsAdded, payments, unused, insufficient, lowStock)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		itemsAdded:        itemsAdded,
		payments:          payments,
		unusedPayment:     unused,
		insufficientStock: insufficient,
		lowStockRows:      lowStock,
	}
}

// Handler returns the http.Handler serving /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// ItemAdded counts one created or merged invoice line.
func (m *Metrics) ItemAdded() {
	if m == nil {
		return
	}
	m.itemsAdded.Inc()
}

// InsufficientStock counts one rejected item request.
func (m *Metrics) InsufficientStock() {
	if m == nil {
		return
	}
	m.insufficientStock.Inc()
}

// PaymentRecorded counts payment rows written on the given path.
func (m *Metrics) PaymentRecorded(path string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.payments.WithLabelValues(path).Add(float64(rows))
}

// UnusedPayment adds the surplus of an overpaying client payment.
func (m *Metrics) UnusedPayment(amount decimal.Decimal) {
	if m == nil || !amount.IsPositive() {
		return
	}
	m.unusedPayment.Add(amount.InexactFloat64())
}

// LowStockRows sets the number of rows found by the last scan.
func (m *Metrics) LowStockRows(n int) {
	if m == nil {
		return
	}
	m.lowStockRows.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
