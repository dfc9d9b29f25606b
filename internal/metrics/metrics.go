package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics — все метрики сервиса. Регистрируются в переданном Registerer,
// чтобы тесты могли работать на отдельном реестре.
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Биржа
	ExchangeRequestsTotal   *prometheus.CounterVec
	ExchangeRequestDuration *prometheus.HistogramVec
	OrderAttempts           prometheus.Histogram

	// Пайплайн
	SignalsTotal      *prometheus.CounterVec
	NotifyFailures    prometheus.Counter
	AuditFailures     prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests in flight",
			},
		),
		ExchangeRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_requests_total",
				Help: "Total number of signed exchange API requests",
			},
			[]string{"endpoint", "status"},
		),
		ExchangeRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "exchange_request_duration_seconds",
				Help: "Duration of exchange API requests in seconds",
			},
			[]string{"endpoint"},
		),
		OrderAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "order_submit_attempts",
				Help:    "Attempts spent per order submission",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_signals_total",
				Help: "Processed webhook signals by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		NotifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notify_failures_total",
				Help: "Notifications that could not be delivered",
			},
		),
		AuditFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "audit_append_failures_total",
				Help: "Audit records that could not be appended",
			},
		),
		StreamSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "outcome_stream_subscribers",
				Help: "Connected websocket outcome subscribers",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ExchangeRequestsTotal,
		m.ExchangeRequestDuration,
		m.OrderAttempts,
		m.SignalsTotal,
		m.NotifyFailures,
		m.AuditFailures,
		m.StreamSubscribers,
	)
	return m
}

// NewRegistry — реестр со стандартными Go/process коллекторами.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}
