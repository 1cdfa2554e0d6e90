// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trading_journal"

// Metrics holds all Prometheus metrics for the application.
//
// Every Record method is safe to call on a nil *Metrics, so services can be
// built without a registry in tests.
type Metrics struct {
	// Journal metrics
	TradesOpened      *prometheus.CounterVec
	TradesClosed      *prometheus.CounterVec
	TradesDeleted     prometheus.Counter
	CloseErrors       *prometheus.CounterVec
	SummaryRecomputes *prometheus.CounterVec

	// Currency metrics
	RateFetches *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a Metrics instance with every collector registered on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TradesOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_opened_total",
			Help:      "Total number of trades opened by journal type",
		}, []string{"journal_type"}),
		TradesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed by exit classification",
		}, []string{"journal_type", "status"}),
		TradesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "trades_deleted_total",
			Help:      "Total number of trades deleted",
		}),
		CloseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "close_errors_total",
			Help:      "Total number of rejected or failed trade closes by reason",
		}, []string{"reason"}),
		SummaryRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "daily_summary_recomputes_total",
			Help:      "Total number of daily summary recomputations by result",
		}, []string{"result"}),

		RateFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "currency",
			Name:      "rate_fetches_total",
			Help:      "Total number of exchange rate lookups by source",
		}, []string{"source"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),

		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordTradeOpened increments the opened counter.
func (m *Metrics) RecordTradeOpened(journalType string) {
	if m == nil {
		return
	}
	m.TradesOpened.WithLabelValues(journalType).Inc()
}

// RecordTradeClosed increments the closed counter for a classification.
func (m *Metrics) RecordTradeClosed(journalType, status string) {
	if m == nil {
		return
	}
	m.TradesClosed.WithLabelValues(journalType, status).Inc()
}

// RecordTradeDeleted increments the deleted counter.
func (m *Metrics) RecordTradeDeleted() {
	if m == nil {
		return
	}
	m.TradesDeleted.Inc()
}

// RecordCloseError records a close that did not complete.
func (m *Metrics) RecordCloseError(reason string) {
	if m == nil {
		return
	}
	m.CloseErrors.WithLabelValues(reason).Inc()
}

// RecordSummaryRecompute records a daily summary recomputation.
func (m *Metrics) RecordSummaryRecompute(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SummaryRecomputes.WithLabelValues(result).Inc()
}

// RecordRateFetch records where a set of exchange rates came from
// (cache, api or fallback).
func (m *Metrics) RecordRateFetch(source string) {
	if m == nil {
		return
	}
	m.RateFetches.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records request latency.
func (m *Metrics) RecordHTTPRequest(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(seconds)
}
