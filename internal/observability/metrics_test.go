package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTradeOpened("crypto")
	m.RecordTradeOpened("crypto")
	m.RecordTradeClosed("crypto", "tp2")
	m.RecordCloseError("already_closed")
	m.RecordSummaryRecompute(nil)
	m.RecordSummaryRecompute(errors.New("boom"))
	m.RecordRateFetch("fallback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TradesOpened.WithLabelValues("crypto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesClosed.WithLabelValues("crypto", "tp2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CloseErrors.WithLabelValues("already_closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryRecomputes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryRecomputes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateFetches.WithLabelValues("fallback")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTradeOpened("crypto")
		m.RecordTradeClosed("crypto", "profit")
		m.RecordTradeDeleted()
		m.RecordCloseError("x")
		m.RecordSummaryRecompute(nil)
		m.RecordRateFetch("api")
		m.RecordHTTPRequest("GET", "/health", "200", 0.01)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordTradeOpened("stock")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `trading_journal_journal_trades_opened_total{journal_type="stock"} 1`))
}
