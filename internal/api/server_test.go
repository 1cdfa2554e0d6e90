package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trading-journal/internal/accounts"
	"trading-journal/internal/analytics"
	"trading-journal/internal/currency"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/internal/observability"
	"trading-journal/internal/portfolio"
	"trading-journal/internal/resilience"
	"trading-journal/internal/store/memory"
)

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s := memory.New()
	logger := zerolog.Nop()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	platforms := portfolio.NewPlatforms(s, logger)
	conv := currency.NewConverter(nil, logger, currency.WithMetrics(metrics))
	daily := journal.NewDailyUpdater(s, s, time.UTC, logger, journal.WithDailyMetrics(metrics))

	server := NewServer(Services{
		Accounts:  accounts.NewService(s, logger, accounts.WithBcryptCost(bcrypt.MinCost)),
		Trades:    journal.NewManager(s, platforms, daily, logger, journal.WithMetrics(metrics)),
		Daily:     daily,
		Analytics: analytics.NewService(s, platforms, analytics.Options{Location: time.UTC}, logger),
		Platforms: platforms,
		Ledger:    portfolio.NewLedger(s, s, conv, logger),
		Currency:  conv,
		Metrics:   metrics,
	}, logger)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv}
}

// do sends a request and decodes the JSON response into out when non-nil.
func (a *testAPI) do(method, path, user string, body interface{}, out interface{}) int {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, "secret-pass")
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	var out struct {
		UserID string `json:"userId"`
	}
	status := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Trader", "email": email, "password": "secret-pass",
	}, &out)
	require.Equal(a.t, http.StatusCreated, status)
	return out.UserID
}

func (a *testAPI) createPlatform(user, name, cur string) string {
	a.t.Helper()
	var out struct {
		Platform struct {
			ID string `json:"id"`
		} `json:"platform"`
	}
	status := a.do(http.MethodPost, "/api/platforms", user, map[string]string{
		"name": name, "type": "exchange", "currency": cur,
	}, &out)
	require.Equal(a.t, http.StatusCreated, status)
	return out.Platform.ID
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	var out map[string]string
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, &out))
	assert.Equal(t, "ok", out["status"])
}

func TestHealthComponents(t *testing.T) {
	health := resilience.NewHealthMonitor(time.Second)
	healthy := true
	health.RegisterComponent("storage", resilience.ErrorCheck(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("database is locked")
	}))
	server := NewServer(Services{
		Metrics: observability.NewMetrics(prometheus.NewRegistry()),
		Health:  health,
	}, zerolog.Nop())
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	api := &testAPI{t: t, srv: srv}

	var out resilience.HealthReport
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, &out))
	assert.Equal(t, resilience.HealthStatusHealthy, out.Status)
	require.Len(t, out.Components, 1)

	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodGet, "/health", "", nil, &out))
	assert.Equal(t, resilience.HealthStatusUnhealthy, out.Status)
	assert.Equal(t, "database is locked", out.Components[0].Message)
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"pnl": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "failed to encode response", out["error"])
}

func TestAuthenticatedLoggerCarriesUser(t *testing.T) {
	st := memory.New()
	accts := accounts.NewService(st, zerolog.Nop(), accounts.WithBcryptCost(bcrypt.MinCost))
	user, err := accts.Register(context.Background(), accounts.RegisterInput{
		Name: "Trader", Email: "a@example.com", Password: "secret-pass",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	s := &Server{svc: Services{Accounts: accts}}
	h := hlog.NewHandler(zerolog.New(&buf))(s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		hlog.FromRequest(r).Info().Msg("handled")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	req.SetBasicAuth("a@example.com", "secret-pass")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "handled", line["message"])
	assert.Equal(t, user.ID, line["user_id"])
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)
	api.register("a@example.com")

	var out errorBody
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/trades", "", nil, &out))
	assert.Equal(t, "Unauthorized", out.Error)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/trades", "nobody@example.com", nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/trades", "a@example.com", nil, nil))
}

func TestRegisterDuplicate(t *testing.T) {
	api := newTestAPI(t)
	api.register("a@example.com")

	var out errorBody
	status := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Again", "email": "a@example.com", "password": "x",
	}, &out)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out.Error, "already exists")
}

func TestTradeLifecycle(t *testing.T) {
	api := newTestAPI(t)
	user := "a@example.com"
	api.register(user)
	platformID := api.createPlatform(user, "Binance", "")

	entryDate := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	var opened struct {
		TradeID string `json:"tradeId"`
	}
	status := api.do(http.MethodPost, "/api/trades", user, map[string]interface{}{
		"platformId": platformID,
		"direction":  "long",
		"symbol":     "BTCUSDT",
		"entry":      100,
		"size":       2,
		"fee":        1,
		"tp1":        110,
		"stopLoss":   95,
		"entryDate":  entryDate,
	}, &opened)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, opened.TradeID)

	exitDate := entryDate.Add(3 * time.Hour)
	var closed struct {
		Result struct {
			Status  string  `json:"status"`
			PnL     float64 `json:"pnl"`
			Summary struct {
				TotalPnL    float64 `json:"totalPnl"`
				TotalTrades int     `json:"totalTrades"`
			} `json:"summary"`
		} `json:"result"`
	}
	status = api.do(http.MethodPatch, "/api/trades", user, map[string]interface{}{
		"tradeId": opened.TradeID, "exitPrice": 112, "exitDate": exitDate,
	}, &closed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tp1", closed.Result.Status)
	assert.InDelta(t, 23.0, closed.Result.PnL, 1e-9)
	assert.Equal(t, 1, closed.Result.Summary.TotalTrades)

	var again errorBody
	status = api.do(http.MethodPatch, "/api/trades", user, map[string]interface{}{
		"tradeId": opened.TradeID, "exitPrice": 120,
	}, &again)
	assert.Equal(t, http.StatusConflict, status)

	var summaries struct {
		Summaries []struct {
			TotalPnL float64 `json:"totalPnl"`
		} `json:"summaries"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/daily-summary?journalType=crypto", user, nil, &summaries))
	require.Len(t, summaries.Summaries, 1)
	assert.InDelta(t, 23.0, summaries.Summaries[0].TotalPnL, 1e-9)

	var report map[string]json.RawMessage
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/analytics", user, nil, &report))
	assert.JSONEq(t, `1`, string(report["totalTrades"]))
	assert.Contains(t, string(report["pnlByCurrency"]), `"profitFactor":"Infinity"`)

	// Other users cannot see or delete the trade.
	api.register("b@example.com")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/trades?id="+opened.TradeID, "b@example.com", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/trades?id="+opened.TradeID, "b@example.com", nil, nil))

	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/trades?id="+opened.TradeID, user, nil, nil))
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/daily-summary", user, nil, &summaries))
	require.Len(t, summaries.Summaries, 1)
	assert.Zero(t, summaries.Summaries[0].TotalPnL)
}

func TestTradeValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	user := "a@example.com"
	api.register(user)
	platformID := api.createPlatform(user, "Binance", "USD")

	tests := []struct {
		name   string
		method string
		body   interface{}
		want   int
	}{
		{"zero size", http.MethodPost, map[string]interface{}{
			"platformId": platformID, "direction": "long", "symbol": "X", "entry": 1, "size": 0, "entryDate": time.Now(),
		}, http.StatusBadRequest},
		{"unknown platform", http.MethodPost, map[string]interface{}{
			"platformId": "nope", "direction": "long", "symbol": "X", "entry": 1, "size": 1, "entryDate": time.Now(),
		}, http.StatusBadRequest},
		{"close missing id", http.MethodPatch, map[string]interface{}{"exitPrice": 1}, http.StatusBadRequest},
		{"close unknown trade", http.MethodPatch, map[string]interface{}{"tradeId": "nope", "exitPrice": 1}, http.StatusNotFound},
		{"malformed json", http.MethodPost, "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out errorBody
			assert.Equal(t, tt.want, api.do(tt.method, "/api/trades", user, tt.body, &out))
			assert.NotEmpty(t, out.Error)
		})
	}

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, "/api/trades", user, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/trades?limit=-1", user, nil, nil))
}

func TestUnknownJournalTypeRejected(t *testing.T) {
	api := newTestAPI(t)
	user := "a@example.com"
	api.register(user)

	for _, path := range []string{
		"/api/trades?journalType=forex",
		"/api/daily-summary?journalType=forex",
		"/api/analytics?journalType=forex",
	} {
		t.Run(path, func(t *testing.T) {
			var out errorBody
			assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, path, user, nil, &out))
			assert.Contains(t, out.Error, "journalType")
		})
	}

	var trades struct {
		Trades []models.Trade `json:"trades"`
	}
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/trades?journalType=stock", user, nil, &trades))
}

func TestPlatformsAndNetWorth(t *testing.T) {
	api := newTestAPI(t)
	user := "a@example.com"
	api.register(user)
	usd := api.createPlatform(user, "Binance", "")
	idr := api.createPlatform(user, "Ajaib", "IDR")

	var patched struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/platforms", user, map[string]string{"id": usd, "name": "Binance Spot"}, &patched))
	assert.Equal(t, "Binance Spot", patched.Platform.Name)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/networth", user, map[string]interface{}{
		"platformId": usd, "type": "deposit", "amount": "100",
	}, nil))
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/networth", user, map[string]interface{}{
		"platformId": idr, "type": "deposit", "amount": "158000",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/networth", user, map[string]interface{}{
		"platformId": usd, "type": "transfer", "amount": "1",
	}, nil))

	var nw struct {
		TotalUSD string `json:"totalUSD"`
		Balances []struct {
			PlatformName string `json:"platformName"`
		} `json:"balances"`
		RatesSource string `json:"ratesSource"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/networth", user, nil, &nw))
	assert.Equal(t, "110", nw.TotalUSD)
	assert.Len(t, nw.Balances, 2)
	assert.Equal(t, currency.SourceFallback, nw.RatesSource)

	var txs struct {
		Transactions []struct {
			ID           string `json:"id"`
			PlatformName string `json:"platformName"`
		} `json:"transactions"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/networth?type=transactions", user, nil, &txs))
	require.Len(t, txs.Transactions, 2)

	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/networth?id="+txs.Transactions[0].ID, user, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/networth?id="+txs.Transactions[0].ID, user, nil, nil))
	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/api/platforms?id="+idr, user, nil, nil))
}

func TestCurrencyEndpoints(t *testing.T) {
	api := newTestAPI(t)

	var snap struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/currency", "", nil, &snap))
	assert.Equal(t, "USD", snap.Base)
	assert.Equal(t, 15800.0, snap.Rates["IDR"])

	var conv currency.Conversion
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/currency?amount=2&from=usd&to=idr", "", nil, &conv))
	assert.InDelta(t, 31600.0, conv.Converted.Amount, 1e-9)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/currency?amount=abc&from=usd&to=idr", "", nil, nil))

	var batch currency.Batch
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/currency", "", map[string]interface{}{
		"amounts":        []map[string]interface{}{{"amount": 1, "currency": "USD"}, {"amount": 15800, "currency": "IDR"}},
		"targetCurrency": "USD",
	}, &batch))
	assert.InDelta(t, 2.0, batch.Total.Amount, 1e-9)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/api/currency", "", map[string]interface{}{"amounts": []interface{}{}}, nil))
}

func TestProfile(t *testing.T) {
	api := newTestAPI(t)
	user := "a@example.com"
	api.register(user)

	var out struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, "/api/user/profile", user, map[string]string{"username": "Swing_Trader"}, &out))
	assert.Equal(t, "swing_trader", out.User.Username)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/user/profile", user, nil, &out))
	assert.Equal(t, user, out.User.Email)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, "/api/user/profile", user, map[string]string{"username": "x"}, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/health", "", nil, nil)

	resp, err := api.srv.Client().Get(api.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `route="GET /health"`), "latency is recorded per route pattern")
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)
	resp, err := api.srv.Client().Get(api.srv.URL + "/api/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
