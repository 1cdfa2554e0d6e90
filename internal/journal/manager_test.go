package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/store/memory"
)

var (
	testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	testLoc = time.UTC
)

// countingRecomputer wraps a DailyUpdater and counts calls.
type countingRecomputer struct {
	mu    sync.Mutex
	inner *DailyUpdater
	calls []time.Time
}

func (c *countingRecomputer) Recompute(ctx context.Context, userID string, date time.Time, jt models.JournalType) (*models.DailySummary, error) {
	c.mu.Lock()
	c.calls = append(c.calls, date)
	c.mu.Unlock()
	return c.inner.Recompute(ctx, userID, date, jt)
}

type fixture struct {
	store    *memory.Store
	daily    *DailyUpdater
	recorder *countingRecomputer
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	clock := func() time.Time { return testNow }
	daily := NewDailyUpdater(s, s, testLoc, zerolog.Nop(), WithDailyClock(clock))
	rec := &countingRecomputer{inner: daily}
	m := NewManager(s, s, rec, zerolog.Nop(), WithClock(clock))

	require.NoError(t, s.InsertPlatform(context.Background(), &models.Platform{
		ID: "binance", UserID: "u1", Name: "Binance", Type: models.PlatformExchange, Currency: models.USD, CreatedAt: testNow,
	}))
	require.NoError(t, s.InsertPlatform(context.Background(), &models.Platform{
		ID: "ajaib", UserID: "u1", Name: "Ajaib", Type: models.PlatformBroker, Currency: models.IDR, CreatedAt: testNow,
	}))
	return &fixture{store: s, daily: daily, recorder: rec, manager: m}
}

func openReq(dir models.Direction, entry, size, fee float64) OpenRequest {
	return OpenRequest{
		PlatformID: "binance",
		Direction:  dir,
		Symbol:     "BTCUSDT",
		Entry:      entry,
		Size:       size,
		Fee:        fee,
		EntryDate:  testNow.Add(-4 * time.Hour),
	}
}

func TestManager_OpenDefaults(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, models.StatusRunning, trade.Status)
	assert.Equal(t, models.JournalCrypto, trade.JournalType)
	assert.Equal(t, models.TradeSpot, trade.TradeType)
	assert.Equal(t, models.USD, trade.Currency)
	assert.Nil(t, trade.ExitPrice)
	assert.Nil(t, trade.ExitDate)
	assert.Nil(t, trade.PnL)
	assert.Nil(t, trade.PnLPercentage)
	assert.Empty(t, fx.recorder.calls, "open never recomputes the calendar")
}

func TestManager_OpenCurrencyFromPlatform(t *testing.T) {
	fx := newFixture(t)
	req := openReq(models.DirectionLong, 9000, 100, 0)
	req.PlatformID = "ajaib"
	req.JournalType = models.JournalStock

	trade, err := fx.manager.Open(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, models.IDR, trade.Currency)

	req.Currency = models.USD
	trade, err = fx.manager.Open(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, models.USD, trade.Currency, "explicit currency wins")
}

func TestManager_OpenStoresLadderVerbatim(t *testing.T) {
	fx := newFixture(t)
	req := openReq(models.DirectionLong, 100, 1, 0)
	req.TP1, req.TP3, req.StopLoss = f(130), f(110), f(90)

	trade, err := fx.manager.Open(context.Background(), "u1", req)
	require.NoError(t, err)
	got, err := fx.manager.Get(context.Background(), "u1", trade.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, *got.TP1)
	assert.Nil(t, got.TP2)
	assert.Equal(t, 110.0, *got.TP3)
	assert.Equal(t, 90.0, *got.StopLoss)
}

func TestManager_OpenValidation(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name  string
		edit  func(*OpenRequest)
		field string
	}{
		{"missing platform", func(r *OpenRequest) { r.PlatformID = "" }, "platformId"},
		{"foreign platform", func(r *OpenRequest) { r.PlatformID = "someone-elses" }, "platformId"},
		{"missing symbol", func(r *OpenRequest) { r.Symbol = "  " }, "symbol"},
		{"zero entry", func(r *OpenRequest) { r.Entry = 0 }, "entry"},
		{"negative size", func(r *OpenRequest) { r.Size = -1 }, "size"},
		{"bad direction", func(r *OpenRequest) { r.Direction = "up" }, "direction"},
		{"negative fee", func(r *OpenRequest) { r.Fee = -0.5 }, "fee"},
		{"missing entry date", func(r *OpenRequest) { r.EntryDate = time.Time{} }, "entryDate"},
		{"bad journal type", func(r *OpenRequest) { r.JournalType = "forex" }, "journalType"},
		{"leverage on spot", func(r *OpenRequest) { r.Leverage = f(10) }, "leverage"},
		{"zero leverage", func(r *OpenRequest) { r.TradeType = models.TradeFutures; r.Leverage = f(0) }, "leverage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := openReq(models.DirectionLong, 100, 1, 0)
			tt.edit(&req)
			_, err := fx.manager.Open(context.Background(), "u1", req)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestManager_OpenFuturesWithLeverage(t *testing.T) {
	fx := newFixture(t)
	req := openReq(models.DirectionShort, 100, 1, 0)
	req.TradeType = models.TradeFutures
	req.Leverage = f(20)

	trade, err := fx.manager.Open(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, 20.0, *trade.Leverage)
}

func TestManager_CloseScenarios(t *testing.T) {
	tests := []struct {
		name   string
		dir    models.Direction
		entry  float64
		exit   float64
		size   float64
		fee    float64
		tp1    *float64
		stop   *float64
		status models.TradeStatus
		pnl    float64
		pnlPct float64
	}{
		{"long profit without ladder", models.DirectionLong, 100, 150, 2, 5, nil, nil, models.StatusProfit, 95, 50},
		{"long stoploss above configured stop", models.DirectionLong, 100, 90, 1, 0, nil, f(95), models.StatusStopLoss, -10, -10},
		{"short reaches tp1", models.DirectionShort, 100, 80, 1, 0, f(85), nil, models.StatusTP1, 20, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			ctx := context.Background()
			req := openReq(tt.dir, tt.entry, tt.size, tt.fee)
			req.TP1, req.StopLoss = tt.tp1, tt.stop
			trade, err := fx.manager.Open(ctx, "u1", req)
			require.NoError(t, err)

			res, err := fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: tt.exit})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.InDelta(t, tt.pnl, res.PnL, 1e-9)
			assert.InDelta(t, tt.pnlPct, res.PnLPercentage, 1e-9)

			got, err := fx.manager.Get(ctx, "u1", trade.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			require.NotNil(t, got.ExitPrice)
			require.NotNil(t, got.ExitDate)
			require.NotNil(t, got.PnL)
			require.NotNil(t, got.PnLPercentage)
			assert.True(t, testNow.Equal(*got.ExitDate), "exit date defaults to now")
		})
	}
}

func TestManager_CloseTriggersOneRecompute(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)

	exitAt := time.Date(2024, 5, 9, 23, 59, 0, 0, time.UTC)
	res, err := fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: 110, ExitDate: &exitAt})
	require.NoError(t, err)

	require.Len(t, fx.recorder.calls, 1)
	assert.True(t, exitAt.Equal(fx.recorder.calls[0]))
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.TotalTrades)
	assert.Equal(t, 1, res.Summary.WinningTrades)
	assert.InDelta(t, 10.0, res.Summary.TotalPnL, 1e-9)
	assert.True(t, res.Summary.Date.Equal(time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)))
}

func TestManager_CloseErrors(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Close(ctx, "u1", "missing", CloseRequest{ExitPrice: 1})
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)

	_, err = fx.manager.Close(ctx, "u2", trade.ID, CloseRequest{ExitPrice: 110})
	assert.ErrorAs(t, err, &nf, "foreign trades look absent")

	_, err = fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: 0})
	assert.True(t, apperrors.IsValidation(err))

	_, err = fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: 110})
	require.NoError(t, err)

	for _, exit := range []float64{90, 110, 200} {
		_, err = fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: exit})
		var ise *apperrors.InvalidStateError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, string(models.StatusProfit), ise.State)
	}
	assert.Len(t, fx.recorder.calls, 1, "failed closes never recompute")
}

func TestManager_CloseRejectsOverflowingPnL(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 1e10, 1e300, 0))
	require.NoError(t, err)

	_, err = fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: 1e300})
	var ae *apperrors.ArithmeticError
	require.ErrorAs(t, err, &ae)

	stored, err := fx.store.GetTrade(ctx, "u1", trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, stored.Status, "a rejected close leaves the trade running")
	assert.Nil(t, stored.PnL)
	assert.Empty(t, fx.recorder.calls)
}

func TestManager_ConcurrentCloseSingleWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.manager.Close(ctx, "u1", trade.ID, CloseRequest{ExitPrice: 100 + float64(i)})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, fx.recorder.calls, 1)
}

func TestManager_DeleteClosedRecomputesDay(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)
	b, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)
	_, err = fx.manager.Close(ctx, "u1", a.ID, CloseRequest{ExitPrice: 120})
	require.NoError(t, err)
	_, err = fx.manager.Close(ctx, "u1", b.ID, CloseRequest{ExitPrice: 95})
	require.NoError(t, err)

	require.NoError(t, fx.manager.Delete(ctx, "u1", a.ID))

	start, _ := DayBounds(testNow, testLoc)
	sum, err := fx.store.GetDailySummary(ctx, "u1", start, models.JournalCrypto)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalTrades)
	assert.Equal(t, 0, sum.WinningTrades)
	assert.Equal(t, 1, sum.LosingTrades)
	assert.InDelta(t, -5.0, sum.TotalPnL, 1e-9)

	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, fx.manager.Delete(ctx, "u1", a.ID), &nf)
}

func TestManager_DeleteRunningSkipsRecompute(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trade, err := fx.manager.Open(ctx, "u1", openReq(models.DirectionLong, 100, 1, 0))
	require.NoError(t, err)

	require.NoError(t, fx.manager.Delete(ctx, "u1", trade.ID))
	assert.Empty(t, fx.recorder.calls)
}

func TestManager_List(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	spot := openReq(models.DirectionLong, 100, 1, 0)
	fut := openReq(models.DirectionShort, 100, 1, 0)
	fut.TradeType = models.TradeFutures
	fut.EntryDate = spot.EntryDate.Add(time.Hour)
	_, err := fx.manager.Open(ctx, "u1", spot)
	require.NoError(t, err)
	_, err = fx.manager.Open(ctx, "u1", fut)
	require.NoError(t, err)

	all, err := fx.manager.List(ctx, "u1", ListFilter{JournalType: models.JournalCrypto})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.TradeFutures, all[0].TradeType, "most recent entry first")

	onlyFutures, err := fx.manager.List(ctx, "u1", ListFilter{TradeType: models.TradeFutures})
	require.NoError(t, err)
	assert.Len(t, onlyFutures, 1)
}
