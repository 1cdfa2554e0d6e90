// Package storetest holds behavioural tests shared by every DataStore driver.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/models"
	"trading-journal/internal/store"
	"trading-journal/pkg/id"
)

// Factory returns a fresh, empty store. The caller's cleanup runs via t.Cleanup.
type Factory func(t *testing.T) store.DataStore

// Run exercises the full DataStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("TradeRoundTrip", func(t *testing.T) { testTradeRoundTrip(t, newStore(t)) })
	t.Run("TradeOwnership", func(t *testing.T) { testTradeOwnership(t, newStore(t)) })
	t.Run("ListTradesFilters", func(t *testing.T) { testListTradesFilters(t, newStore(t)) })
	t.Run("CloseTradeGuard", func(t *testing.T) { testCloseTradeGuard(t, newStore(t)) })
	t.Run("CloseTradeRace", func(t *testing.T) { testCloseTradeRace(t, newStore(t)) })
	t.Run("DailySummaryUpsert", func(t *testing.T) { testDailySummaryUpsert(t, newStore(t)) })
	t.Run("Platforms", func(t *testing.T) { testPlatforms(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Ledger", func(t *testing.T) { testLedger(t, newStore(t)) })
}

// Base is a fixed instant used by the fixtures, truncated so every driver
// stores it without loss.
var Base = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// NewRunningTrade returns a valid running long trade for userID.
func NewRunningTrade(userID string, entryDate time.Time) *models.Trade {
	tp1, sl := 110.0, 95.0
	return &models.Trade{
		ID:          id.New(),
		UserID:      userID,
		PlatformID:  "platform-1",
		JournalType: models.JournalCrypto,
		TradeType:   models.TradeSpot,
		Direction:   models.DirectionLong,
		Currency:    models.USD,
		Symbol:      "BTCUSDT",
		Entry:       100,
		Size:        2,
		Fee:         1,
		TP1:         &tp1,
		StopLoss:    &sl,
		Status:      models.StatusRunning,
		EntryDate:   entryDate,
		Tags:        []string{"breakout"},
		CreatedAt:   entryDate,
		UpdatedAt:   entryDate,
	}
}

func closeFields(exit float64, at time.Time, status models.TradeStatus) models.TradeClose {
	return models.TradeClose{
		ExitPrice:     exit,
		ExitDate:      at,
		PnL:           (exit-100)*2 - 1,
		PnLPercentage: (exit - 100) / 100 * 100,
		Status:        status,
		UpdatedAt:     at,
	}
}

func testTradeRoundTrip(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	tr := NewRunningTrade("u1", Base)
	require.NoError(t, s.InsertTrade(ctx, tr))
	assert.ErrorIs(t, s.InsertTrade(ctx, tr), store.ErrDuplicateKey)

	got, err := s.GetTrade(ctx, "u1", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.Symbol, got.Symbol)
	assert.Equal(t, tr.Entry, got.Entry)
	assert.True(t, tr.EntryDate.Equal(got.EntryDate))
	require.NotNil(t, got.TP1)
	assert.Equal(t, 110.0, *got.TP1)
	assert.Nil(t, got.TP2)
	assert.Nil(t, got.ExitPrice)
	assert.Nil(t, got.PnL)
	assert.Equal(t, []string{"breakout"}, got.Tags)
	assert.Equal(t, models.StatusRunning, got.Status)
}

func testTradeOwnership(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	tr := NewRunningTrade("u1", Base)
	require.NoError(t, s.InsertTrade(ctx, tr))

	_, err := s.GetTrade(ctx, "u2", tr.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrade(ctx, "u2", tr.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.CloseTrade(ctx, "u2", tr.ID, closeFields(110, Base, models.StatusTP1)), store.ErrNotFound)

	require.NoError(t, s.DeleteTrade(ctx, "u1", tr.ID))
	_, err = s.GetTrade(ctx, "u1", tr.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListTradesFilters(t *testing.T, s store.DataStore) {
	ctx := context.Background()

	older := NewRunningTrade("u1", Base)
	newer := NewRunningTrade("u1", Base.Add(2*time.Hour))
	newer.Symbol = "ETHUSDT"
	newer.TradeType = models.TradeFutures
	stock := NewRunningTrade("u1", Base.Add(time.Hour))
	stock.JournalType = models.JournalStock
	other := NewRunningTrade("u2", Base)
	for _, tr := range []*models.Trade{older, newer, stock, other} {
		require.NoError(t, s.InsertTrade(ctx, tr))
	}
	require.NoError(t, s.CloseTrade(ctx, "u1", older.ID, closeFields(110, Base.Add(3*time.Hour), models.StatusTP1)))

	all, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, stock.ID, all[1].ID)
	assert.Equal(t, older.ID, all[2].ID)

	crypto, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1", JournalType: models.JournalCrypto})
	require.NoError(t, err)
	assert.Len(t, crypto, 2)

	futures, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1", TradeType: models.TradeFutures})
	require.NoError(t, err)
	require.Len(t, futures, 1)
	assert.Equal(t, "ETHUSDT", futures[0].Symbol)

	closed, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1", ClosedOnly: true})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, older.ID, closed[0].ID)

	inWindow, err := s.ListTrades(ctx, store.TradeFilter{
		UserID:   "u1",
		ExitFrom: Base.Add(3 * time.Hour),
		ExitTo:   Base.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, inWindow, 1, "exit bounds are inclusive")

	outside, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1", ExitFrom: Base.Add(4 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, outside)

	limited, err := s.ListTrades(ctx, store.TradeFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func testCloseTradeGuard(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	tr := NewRunningTrade("u1", Base)
	require.NoError(t, s.InsertTrade(ctx, tr))

	exitAt := Base.Add(time.Hour)
	require.NoError(t, s.CloseTrade(ctx, "u1", tr.ID, closeFields(110, exitAt, models.StatusTP1)))

	got, err := s.GetTrade(ctx, "u1", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTP1, got.Status)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 110.0, *got.ExitPrice)
	require.NotNil(t, got.PnL)
	assert.InDelta(t, 19.0, *got.PnL, 1e-9)
	require.NotNil(t, got.ExitDate)
	assert.True(t, exitAt.Equal(*got.ExitDate))

	err = s.CloseTrade(ctx, "u1", tr.ID, closeFields(90, exitAt, models.StatusStopLoss))
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err = s.GetTrade(ctx, "u1", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTP1, got.Status, "second close must not overwrite the first")

	assert.ErrorIs(t, s.CloseTrade(ctx, "u1", "missing", closeFields(90, exitAt, models.StatusStopLoss)), store.ErrNotFound)
}

func testCloseTradeRace(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	tr := NewRunningTrade("u1", Base)
	require.NoError(t, s.InsertTrade(ctx, tr))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.CloseTrade(ctx, "u1", tr.ID, closeFields(100+float64(i), Base.Add(time.Hour), models.StatusProfit))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, store.ErrConflict)
	}
	assert.Equal(t, 1, wins, "exactly one close must succeed")
}

func testDailySummaryUpsert(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := s.GetDailySummary(ctx, "u1", day, models.JournalCrypto)
	assert.ErrorIs(t, err, store.ErrNotFound)

	sum := &models.DailySummary{UserID: "u1", Date: day, JournalType: models.JournalCrypto, TotalPnL: 10, TotalTrades: 1, WinningTrades: 1, UpdatedAt: Base}
	require.NoError(t, s.UpsertDailySummary(ctx, sum))

	sum.TotalPnL, sum.TotalTrades, sum.LosingTrades = 4, 2, 1
	require.NoError(t, s.UpsertDailySummary(ctx, sum))

	got, err := s.GetDailySummary(ctx, "u1", day, models.JournalCrypto)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.TotalPnL)
	assert.Equal(t, 2, got.TotalTrades)
	assert.Equal(t, 1, got.WinningTrades)
	assert.Equal(t, 1, got.LosingTrades)

	stock := &models.DailySummary{UserID: "u1", Date: day, JournalType: models.JournalStock, TotalPnL: -3, TotalTrades: 1, LosingTrades: 1, UpdatedAt: Base}
	require.NoError(t, s.UpsertDailySummary(ctx, stock))
	prev := &models.DailySummary{UserID: "u1", Date: day.AddDate(0, 0, -1), JournalType: models.JournalCrypto, TotalPnL: 1, TotalTrades: 1, WinningTrades: 1, UpdatedAt: Base}
	require.NoError(t, s.UpsertDailySummary(ctx, prev))

	list, err := s.ListDailySummaries(ctx, store.SummaryFilter{UserID: "u1", JournalType: models.JournalCrypto})
	require.NoError(t, err)
	require.Len(t, list, 2, "one row per (user, day, journal type)")
	assert.True(t, list[0].Date.Equal(day))
	assert.True(t, list[1].Date.Equal(day.AddDate(0, 0, -1)))

	limited, err := s.ListDailySummaries(ctx, store.SummaryFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func testPlatforms(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	first := &models.Platform{ID: id.New(), UserID: "u1", Name: "Binance", Type: models.PlatformExchange, Currency: models.USD, CreatedAt: Base}
	second := &models.Platform{ID: id.New(), UserID: "u1", Name: "Ajaib", Type: models.PlatformBroker, Currency: models.IDR, CreatedAt: Base.Add(time.Minute)}
	require.NoError(t, s.InsertPlatform(ctx, first))
	require.NoError(t, s.InsertPlatform(ctx, second))

	list, err := s.ListPlatforms(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ajaib", list[0].Name, "newest first")

	first.Name = "Binance Futures"
	require.NoError(t, s.UpdatePlatform(ctx, first))
	got, err := s.GetPlatform(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Binance Futures", got.Name)

	_, err = s.GetPlatform(ctx, "u2", first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeletePlatform(ctx, "u1", first.ID))
	assert.ErrorIs(t, s.DeletePlatform(ctx, "u1", first.ID), store.ErrNotFound)
}

func testUsers(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	u := &models.User{ID: id.New(), Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", DefaultCurrency: models.USD, CreatedAt: Base, UpdatedAt: Base}
	require.NoError(t, s.InsertUser(ctx, u))

	dup := *u
	dup.ID = id.New()
	assert.ErrorIs(t, s.InsertUser(ctx, &dup), store.ErrDuplicateKey)

	other := &models.User{ID: id.New(), Name: "Budi", Email: "budi@example.com", PasswordHash: "hash", DefaultCurrency: models.IDR, CreatedAt: Base, UpdatedAt: Base}
	require.NoError(t, s.InsertUser(ctx, other), "two users without a username must coexist")

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	u.Username = "ana_trades"
	u.IsPublic = true
	require.NoError(t, s.UpdateUser(ctx, u))
	got, err = s.GetUserByUsername(ctx, "ana_trades")
	require.NoError(t, err)
	assert.True(t, got.IsPublic)

	other.Username = "ana_trades"
	assert.ErrorIs(t, s.UpdateUser(ctx, other), store.ErrDuplicateKey)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testLedger(t *testing.T, s store.DataStore) {
	ctx := context.Background()
	dep := &models.BalanceTransaction{
		ID: id.New(), UserID: "u1", PlatformID: "p1", Type: models.TxDeposit,
		Amount: decimal.RequireFromString("1500.25"), Currency: models.USD, Date: Base, CreatedAt: Base,
	}
	xfer := &models.BalanceTransaction{
		ID: id.New(), UserID: "u1", PlatformID: "p1", ToPlatformID: "p2", Type: models.TxTransfer,
		Amount: decimal.RequireFromString("250"), Currency: models.USD, Date: Base.Add(time.Hour), CreatedAt: Base,
	}
	require.NoError(t, s.InsertTransaction(ctx, dep))
	require.NoError(t, s.InsertTransaction(ctx, xfer))

	list, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, xfer.ID, list[0].ID)
	assert.Equal(t, "p2", list[0].ToPlatformID)
	assert.True(t, dep.Amount.Equal(list[1].Amount))
	assert.Empty(t, list[1].ToPlatformID)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u2", dep.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteTransaction(ctx, "u1", dep.ID))

	list, err = s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
