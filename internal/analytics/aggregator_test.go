package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"trading-journal/internal/models"
)

var t0 = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

type tradeOpt func(*models.Trade)

func withCurrency(c models.Currency) tradeOpt {
	return func(t *models.Trade) { t.Currency = c }
}

func withSymbol(s string) tradeOpt {
	return func(t *models.Trade) { t.Symbol = s }
}

func withPlatform(id string) tradeOpt {
	return func(t *models.Trade) { t.PlatformID = id }
}

func withShort() tradeOpt {
	return func(t *models.Trade) { t.Direction = models.DirectionShort }
}

func withFutures() tradeOpt {
	return func(t *models.Trade) { t.TradeType = models.TradeFutures }
}

func withStatus(s models.TradeStatus) tradeOpt {
	return func(t *models.Trade) { t.Status = s }
}

// closed builds a closed long spot USD trade exiting at exitAt with pnl.
func closed(pnl float64, exitAt time.Time, opts ...tradeOpt) models.Trade {
	exit := 100 + pnl
	pct := pnl
	status := models.StatusProfit
	if pnl < 0 {
		status = models.StatusStopLoss
	}
	t := models.Trade{
		ID: fmt.Sprintf("t-%d-%v", exitAt.UnixNano(), pnl), UserID: "u1", PlatformID: "p1",
		JournalType: models.JournalCrypto, TradeType: models.TradeSpot, Direction: models.DirectionLong,
		Currency: models.USD, Symbol: "BTC", Entry: 100, Size: 1, ExitPrice: &exit, PnL: &pnl, PnLPercentage: &pct,
		Status: status, EntryDate: exitAt.Add(-2 * time.Hour), ExitDate: &exitAt,
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func running(entryAt time.Time) models.Trade {
	return models.Trade{ID: "running", UserID: "u1", PlatformID: "p1", JournalType: models.JournalCrypto,
		TradeType: models.TradeSpot, Direction: models.DirectionLong, Currency: models.USD, Symbol: "BTC",
		Entry: 100, Size: 1, Status: models.StatusRunning, EntryDate: entryAt}
}

func opts() Options { return Options{Location: time.UTC} }

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil, nil, opts())
	assert.Zero(t, r.TotalTrades)
	assert.Zero(t, r.WinRate)
	assert.Equal(t, Streak{Type: StreakNone}, r.CurrentStreak)
	assert.Nil(t, r.BestDay)
	assert.Nil(t, r.WorstDay)
	assert.Zero(t, r.AvgTradesPerDay)
	assert.Empty(t, r.TopSymbols)
	assert.Equal(t, 0, r.PnLByCurrency.Len())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pnlByCurrency":{}`)
	assert.Contains(t, string(data), `"topSymbols":[]`)
}

func TestCompute_CountsIgnoreRunning(t *testing.T) {
	trades := []models.Trade{
		closed(10, t0),
		closed(-5, t0.Add(time.Hour)),
		closed(0, t0.Add(2*time.Hour)),
		running(t0),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, 3, r.TotalTrades)
	assert.Equal(t, 1, r.WinningTrades)
	assert.Equal(t, 1, r.LosingTrades)
	assert.Equal(t, 1, r.BreakEvenTrades)
	assert.InDelta(t, 100.0/3, r.WinRate, 1e-9)
}

func TestCompute_StreakScenario(t *testing.T) {
	// Chronological +10, +5, -3: the most recent trade is the loss.
	trades := []models.Trade{
		closed(10, t0),
		closed(5, t0.Add(time.Hour)),
		closed(-3, t0.Add(2*time.Hour)),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, Streak{Type: StreakLoss, Count: 1}, r.CurrentStreak)
	assert.Equal(t, 2, r.LongestWinStreak)
	assert.Equal(t, 1, r.LongestLossStreak)
}

func TestCompute_StreakSkipsBreakeven(t *testing.T) {
	// Most recent first: 0, +1, 0, +2, -1, -1, -1, +4
	trades := []models.Trade{
		closed(4, t0),
		closed(-1, t0.Add(1*time.Hour)),
		closed(-1, t0.Add(2*time.Hour)),
		closed(-1, t0.Add(3*time.Hour)),
		closed(2, t0.Add(4*time.Hour)),
		closed(0, t0.Add(5*time.Hour)),
		closed(1, t0.Add(6*time.Hour)),
		closed(0, t0.Add(7*time.Hour)),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, Streak{Type: StreakWin, Count: 2}, r.CurrentStreak)
	assert.Equal(t, 2, r.LongestWinStreak)
	assert.Equal(t, 3, r.LongestLossStreak)
}

func TestCompute_StreakStopsAtFirstReversal(t *testing.T) {
	// Most recent first: +1, -1, +1. The current run is a single win.
	trades := []models.Trade{
		closed(1, t0),
		closed(-1, t0.Add(time.Hour)),
		closed(1, t0.Add(2*time.Hour)),
	}
	r := Compute(trades, nil, opts())
	assert.Equal(t, Streak{Type: StreakWin, Count: 1}, r.CurrentStreak)
}

func TestCompute_PerCurrency(t *testing.T) {
	trades := []models.Trade{
		closed(30, t0),
		closed(10, t0.Add(time.Hour)),
		closed(-20, t0.Add(2*time.Hour)),
		closed(0, t0.Add(3*time.Hour)),
		closed(50000, t0, withCurrency(models.IDR)),
		closed(0, t0, withCurrency("EUR")),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, []models.Currency{models.USD, models.IDR, "EUR"}, r.PnLByCurrency.Keys(), "first-seen order")

	usd, ok := r.PnLByCurrency.Get(models.USD)
	require.True(t, ok)
	assert.InDelta(t, 20.0, usd.TotalPnL, 1e-9)
	assert.InDelta(t, 40.0, usd.TotalProfit, 1e-9)
	assert.InDelta(t, 20.0, usd.TotalLoss, 1e-9)
	assert.InDelta(t, 20.0, usd.AvgWin, 1e-9)
	assert.InDelta(t, 20.0, usd.AvgLoss, 1e-9)
	assert.InDelta(t, 30.0, usd.LargestWin, 1e-9)
	assert.InDelta(t, 20.0, usd.LargestLoss, 1e-9)
	assert.InDelta(t, 2.0, float64(usd.ProfitFactor), 1e-9)
	// win rate 2/4, loss rate 1/2: 0.5*20 - 0.5*20
	assert.InDelta(t, 0.0, usd.Expectancy, 1e-9)

	idr, _ := r.PnLByCurrency.Get(models.IDR)
	assert.True(t, idr.ProfitFactor.IsInf(), "no losses and some profit")
	assert.InDelta(t, 50000.0, idr.Expectancy, 1e-9)

	eur, _ := r.PnLByCurrency.Get("EUR")
	assert.Equal(t, Ratio(0), eur.ProfitFactor, "no profit and no loss")

	data, err := json.Marshal(r.PnLByCurrency)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"USD":.*"IDR":.*"EUR":.*\}$`, string(data))
	assert.Contains(t, string(data), `"profitFactor":"Infinity"`)
}

func TestCompute_MissingCurrencyDefaultsToUSD(t *testing.T) {
	r := Compute([]models.Trade{closed(5, t0, withCurrency(""))}, nil, opts())
	_, ok := r.PnLByCurrency.Get(models.USD)
	assert.True(t, ok)
}

func TestCompute_CurrencyBlindBreakdowns(t *testing.T) {
	trades := []models.Trade{
		closed(10, t0),
		closed(15000, t0, withCurrency(models.IDR)),
		closed(-4, t0, withShort(), withFutures()),
	}
	r := Compute(trades, nil, opts())

	// USD and IDR amounts are summed as plain numbers.
	assert.Equal(t, Breakdown{Trades: 2, Wins: 2, WinRate: 100, PnL: 15010}, r.SpotStats)
	assert.Equal(t, Breakdown{Trades: 1, Wins: 0, WinRate: 0, PnL: -4}, r.FuturesStats)
	assert.Equal(t, Breakdown{Trades: 2, Wins: 2, WinRate: 100, PnL: 15010}, r.LongStats)
	assert.Equal(t, Breakdown{Trades: 1, Wins: 0, WinRate: 0, PnL: -4}, r.ShortStats)
}

func TestCompute_StatusBreakdown(t *testing.T) {
	trades := []models.Trade{
		closed(10, t0, withStatus(models.StatusTP2)),
		closed(-1, t0),
		closed(12, t0, withStatus(models.StatusTP2)),
		running(t0),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, []models.TradeStatus{models.StatusTP2, models.StatusStopLoss}, r.StatusBreakdown.Keys())
	n, _ := r.StatusBreakdown.Get(models.StatusTP2)
	assert.Equal(t, 2, n)
	_, ok := r.StatusBreakdown.Get(models.StatusRunning)
	assert.False(t, ok)
}

func TestCompute_Days(t *testing.T) {
	day1 := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	trades := []models.Trade{
		closed(10, day1),
		closed(-2, day1.Add(time.Hour), withCurrency(models.IDR)),
		closed(-30, day2),
		closed(5, day2.Add(time.Hour)),
	}
	r := Compute(trades, nil, opts())

	assert.Equal(t, 2, r.TradingDays)
	assert.InDelta(t, 2.0, r.AvgTradesPerDay, 1e-9)
	require.NotNil(t, r.BestDay)
	assert.Equal(t, DayExtreme{Date: "2024-04-01", PnL: 8, Currency: models.IDR}, *r.BestDay, "currency of the last trade seen that day")
	require.NotNil(t, r.WorstDay)
	assert.Equal(t, DayExtreme{Date: "2024-04-02", PnL: -25, Currency: models.USD}, *r.WorstDay)
}

func TestCompute_DaysUseLocation(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	// 20:00 UTC is 03:00 the next day in WIB.
	trades := []models.Trade{
		closed(1, time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)),
		closed(1, time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC)),
	}
	assert.Equal(t, 1, Compute(trades, nil, Options{Location: time.UTC}).TradingDays)
	assert.Equal(t, 2, Compute(trades, nil, Options{Location: wib}).TradingDays)
}

func TestCompute_TopSymbolsCapped(t *testing.T) {
	var trades []models.Trade
	for i := 0; i < 12; i++ {
		trades = append(trades, closed(float64(i), t0.Add(time.Duration(i)*time.Minute), withSymbol(fmt.Sprintf("S%02d", i))))
	}
	trades = append(trades, closed(-3, t0, withSymbol("S11")))
	r := Compute(trades, nil, opts())

	require.Len(t, r.TopSymbols, DefaultTopSymbols)
	assert.Equal(t, "S10", r.TopSymbols[0].Symbol)
	assert.Equal(t, "S09", r.TopSymbols[1].Symbol)
	for _, s := range r.TopSymbols {
		assert.NotEqual(t, "S00", s.Symbol)
	}

	var s11 *SymbolStats
	for i := range r.TopSymbols {
		if r.TopSymbols[i].Symbol == "S11" {
			s11 = &r.TopSymbols[i]
		}
	}
	require.NotNil(t, s11)
	assert.Equal(t, 2, s11.Trades)
	assert.InDelta(t, 50.0, s11.WinRate, 1e-9)
	assert.InDelta(t, 8.0, s11.PnL, 1e-9)
}

func TestCompute_PlatformStats(t *testing.T) {
	names := PlatformNames{"p1": "Binance", "p2": "Bybit"}
	var trades []models.Trade
	for i := 0; i < 12; i++ {
		trades = append(trades, closed(1, t0, withPlatform("p1")))
	}
	trades = append(trades,
		closed(100, t0, withPlatform("p2")),
		closed(-7, t0, withPlatform("deleted")),
		closed(2, t0, withPlatform("")),
	)
	r := Compute(trades, names, opts())

	require.Len(t, r.PlatformStats, 3, "uncapped, unknown ids share one bucket")
	assert.Equal(t, "Bybit", r.PlatformStats[0].Platform)
	assert.Equal(t, "Binance", r.PlatformStats[1].Platform)
	assert.Equal(t, 12, r.PlatformStats[1].Trades)
	assert.Equal(t, UnknownPlatform, r.PlatformStats[2].Platform)
	assert.InDelta(t, -5.0, r.PlatformStats[2].PnL, 1e-9)
}

func TestCompute_Monthly(t *testing.T) {
	trades := []models.Trade{
		closed(1, time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)),
		closed(2, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)),
		closed(-1, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)),
		closed(3, time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)),
	}
	r := Compute(trades, nil, opts())

	require.Len(t, r.MonthlyStats, 3)
	assert.Equal(t, "2024-02", r.MonthlyStats[0].Month)
	assert.Equal(t, 2, r.MonthlyStats[0].Trades)
	assert.InDelta(t, 5.0, r.MonthlyStats[0].PnL, 1e-9)
	assert.Equal(t, "2024-01", r.MonthlyStats[1].Month)
	assert.Equal(t, "2023-12", r.MonthlyStats[2].Month)
}

func TestCompute_HoldingAndRiskReward(t *testing.T) {
	// Held 2h, risk 10, reward 20.
	a := closed(20, t0)
	a.StopLoss = fp(90)
	// Held 4h, zero risk so excluded from the ratio.
	b := closed(-5, t0)
	b.EntryDate = t0.Add(-4 * time.Hour)
	b.StopLoss = fp(100)
	// Held 2h, no stop.
	c := closed(5, t0)

	r := Compute([]models.Trade{a, b, c}, nil, opts())

	assert.InDelta(t, (2.0+4.0+2.0)/3, r.AvgHoldingHours, 1e-9)
	assert.InDelta(t, 2.0, r.AvgRiskRewardRatio, 1e-9)
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	trades := []models.Trade{closed(1, t0.Add(time.Hour)), closed(2, t0)}
	first := trades[0].ID
	Compute(trades, nil, opts())
	assert.Equal(t, first, trades[0].ID)
}

func TestReport_YAML(t *testing.T) {
	trades := []models.Trade{closed(10, t0), closed(5, t0, withCurrency(models.IDR))}
	r := Compute(trades, PlatformNames{"p1": "Binance"}, opts())

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "pnlByCurrency:\n    USD:")
	assert.Contains(t, s, "profitFactor: .inf")
	assert.Less(t, indexOf(s, "USD:"), indexOf(s, "IDR:"))
}

func TestRatio_JSON(t *testing.T) {
	for _, tt := range []struct {
		in   Ratio
		want string
	}{
		{Ratio(math.Inf(1)), `"Infinity"`},
		{Ratio(math.Inf(-1)), `"-Infinity"`},
		{Ratio(1.5), `1.5`},
		{Ratio(0), `0`},
	} {
		data, err := json.Marshal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))

		var back Ratio
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, tt.in, back)
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
