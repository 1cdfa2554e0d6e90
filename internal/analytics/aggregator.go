package analytics

import (
	"math"
	"sort"
	"time"

	"trading-journal/internal/models"
)

// DayKeyLayout formats a calendar day.
const DayKeyLayout = "2006-01-02"

// PlatformNames maps platform id to display name.
type PlatformNames map[string]string

// Name returns the display name for id, or UnknownPlatform.
func (p PlatformNames) Name(id string) string {
	if name, ok := p[id]; ok && name != "" {
		return name
	}
	return UnknownPlatform
}

// Options tune report computation.
type Options struct {
	// Location groups trades into calendar days and months. Defaults to time.Local.
	Location *time.Location
	// TopSymbols caps the symbol table. Defaults to DefaultTopSymbols.
	TopSymbols int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.TopSymbols <= 0 {
		o.TopSymbols = DefaultTopSymbols
	}
	return o
}

// groupAcc accumulates trade count, wins and PnL for one group key. The
// currency is taken from the first trade in the group.
type groupAcc struct {
	trades   int
	wins     int
	pnl      float64
	currency models.Currency
}

func (g *groupAcc) add(pnl float64) {
	g.trades++
	g.pnl += pnl
	if pnl > 0 {
		g.wins++
	}
}

func (g *groupAcc) winRate() float64 {
	return percent(g.wins, g.trades)
}

type dayAcc struct {
	pnl      float64
	currency models.Currency
}

// Compute builds the report from trades. Running trades are ignored; every
// other status counts as closed. trades is not modified.
func Compute(trades []models.Trade, platforms PlatformNames, opts Options) *Report {
	opts = opts.withDefaults()

	closed := make([]*models.Trade, 0, len(trades))
	for i := range trades {
		if trades[i].Status != models.StatusRunning {
			closed = append(closed, &trades[i])
		}
	}

	r := &Report{
		PnLByCurrency:   NewOrderedMap[models.Currency, CurrencyStats](),
		StatusBreakdown: NewOrderedMap[models.TradeStatus, int](),
		CurrentStreak:   Streak{Type: StreakNone},
		TopSymbols:      []SymbolStats{},
		PlatformStats:   []PlatformStats{},
		MonthlyStats:    []MonthlyStats{},
	}
	r.TotalTrades = len(closed)

	days := NewOrderedMap[string, dayAcc]()
	symbols := NewOrderedMap[string, groupAcc]()
	venues := NewOrderedMap[string, groupAcc]()
	months := NewOrderedMap[string, groupAcc]()

	var holdingHours float64
	var held int
	var rrTotal float64
	var rrCount int

	for _, t := range closed {
		pnl := t.RealizedPnL()
		currency := t.CurrencyOrDefault()

		switch {
		case pnl > 0:
			r.WinningTrades++
		case pnl < 0:
			r.LosingTrades++
		default:
			r.BreakEvenTrades++
		}

		cs := r.PnLByCurrency.Upsert(currency, func() CurrencyStats { return CurrencyStats{} })
		cs.addTrade(pnl)

		switch t.TradeType {
		case models.TradeSpot:
			r.SpotStats.add(pnl)
		case models.TradeFutures:
			r.FuturesStats.add(pnl)
		}
		switch t.Direction {
		case models.DirectionLong:
			r.LongStats.add(pnl)
		case models.DirectionShort:
			r.ShortStats.add(pnl)
		}

		*r.StatusBreakdown.Upsert(t.Status, func() int { return 0 })++

		settled := t.SettledAt().In(opts.Location)

		day := days.Upsert(settled.Format(DayKeyLayout), func() dayAcc { return dayAcc{} })
		day.pnl += pnl
		day.currency = currency

		newGroup := func() groupAcc { return groupAcc{currency: currency} }
		symbols.Upsert(t.Symbol, newGroup).add(pnl)
		venues.Upsert(platforms.Name(t.PlatformID), newGroup).add(pnl)
		months.Upsert(settled.Format(MonthKeyLayout), newGroup).add(pnl)

		if t.ExitDate != nil && !t.EntryDate.IsZero() {
			holdingHours += t.ExitDate.Sub(t.EntryDate).Hours()
			held++
		}

		if t.ExitPrice != nil && t.StopLoss != nil {
			risk := math.Abs(t.Entry - *t.StopLoss)
			if risk > 0 {
				rrTotal += math.Abs(*t.ExitPrice-t.Entry) / risk
				rrCount++
			}
		}
	}

	r.WinRate = percent(r.WinningTrades, r.TotalTrades)
	r.PnLByCurrency.Update(func(_ models.Currency, cs *CurrencyStats) { cs.finish() })
	for _, b := range []*Breakdown{&r.SpotStats, &r.FuturesStats, &r.LongStats, &r.ShortStats} {
		b.WinRate = percent(b.Wins, b.Trades)
	}

	r.CurrentStreak, r.LongestWinStreak, r.LongestLossStreak = streaks(closed)

	r.TradingDays = days.Len()
	if r.TradingDays > 0 {
		r.AvgTradesPerDay = float64(r.TotalTrades) / float64(r.TradingDays)
	}
	days.Each(func(date string, d dayAcc) {
		if r.BestDay == nil || d.pnl > r.BestDay.PnL {
			r.BestDay = &DayExtreme{Date: date, PnL: d.pnl, Currency: d.currency}
		}
		if r.WorstDay == nil || d.pnl < r.WorstDay.PnL {
			r.WorstDay = &DayExtreme{Date: date, PnL: d.pnl, Currency: d.currency}
		}
	})

	symbols.Each(func(symbol string, g groupAcc) {
		r.TopSymbols = append(r.TopSymbols, SymbolStats{Symbol: symbol, Trades: g.trades, WinRate: g.winRate(), PnL: g.pnl, Currency: g.currency})
	})
	sort.SliceStable(r.TopSymbols, func(i, j int) bool { return r.TopSymbols[i].PnL > r.TopSymbols[j].PnL })
	if len(r.TopSymbols) > opts.TopSymbols {
		r.TopSymbols = r.TopSymbols[:opts.TopSymbols]
	}

	venues.Each(func(name string, g groupAcc) {
		r.PlatformStats = append(r.PlatformStats, PlatformStats{Platform: name, Trades: g.trades, WinRate: g.winRate(), PnL: g.pnl, Currency: g.currency})
	})
	sort.SliceStable(r.PlatformStats, func(i, j int) bool { return r.PlatformStats[i].PnL > r.PlatformStats[j].PnL })

	months.Each(func(month string, g groupAcc) {
		r.MonthlyStats = append(r.MonthlyStats, MonthlyStats{Month: month, Trades: g.trades, WinRate: g.winRate(), PnL: g.pnl, Currency: g.currency})
	})
	sort.SliceStable(r.MonthlyStats, func(i, j int) bool { return r.MonthlyStats[i].Month > r.MonthlyStats[j].Month })

	if held > 0 {
		r.AvgHoldingHours = holdingHours / float64(held)
	}
	if rrCount > 0 {
		r.AvgRiskRewardRatio = rrTotal / float64(rrCount)
	}

	return r
}

func (b *Breakdown) add(pnl float64) {
	b.Trades++
	b.PnL += pnl
	if pnl > 0 {
		b.Wins++
	}
}

func (c *CurrencyStats) addTrade(pnl float64) {
	c.trades++
	c.TotalPnL += pnl
	switch {
	case pnl > 0:
		c.wins++
		c.TotalProfit += pnl
		if pnl > c.LargestWin {
			c.LargestWin = pnl
		}
	case pnl < 0:
		loss := math.Abs(pnl)
		c.losses++
		c.TotalLoss += loss
		if loss > c.LargestLoss {
			c.LargestLoss = loss
		}
	}
}

// finish derives the averages, profit factor and expectancy. Rates in the
// expectancy are fractions, not percentages.
func (c *CurrencyStats) finish() {
	if c.wins > 0 {
		c.AvgWin = c.TotalProfit / float64(c.wins)
	}
	if c.losses > 0 {
		c.AvgLoss = c.TotalLoss / float64(c.losses)
	}

	switch {
	case c.TotalLoss > 0:
		c.ProfitFactor = Ratio(c.TotalProfit / c.TotalLoss)
	case c.TotalProfit > 0:
		c.ProfitFactor = Ratio(math.Inf(1))
	default:
		c.ProfitFactor = 0
	}

	var winRate float64
	if c.trades > 0 {
		winRate = float64(c.wins) / float64(c.trades)
	}
	c.Expectancy = winRate*c.AvgWin - (1-winRate)*c.AvgLoss
}

// streaks walks closed trades from the most recent settlement backwards.
// Breakeven trades neither extend nor break a run.
func streaks(closed []*models.Trade) (current Streak, longestWin, longestLoss int) {
	sorted := make([]*models.Trade, len(closed))
	copy(sorted, closed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SettledAt().After(sorted[j].SettledAt())
	})

	current = Streak{Type: StreakNone}
	currentOpen := true
	var wins, losses int

	for _, t := range sorted {
		pnl := t.RealizedPnL()
		var outcome StreakType
		switch {
		case pnl > 0:
			outcome = StreakWin
			wins++
			losses = 0
		case pnl < 0:
			outcome = StreakLoss
			losses++
			wins = 0
		default:
			continue
		}

		longestWin = max(longestWin, wins)
		longestLoss = max(longestLoss, losses)

		if !currentOpen {
			continue
		}
		switch current.Type {
		case StreakNone:
			current = Streak{Type: outcome, Count: 1}
		case outcome:
			current.Count++
		default:
			currentOpen = false
		}
	}
	return current, longestWin, longestLoss
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
