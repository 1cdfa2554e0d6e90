// Package analytics derives the read-side performance report from a user's
// trades. Nothing here is persisted; every report is computed from scratch.
package analytics

import "trading-journal/internal/models"

// DefaultTopSymbols caps the top symbols table.
const DefaultTopSymbols = 10

// UnknownPlatform labels trades whose platform cannot be resolved.
const UnknownPlatform = "Unknown"

// MonthKeyLayout formats a calendar month.
const MonthKeyLayout = "2006-01"

// Report is the full analytics view over one journal.
type Report struct {
	JournalType models.JournalType `json:"journalType,omitempty" yaml:"journalType,omitempty"`

	TotalTrades     int     `json:"totalTrades" yaml:"totalTrades"`
	WinningTrades   int     `json:"winningTrades" yaml:"winningTrades"`
	LosingTrades    int     `json:"losingTrades" yaml:"losingTrades"`
	BreakEvenTrades int     `json:"breakEvenTrades" yaml:"breakEvenTrades"`
	WinRate         float64 `json:"winRate" yaml:"winRate"`

	PnLByCurrency *OrderedMap[models.Currency, CurrencyStats] `json:"pnlByCurrency" yaml:"pnlByCurrency"`

	SpotStats    Breakdown `json:"spotStats" yaml:"spotStats"`
	FuturesStats Breakdown `json:"futuresStats" yaml:"futuresStats"`
	LongStats    Breakdown `json:"longStats" yaml:"longStats"`
	ShortStats   Breakdown `json:"shortStats" yaml:"shortStats"`

	StatusBreakdown *OrderedMap[models.TradeStatus, int] `json:"statusBreakdown" yaml:"statusBreakdown"`

	CurrentStreak     Streak `json:"currentStreak" yaml:"currentStreak"`
	LongestWinStreak  int    `json:"longestWinStreak" yaml:"longestWinStreak"`
	LongestLossStreak int    `json:"longestLossStreak" yaml:"longestLossStreak"`

	TradingDays     int         `json:"tradingDays" yaml:"tradingDays"`
	AvgTradesPerDay float64     `json:"avgTradesPerDay" yaml:"avgTradesPerDay"`
	BestDay         *DayExtreme `json:"bestDay" yaml:"bestDay"`
	WorstDay        *DayExtreme `json:"worstDay" yaml:"worstDay"`

	TopSymbols    []SymbolStats   `json:"topSymbols" yaml:"topSymbols"`
	PlatformStats []PlatformStats `json:"platformStats" yaml:"platformStats"`

	AvgRiskRewardRatio float64 `json:"avgRiskRewardRatio" yaml:"avgRiskRewardRatio"`
	AvgHoldingHours    float64 `json:"avgHoldingTime" yaml:"avgHoldingTime"`

	MonthlyStats []MonthlyStats `json:"monthlyStats" yaml:"monthlyStats"`
}

// CurrencyStats is the PnL table for trades settled in one currency.
type CurrencyStats struct {
	TotalPnL     float64 `json:"totalPnl" yaml:"totalPnl"`
	TotalProfit  float64 `json:"totalProfit" yaml:"totalProfit"`
	TotalLoss    float64 `json:"totalLoss" yaml:"totalLoss"`
	AvgWin       float64 `json:"avgWin" yaml:"avgWin"`
	AvgLoss      float64 `json:"avgLoss" yaml:"avgLoss"`
	LargestWin   float64 `json:"largestWin" yaml:"largestWin"`
	LargestLoss  float64 `json:"largestLoss" yaml:"largestLoss"`
	ProfitFactor Ratio   `json:"profitFactor" yaml:"profitFactor"`
	Expectancy   float64 `json:"expectancy" yaml:"expectancy"`

	trades int
	wins   int
	losses int
}

// Breakdown counts a slice of trades. PnL is summed across currencies.
type Breakdown struct {
	Trades  int     `json:"trades" yaml:"trades"`
	Wins    int     `json:"wins" yaml:"wins"`
	WinRate float64 `json:"winRate" yaml:"winRate"`
	PnL     float64 `json:"pnl" yaml:"pnl"`
}

// StreakType is the outcome a streak is made of.
type StreakType string

const (
	StreakWin  StreakType = "win"
	StreakLoss StreakType = "loss"
	StreakNone StreakType = "none"
)

// Streak is a run of consecutive same-outcome trades.
type Streak struct {
	Type  StreakType `json:"type" yaml:"type"`
	Count int        `json:"count" yaml:"count"`
}

// DayExtreme is the best or worst calendar day.
type DayExtreme struct {
	Date     string          `json:"date" yaml:"date"`
	PnL      float64         `json:"pnl" yaml:"pnl"`
	Currency models.Currency `json:"currency" yaml:"currency"`
}

// SymbolStats summarizes one symbol.
type SymbolStats struct {
	Symbol   string          `json:"symbol" yaml:"symbol"`
	Trades   int             `json:"trades" yaml:"trades"`
	WinRate  float64         `json:"winRate" yaml:"winRate"`
	PnL      float64         `json:"pnl" yaml:"pnl"`
	Currency models.Currency `json:"currency" yaml:"currency"`
}

// PlatformStats summarizes one platform by display name.
type PlatformStats struct {
	Platform string          `json:"platform" yaml:"platform"`
	Trades   int             `json:"trades" yaml:"trades"`
	WinRate  float64         `json:"winRate" yaml:"winRate"`
	PnL      float64         `json:"pnl" yaml:"pnl"`
	Currency models.Currency `json:"currency" yaml:"currency"`
}

// MonthlyStats summarizes one calendar month.
type MonthlyStats struct {
	Month    string          `json:"month" yaml:"month"`
	Trades   int             `json:"trades" yaml:"trades"`
	WinRate  float64         `json:"winRate" yaml:"winRate"`
	PnL      float64         `json:"pnl" yaml:"pnl"`
	Currency models.Currency `json:"currency" yaml:"currency"`
}
