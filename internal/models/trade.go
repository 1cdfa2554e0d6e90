package models

import "time"

// Trade represents one journaled position.
//
// ExitPrice, ExitDate, PnL and PnLPercentage are either all nil (running) or
// all set (closed).
type Trade struct {
	ID          string      `json:"id" yaml:"id"`
	UserID      string      `json:"userId" yaml:"userId"`
	PlatformID  string      `json:"platformId" yaml:"platformId"`
	JournalType JournalType `json:"journalType" yaml:"journalType"`
	TradeType   TradeType   `json:"tradeType" yaml:"tradeType"`
	Direction   Direction   `json:"direction" yaml:"direction"`
	Currency    Currency    `json:"currency" yaml:"currency"`

	Symbol    string   `json:"symbol" yaml:"symbol"`
	Entry     float64  `json:"entry" yaml:"entry"`
	ExitPrice *float64 `json:"exit,omitempty" yaml:"exit,omitempty"`
	Size      float64  `json:"size" yaml:"size"`
	Leverage  *float64 `json:"leverage,omitempty" yaml:"leverage,omitempty"`
	Fee       float64  `json:"fee" yaml:"fee"`

	TP1      *float64 `json:"tp1,omitempty" yaml:"tp1,omitempty"`
	TP2      *float64 `json:"tp2,omitempty" yaml:"tp2,omitempty"`
	TP3      *float64 `json:"tp3,omitempty" yaml:"tp3,omitempty"`
	TP4      *float64 `json:"tp4,omitempty" yaml:"tp4,omitempty"`
	TP5      *float64 `json:"tp5,omitempty" yaml:"tp5,omitempty"`
	StopLoss *float64 `json:"stopLoss,omitempty" yaml:"stopLoss,omitempty"`

	Status        TradeStatus `json:"status" yaml:"status"`
	PnL           *float64    `json:"pnl,omitempty" yaml:"pnl,omitempty"`
	PnLPercentage *float64    `json:"pnlPercentage,omitempty" yaml:"pnlPercentage,omitempty"`

	EntryDate time.Time  `json:"entryDate" yaml:"entryDate"`
	ExitDate  *time.Time `json:"exitDate,omitempty" yaml:"exitDate,omitempty"`

	Notes string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// TakeProfits returns the tp1..tp5 ladder in order.
func (t *Trade) TakeProfits() [5]*float64 {
	return [5]*float64{t.TP1, t.TP2, t.TP3, t.TP4, t.TP5}
}

// SetTakeProfits assigns the ladder from a tp1..tp5 array.
func (t *Trade) SetTakeProfits(tps [5]*float64) {
	t.TP1, t.TP2, t.TP3, t.TP4, t.TP5 = tps[0], tps[1], tps[2], tps[3], tps[4]
}

// IsClosed reports whether the trade has left the running state.
func (t *Trade) IsClosed() bool {
	return t.Status.IsClosed()
}

// RealizedPnL returns the realized PnL, or 0 while the trade is running.
func (t *Trade) RealizedPnL() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// SettledAt returns the exit date, falling back to the entry date.
func (t *Trade) SettledAt() time.Time {
	if t.ExitDate != nil {
		return *t.ExitDate
	}
	return t.EntryDate
}

// CurrencyOrDefault returns the trade currency, defaulting to USD.
func (t *Trade) CurrencyOrDefault() Currency {
	if t.Currency == "" {
		return DefaultCurrency
	}
	return t.Currency
}

// TradeClose carries the fields written when a trade is closed.
type TradeClose struct {
	ExitPrice     float64
	ExitDate      time.Time
	PnL           float64
	PnLPercentage float64
	Status        TradeStatus
	UpdatedAt     time.Time
}

// Apply copies the close fields onto t.
func (c TradeClose) Apply(t *Trade) {
	exit, pnl, pct, at := c.ExitPrice, c.PnL, c.PnLPercentage, c.ExitDate
	t.ExitPrice = &exit
	t.ExitDate = &at
	t.PnL = &pnl
	t.PnLPercentage = &pct
	t.Status = c.Status
	t.UpdatedAt = c.UpdatedAt
}

// DailySummary aggregates the trades of one user that exited on one
// calendar day within one journal type.
type DailySummary struct {
	UserID        string      `json:"userId" yaml:"userId"`
	Date          time.Time   `json:"date" yaml:"date"`
	JournalType   JournalType `json:"journalType" yaml:"journalType"`
	TotalPnL      float64     `json:"totalPnl" yaml:"totalPnl"`
	TotalTrades   int         `json:"totalTrades" yaml:"totalTrades"`
	WinningTrades int         `json:"winningTrades" yaml:"winningTrades"`
	LosingTrades  int         `json:"losingTrades" yaml:"losingTrades"`
	UpdatedAt     time.Time   `json:"updatedAt" yaml:"updatedAt"`
}
