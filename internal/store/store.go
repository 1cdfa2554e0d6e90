// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"trading-journal/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	TradeStore
	SummaryStore
	PlatformStore
	UserStore
	LedgerStore

	// Lifecycle
	Close() error
}

// TradeStore persists trades. Every read and write is scoped by owner.
type TradeStore interface {
	InsertTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	// CloseTrade writes the close fields only if the trade is still running.
	// It returns ErrNotFound when the trade does not exist for the owner and
	// ErrConflict when it exists but is already closed.
	CloseTrade(ctx context.Context, userID, tradeID string, close models.TradeClose) error
	DeleteTrade(ctx context.Context, userID, tradeID string) error
}

// SummaryStore persists per-day aggregates for the calendar.
type SummaryStore interface {
	// UpsertDailySummary replaces the row keyed by (user, date, journal type).
	UpsertDailySummary(ctx context.Context, summary *models.DailySummary) error
	GetDailySummary(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error)
	ListDailySummaries(ctx context.Context, filter SummaryFilter) ([]models.DailySummary, error)
}

// PlatformStore persists trading platforms.
type PlatformStore interface {
	InsertPlatform(ctx context.Context, platform *models.Platform) error
	GetPlatform(ctx context.Context, userID, platformID string) (*models.Platform, error)
	ListPlatforms(ctx context.Context, userID string) ([]models.Platform, error)
	UpdatePlatform(ctx context.Context, platform *models.Platform) error
	DeletePlatform(ctx context.Context, userID, platformID string) error
}

// UserStore persists accounts.
type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// LedgerStore persists balance transactions.
type LedgerStore interface {
	InsertTransaction(ctx context.Context, tx *models.BalanceTransaction) error
	ListTransactions(ctx context.Context, userID string) ([]models.BalanceTransaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error
}

// TradeFilter represents filters for querying trades. Results are sorted by
// entry date, most recent first.
type TradeFilter struct {
	UserID      string
	JournalType models.JournalType
	TradeType   models.TradeType
	Status      models.TradeStatus
	Symbol      string
	ClosedOnly  bool
	// ExitFrom and ExitTo bound the exit timestamp inclusively when set.
	ExitFrom time.Time
	ExitTo   time.Time
	Limit    int
}

// SummaryFilter represents filters for querying daily summaries. Results are
// sorted by date, most recent first.
type SummaryFilter struct {
	UserID      string
	JournalType models.JournalType
	Limit       int
}
