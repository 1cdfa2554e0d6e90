package journal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/observability"
	"trading-journal/internal/store"
	"trading-journal/pkg/id"
)

// PlatformLookup resolves a platform reference for its owner.
type PlatformLookup interface {
	GetPlatform(ctx context.Context, userID, platformID string) (*models.Platform, error)
}

// Recomputer rebuilds the calendar aggregate for one day.
type Recomputer interface {
	Recompute(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error)
}

// OpenRequest holds the fields accepted when journaling a new trade.
type OpenRequest struct {
	PlatformID  string             `json:"platformId"`
	JournalType models.JournalType `json:"journalType,omitempty"`
	TradeType   models.TradeType   `json:"tradeType,omitempty"`
	Direction   models.Direction   `json:"direction"`
	Currency    models.Currency    `json:"currency,omitempty"`
	Symbol      string             `json:"symbol"`
	Entry       float64            `json:"entry"`
	Size        float64            `json:"size"`
	Leverage    *float64           `json:"leverage,omitempty"`
	Fee         float64            `json:"fee,omitempty"`
	TP1         *float64           `json:"tp1,omitempty"`
	TP2         *float64           `json:"tp2,omitempty"`
	TP3         *float64           `json:"tp3,omitempty"`
	TP4         *float64           `json:"tp4,omitempty"`
	TP5         *float64           `json:"tp5,omitempty"`
	StopLoss    *float64           `json:"stopLoss,omitempty"`
	EntryDate   time.Time          `json:"entryDate"`
	Notes       string             `json:"notes,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
}

// CloseRequest holds the exit of a running trade. A nil ExitDate means now.
type CloseRequest struct {
	ExitPrice float64    `json:"exit"`
	ExitDate  *time.Time `json:"exitDate,omitempty"`
}

// CloseResult reports the outcome of a close.
type CloseResult struct {
	Trade         *models.Trade        `json:"trade"`
	Status        models.TradeStatus   `json:"status"`
	PnL           float64              `json:"pnl"`
	PnLPercentage float64              `json:"pnlPercentage"`
	Summary       *models.DailySummary `json:"summary,omitempty"`
}

// ListFilter narrows List results.
type ListFilter struct {
	JournalType models.JournalType
	TradeType   models.TradeType
	Status      models.TradeStatus
	Symbol      string
	Limit       int
}

// Manager owns the running → closed state machine.
type Manager struct {
	trades    store.TradeStore
	platforms PlatformLookup
	daily     Recomputer
	now       func() time.Time
	newID     func() string
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for default exit dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides trade id generation.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithMetrics records lifecycle events on metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a lifecycle manager.
func NewManager(trades store.TradeStore, platforms PlatformLookup, daily Recomputer, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		trades:    trades,
		platforms: platforms,
		daily:     daily,
		now:       time.Now,
		newID:     id.New,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open validates req and journals a running trade for userID. It never
// touches the daily aggregate.
func (m *Manager) Open(ctx context.Context, userID string, req OpenRequest) (*models.Trade, error) {
	if err := validateOpen(&req); err != nil {
		return nil, err
	}

	platform, err := m.platforms.GetPlatform(ctx, userID, req.PlatformID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewValidationError("platformId", req.PlatformID, "unknown platform")
		}
		return nil, fmt.Errorf("failed to look up platform: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = platform.Currency
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}

	now := m.now()
	trade := &models.Trade{
		ID:          m.newID(),
		UserID:      userID,
		PlatformID:  platform.ID,
		JournalType: req.JournalType,
		TradeType:   req.TradeType,
		Direction:   req.Direction,
		Currency:    currency,
		Symbol:      req.Symbol,
		Entry:       req.Entry,
		Size:        req.Size,
		Leverage:    req.Leverage,
		Fee:         req.Fee,
		TP1:         req.TP1,
		TP2:         req.TP2,
		TP3:         req.TP3,
		TP4:         req.TP4,
		TP5:         req.TP5,
		StopLoss:    req.StopLoss,
		Status:      models.StatusRunning,
		EntryDate:   req.EntryDate,
		Notes:       req.Notes,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.trades.InsertTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}

	logging.LogTradeOpened(logging.WithUser(m.logger, userID), trade.ID, trade.Symbol, string(trade.Direction), trade.Entry, trade.Size)
	m.metrics.RecordTradeOpened(string(trade.JournalType))
	return trade, nil
}

func validateOpen(req *OpenRequest) error {
	req.PlatformID = strings.TrimSpace(req.PlatformID)
	req.Symbol = strings.TrimSpace(req.Symbol)

	if req.JournalType == "" {
		req.JournalType = models.JournalCrypto
	}
	if req.TradeType == "" {
		req.TradeType = models.TradeSpot
	}

	switch {
	case req.PlatformID == "":
		return apperrors.NewValidationError("platformId", req.PlatformID, "is required")
	case req.Symbol == "":
		return apperrors.NewValidationError("symbol", req.Symbol, "is required")
	case !req.JournalType.Valid():
		return apperrors.NewValidationError("journalType", req.JournalType, "must be crypto or stock")
	case !req.TradeType.Valid():
		return apperrors.NewValidationError("tradeType", req.TradeType, "must be spot or futures")
	case !req.Direction.Valid():
		return apperrors.NewValidationError("direction", req.Direction, "must be long or short")
	case !isPositive(req.Entry):
		return apperrors.NewValidationError("entry", req.Entry, "must be greater than zero")
	case !isPositive(req.Size):
		return apperrors.NewValidationError("size", req.Size, "must be greater than zero")
	case req.Fee < 0 || math.IsNaN(req.Fee):
		return apperrors.NewValidationError("fee", req.Fee, "must not be negative")
	case req.EntryDate.IsZero():
		return apperrors.NewValidationError("entryDate", req.EntryDate, "is required")
	}

	if req.Leverage != nil {
		if req.TradeType != models.TradeFutures {
			return apperrors.NewValidationError("leverage", *req.Leverage, "only futures trades take leverage")
		}
		if !isPositive(*req.Leverage) {
			return apperrors.NewValidationError("leverage", *req.Leverage, "must be greater than zero")
		}
	}
	return nil
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Close settles a running trade, classifies the exit and recomputes the
// calendar day it exited on. The write is conditional on the trade still
// running, so of two concurrent closes exactly one succeeds and the other
// fails with an InvalidStateError.
func (m *Manager) Close(ctx context.Context, userID, tradeID string, req CloseRequest) (*CloseResult, error) {
	logger := logging.WithTrade(logging.WithUser(m.logger, userID), tradeID)

	trade, err := m.Get(ctx, userID, tradeID)
	if err != nil {
		m.metrics.RecordCloseError("not_found")
		return nil, err
	}
	if trade.IsClosed() {
		m.metrics.RecordCloseError("already_closed")
		return nil, apperrors.NewInvalidStateError("trade", tradeID, string(trade.Status), "close")
	}
	if !isPositive(req.ExitPrice) {
		m.metrics.RecordCloseError("validation")
		return nil, apperrors.NewValidationError("exit", req.ExitPrice, "must be greater than zero")
	}

	result, err := CalculatePnL(trade.Entry, req.ExitPrice, trade.Size, trade.Direction, trade.Fee)
	if err != nil {
		m.metrics.RecordCloseError("validation")
		return nil, err
	}
	status := ClassifyExit(trade.Entry, req.ExitPrice, trade.Direction, LadderOf(trade))

	now := m.now()
	exitDate := now
	if req.ExitDate != nil && !req.ExitDate.IsZero() {
		exitDate = *req.ExitDate
	}

	fields := models.TradeClose{
		ExitPrice:     req.ExitPrice,
		ExitDate:      exitDate,
		PnL:           result.PnL,
		PnLPercentage: result.PnLPercentage,
		Status:        status,
		UpdatedAt:     now,
	}
	if err := m.trades.CloseTrade(ctx, userID, tradeID, fields); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			m.metrics.RecordCloseError("already_closed")
			return nil, apperrors.NewInvalidStateError("trade", tradeID, "closed", "close")
		case errors.Is(err, store.ErrNotFound):
			m.metrics.RecordCloseError("not_found")
			return nil, apperrors.NewNotFoundError("trade", tradeID)
		}
		m.metrics.RecordCloseError("store")
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}
	fields.Apply(trade)

	logging.LogTradeClosed(logger, tradeID, trade.Symbol, string(status), req.ExitPrice, result.PnL)
	m.metrics.RecordTradeClosed(string(trade.JournalType), string(status))

	out := &CloseResult{
		Trade:         trade,
		Status:        status,
		PnL:           result.PnL,
		PnLPercentage: result.PnLPercentage,
	}

	// The close is already durable; a failed recompute leaves the day stale
	// until the next trade on it settles.
	summary, err := m.daily.Recompute(ctx, userID, exitDate, trade.JournalType)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to recompute daily summary")
		return out, nil
	}
	out.Summary = summary
	return out, nil
}

// Get returns one trade owned by userID.
func (m *Manager) Get(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	trade, err := m.trades.GetTrade(ctx, userID, tradeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("trade", tradeID)
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

// List returns userID's trades, most recent entry first.
func (m *Manager) List(ctx context.Context, userID string, f ListFilter) ([]models.Trade, error) {
	trades, err := m.trades.ListTrades(ctx, store.TradeFilter{
		UserID:      userID,
		JournalType: f.JournalType,
		TradeType:   f.TradeType,
		Status:      f.Status,
		Symbol:      f.Symbol,
		Limit:       f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// Delete removes a trade. Deleting a closed trade recomputes the day it
// exited on so the calendar no longer counts it.
func (m *Manager) Delete(ctx context.Context, userID, tradeID string) error {
	trade, err := m.Get(ctx, userID, tradeID)
	if err != nil {
		return err
	}

	if err := m.trades.DeleteTrade(ctx, userID, tradeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFoundError("trade", tradeID)
		}
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	m.metrics.RecordTradeDeleted()

	if trade.IsClosed() && trade.ExitDate != nil {
		if _, err := m.daily.Recompute(ctx, userID, *trade.ExitDate, trade.JournalType); err != nil {
			return fmt.Errorf("trade deleted but daily summary is stale: %w", err)
		}
	}
	return nil
}
