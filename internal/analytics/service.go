package analytics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

// TradeLister loads a user's trades.
type TradeLister interface {
	ListTrades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error)
}

// PlatformLister loads a user's platforms for display names.
type PlatformLister interface {
	ListPlatforms(ctx context.Context, userID string) ([]models.Platform, error)
}

// Service loads a journal and computes its report.
type Service struct {
	trades    TradeLister
	platforms PlatformLister
	opts      Options
	logger    zerolog.Logger
}

// NewService creates an analytics service.
func NewService(trades TradeLister, platforms PlatformLister, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		trades:    trades,
		platforms: platforms,
		opts:      opts,
		logger:    logging.WithOperation(logger, "analytics"),
	}
}

// Report computes the analytics for one journal of userID.
func (s *Service) Report(ctx context.Context, userID string, journalType models.JournalType) (*Report, error) {
	trades, err := s.trades.ListTrades(ctx, store.TradeFilter{UserID: userID, JournalType: journalType})
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	platforms, err := s.platforms.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load platforms: %w", err)
	}
	names := make(PlatformNames, len(platforms))
	for _, p := range platforms {
		names[p.ID] = p.Name
	}

	report := Compute(trades, names, s.opts)
	report.JournalType = journalType

	logger := logging.WithUser(s.logger, userID)
	logger.Debug().
		Str("journal_type", string(journalType)).
		Int("trades", len(trades)).
		Int("closed", report.TotalTrades).
		Msg("Analytics computed")
	return report, nil
}
