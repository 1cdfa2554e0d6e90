package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/observability"
	"trading-journal/internal/store"
)

// DefaultSummaryLimit is the number of days returned when no limit is given.
const DefaultSummaryLimit = 90

// DayKeyLayout formats a calendar day.
const DayKeyLayout = "2006-01-02"

// DayBounds returns the first and last millisecond of the calendar day that
// contains t in loc.
func DayBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// DailyUpdater maintains the per-day calendar aggregate.
type DailyUpdater struct {
	trades    store.TradeStore
	summaries store.SummaryStore
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// DailyOption configures a DailyUpdater.
type DailyOption func(*DailyUpdater)

// WithDailyClock overrides the clock used for UpdatedAt.
func WithDailyClock(now func() time.Time) DailyOption {
	return func(u *DailyUpdater) { u.now = now }
}

// WithDailyMetrics records recomputations on m.
func WithDailyMetrics(m *observability.Metrics) DailyOption {
	return func(u *DailyUpdater) { u.metrics = m }
}

// NewDailyUpdater creates an updater that groups days in loc.
func NewDailyUpdater(trades store.TradeStore, summaries store.SummaryStore, loc *time.Location, logger zerolog.Logger, opts ...DailyOption) *DailyUpdater {
	if loc == nil {
		loc = time.Local
	}
	u := &DailyUpdater{
		trades:    trades,
		summaries: summaries,
		loc:       loc,
		now:       time.Now,
		logger:    logging.WithOperation(logger, "daily_summary"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Location returns the timezone days are grouped in.
func (u *DailyUpdater) Location() *time.Location {
	return u.loc
}

// Recompute rebuilds the summary for the day containing date from every
// trade of userID and journalType that exited within it, then upserts it.
// Running it again without intervening trade changes yields the same row.
func (u *DailyUpdater) Recompute(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error) {
	summary, err := u.recompute(ctx, userID, date, journalType)
	u.metrics.RecordSummaryRecompute(err)
	return summary, err
}

func (u *DailyUpdater) recompute(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error) {
	start, end := DayBounds(date, u.loc)

	trades, err := u.trades.ListTrades(ctx, store.TradeFilter{
		UserID:      userID,
		JournalType: journalType,
		ExitFrom:    start,
		ExitTo:      end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for %s: %w", start.Format(DayKeyLayout), err)
	}

	summary := &models.DailySummary{
		UserID:      userID,
		Date:        start,
		JournalType: journalType,
		UpdatedAt:   u.now(),
	}
	for i := range trades {
		pnl := trades[i].RealizedPnL()
		summary.TotalPnL += pnl
		summary.TotalTrades++
		switch {
		case pnl > 0:
			summary.WinningTrades++
		case pnl < 0:
			summary.LosingTrades++
		}
	}

	if err := u.summaries.UpsertDailySummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary for %s: %w", start.Format(DayKeyLayout), err)
	}

	logging.LogSummaryUpdated(logging.WithUser(u.logger, userID), start.Format(DayKeyLayout), string(journalType), summary.TotalPnL, summary.TotalTrades)
	return summary, nil
}

// List returns the most recent summaries first. A non-positive limit means
// DefaultSummaryLimit.
func (u *DailyUpdater) List(ctx context.Context, userID string, journalType models.JournalType, limit int) ([]models.DailySummary, error) {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	summaries, err := u.summaries.ListDailySummaries(ctx, store.SummaryFilter{
		UserID:      userID,
		JournalType: journalType,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}
	for i := range summaries {
		summaries[i].Date = summaries[i].Date.In(u.loc)
	}
	return summaries, nil
}
