package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/store"
	"trading-journal/pkg/id"
)

// RateProvider supplies current exchange rates.
type RateProvider interface {
	Rates(ctx context.Context) currency.Snapshot
}

// TransactionInput records a balance movement.
type TransactionInput struct {
	PlatformID   string                 `json:"platformId"`
	ToPlatformID string                 `json:"toPlatformId,omitempty"`
	Type         models.TransactionType `json:"type"`
	Amount       decimal.Decimal        `json:"amount"`
	Currency     models.Currency        `json:"currency"`
	Description  string                 `json:"description,omitempty"`
	Date         *time.Time             `json:"date,omitempty"`
}

// TransactionView is a transaction with its platform names resolved.
type TransactionView struct {
	models.BalanceTransaction
	PlatformName   string `json:"platformName" yaml:"platformName"`
	ToPlatformName string `json:"toPlatformName,omitempty" yaml:"toPlatformName,omitempty"`
}

// NetWorth is every platform balance plus totals in USD and IDR.
type NetWorth struct {
	TotalUSD    decimal.Decimal          `json:"totalUSD" yaml:"totalUSD"`
	TotalIDR    decimal.Decimal          `json:"totalIDR" yaml:"totalIDR"`
	Balances    []models.PlatformBalance `json:"balances" yaml:"balances"`
	Rates       currency.Rates           `json:"rates" yaml:"rates"`
	RatesSource string                   `json:"ratesSource" yaml:"ratesSource"`
}

// Ledger records deposits, withdrawals and transfers between platforms.
type Ledger struct {
	txs       store.LedgerStore
	platforms store.PlatformStore
	rates     RateProvider
	now       func() time.Time
	newID     func() string
	logger    zerolog.Logger
}

// NewLedger creates a ledger service.
func NewLedger(txs store.LedgerStore, platforms store.PlatformStore, rates RateProvider, logger zerolog.Logger) *Ledger {
	return &Ledger{
		txs:       txs,
		platforms: platforms,
		rates:     rates,
		now:       time.Now,
		newID:     id.New,
		logger:    logging.WithOperation(logger, "ledger"),
	}
}

// Record validates in and stores the transaction. Currency defaults to the
// source platform's currency and date to now.
func (l *Ledger) Record(ctx context.Context, userID string, in TransactionInput) (*models.BalanceTransaction, error) {
	in.PlatformID = strings.TrimSpace(in.PlatformID)
	in.ToPlatformID = strings.TrimSpace(in.ToPlatformID)

	switch {
	case in.PlatformID == "":
		return nil, apperrors.NewValidationError("platformId", in.PlatformID, "is required")
	case !in.Type.Valid():
		return nil, apperrors.NewValidationError("type", in.Type, "must be deposit, withdraw or transfer")
	case !in.Amount.IsPositive():
		return nil, apperrors.NewValidationError("amount", in.Amount.String(), "must be positive")
	}

	if in.Type == models.TxTransfer {
		if in.ToPlatformID == "" {
			return nil, apperrors.NewValidationError("toPlatformId", in.ToPlatformID, "is required for transfers")
		}
		if in.ToPlatformID == in.PlatformID {
			return nil, apperrors.NewValidationError("toPlatformId", in.ToPlatformID, "must differ from platformId")
		}
	} else {
		in.ToPlatformID = ""
	}

	from, err := l.ownedPlatform(ctx, userID, "platformId", in.PlatformID)
	if err != nil {
		return nil, err
	}
	if in.ToPlatformID != "" {
		if _, err := l.ownedPlatform(ctx, userID, "toPlatformId", in.ToPlatformID); err != nil {
			return nil, err
		}
	}

	cur := currency.Normalize(in.Currency)
	if cur == "" {
		cur = from.Currency
	}
	now := l.now()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}

	tx := &models.BalanceTransaction{
		ID:           l.newID(),
		UserID:       userID,
		PlatformID:   in.PlatformID,
		ToPlatformID: in.ToPlatformID,
		Type:         in.Type,
		Amount:       in.Amount,
		Currency:     cur,
		Description:  strings.TrimSpace(in.Description),
		Date:         date,
		CreatedAt:    now,
	}
	if err := l.txs.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger := logging.WithUser(l.logger, userID)
	logger.Info().
		Str("tx_id", tx.ID).
		Str("type", string(tx.Type)).
		Str("amount", tx.Amount.String()).
		Str("currency", string(tx.Currency)).
		Msg("Balance transaction recorded")
	return tx, nil
}

func (l *Ledger) ownedPlatform(ctx context.Context, userID, field, platformID string) (*models.Platform, error) {
	p, err := l.platforms.GetPlatform(ctx, userID, platformID)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewValidationError(field, platformID, "unknown platform")
		}
		return nil, fmt.Errorf("failed to look up platform: %w", err)
	}
	return p, nil
}

// List returns userID's transactions, most recent first, with platform names.
func (l *Ledger) List(ctx context.Context, userID string) ([]TransactionView, error) {
	txs, err := l.txs.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	platforms, err := l.platforms.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	names := make(map[string]string, len(platforms))
	for _, p := range platforms {
		names[p.ID] = p.Name
	}

	views := make([]TransactionView, len(txs))
	for i, tx := range txs {
		views[i] = TransactionView{
			BalanceTransaction: tx,
			PlatformName:       names[tx.PlatformID],
			ToPlatformName:     names[tx.ToPlatformID],
		}
	}
	return views, nil
}

// Delete removes a transaction.
func (l *Ledger) Delete(ctx context.Context, userID, txID string) error {
	if err := l.txs.DeleteTransaction(ctx, userID, txID); err != nil {
		return mapNotFound(err, "transaction", txID)
	}
	return nil
}

// Balances folds the ledger into one balance per platform, each in the
// platform's own currency. Transactions in another currency are converted
// at current rates; those touching deleted platforms are ignored.
func (l *Ledger) Balances(ctx context.Context, userID string) ([]models.PlatformBalance, currency.Snapshot, error) {
	snap := l.rates.Rates(ctx)

	platforms, err := l.platforms.ListPlatforms(ctx, userID)
	if err != nil {
		return nil, snap, fmt.Errorf("failed to list platforms: %w", err)
	}
	txs, err := l.txs.ListTransactions(ctx, userID)
	if err != nil {
		return nil, snap, fmt.Errorf("failed to list transactions: %w", err)
	}

	balances := make([]models.PlatformBalance, len(platforms))
	index := make(map[string]int, len(platforms))
	for i, p := range platforms {
		balances[i] = models.PlatformBalance{
			PlatformID:   p.ID,
			PlatformName: p.Name,
			Balance:      decimal.Zero,
			Currency:     p.Currency,
		}
		index[p.ID] = i
	}

	apply := func(platformID string, amount decimal.Decimal, cur models.Currency, sign int64) {
		i, ok := index[platformID]
		if !ok {
			return
		}
		b := &balances[i]
		delta := snap.Rates.ConvertDecimal(amount, cur, b.Currency).Mul(decimal.NewFromInt(sign))
		b.Balance = b.Balance.Add(delta)
	}

	for _, tx := range txs {
		switch tx.Type {
		case models.TxDeposit:
			apply(tx.PlatformID, tx.Amount, tx.Currency, 1)
		case models.TxWithdraw:
			apply(tx.PlatformID, tx.Amount, tx.Currency, -1)
		case models.TxTransfer:
			apply(tx.PlatformID, tx.Amount, tx.Currency, -1)
			apply(tx.ToPlatformID, tx.Amount, tx.Currency, 1)
		}
	}
	return balances, snap, nil
}

// NetWorth returns the balances and their totals in USD and IDR.
func (l *Ledger) NetWorth(ctx context.Context, userID string) (*NetWorth, error) {
	balances, snap, err := l.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}

	nw := &NetWorth{
		TotalUSD:    decimal.Zero,
		TotalIDR:    decimal.Zero,
		Balances:    balances,
		Rates:       snap.Rates,
		RatesSource: snap.Source,
	}
	for _, b := range balances {
		nw.TotalUSD = nw.TotalUSD.Add(snap.Rates.ConvertDecimal(b.Balance, b.Currency, models.USD))
		nw.TotalIDR = nw.TotalIDR.Add(snap.Rates.ConvertDecimal(b.Balance, b.Currency, models.IDR))
	}
	nw.TotalUSD = nw.TotalUSD.Round(2)
	nw.TotalIDR = nw.TotalIDR.Round(2)
	return nw, nil
}
