package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/store/memory"
)

var t0 = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

type staticRates struct{ rates currency.Rates }

func (s staticRates) Rates(context.Context) currency.Snapshot {
	return currency.Snapshot{Base: models.USD, Rates: s.rates, Timestamp: t0, Source: currency.SourceFallback}
}

type fixture struct {
	store     *memory.Store
	platforms *Platforms
	ledger    *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()

	tick := t0
	clock := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	p := NewPlatforms(s, zerolog.Nop())
	p.now, p.newID = clock, newID
	l := NewLedger(s, s, staticRates{rates: currency.Rates{models.USD: 1, models.IDR: 16000}}, zerolog.Nop())
	l.now, l.newID = clock, newID
	return &fixture{store: s, platforms: p, ledger: l}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlatforms_CreateValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    PlatformInput
		field string
	}{
		{"missing name", PlatformInput{Name: "  ", Type: models.PlatformExchange}, "name"},
		{"missing type", PlatformInput{Name: "Binance"}, "type"},
		{"bad type", PlatformInput{Name: "Binance", Type: "bank"}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.platforms.Create(ctx, "u1", tt.in)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPlatforms_Lifecycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	binance, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: " Binance ", Type: models.PlatformExchange})
	require.NoError(t, err)
	assert.Equal(t, "Binance", binance.Name)
	assert.Equal(t, models.USD, binance.Currency, "currency defaults to USD")

	ajaib, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "Ajaib", Type: models.PlatformBroker, Currency: "idr"})
	require.NoError(t, err)
	assert.Equal(t, models.IDR, ajaib.Currency)

	_, err = fx.platforms.Create(ctx, "u2", PlatformInput{Name: "Other", Type: models.PlatformWallet})
	require.NoError(t, err)

	list, err := fx.platforms.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ajaib.ID, list[0].ID, "newest first")

	name := "Binance Futures"
	updated, err := fx.platforms.Update(ctx, "u1", binance.ID, PlatformUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, models.PlatformExchange, updated.Type, "unset fields are kept")

	_, err = fx.platforms.Update(ctx, "u2", binance.ID, PlatformUpdate{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, fx.platforms.Delete(ctx, "u1", binance.ID))
	assert.ErrorIs(t, fx.platforms.Delete(ctx, "u1", binance.ID), apperrors.ErrNotFound)

	_, err = fx.platforms.Get(ctx, "u1", binance.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLedger_RecordValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	p, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "Binance", Type: models.PlatformExchange})
	require.NoError(t, err)
	foreign, err := fx.platforms.Create(ctx, "u2", PlatformInput{Name: "Other", Type: models.PlatformExchange})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    TransactionInput
		field string
	}{
		{"missing platform", TransactionInput{Type: models.TxDeposit, Amount: dec("1")}, "platformId"},
		{"bad type", TransactionInput{PlatformID: p.ID, Type: "gift", Amount: dec("1")}, "type"},
		{"zero amount", TransactionInput{PlatformID: p.ID, Type: models.TxDeposit, Amount: decimal.Zero}, "amount"},
		{"negative amount", TransactionInput{PlatformID: p.ID, Type: models.TxWithdraw, Amount: dec("-5")}, "amount"},
		{"transfer without destination", TransactionInput{PlatformID: p.ID, Type: models.TxTransfer, Amount: dec("1")}, "toPlatformId"},
		{"transfer to itself", TransactionInput{PlatformID: p.ID, ToPlatformID: p.ID, Type: models.TxTransfer, Amount: dec("1")}, "toPlatformId"},
		{"foreign platform", TransactionInput{PlatformID: foreign.ID, Type: models.TxDeposit, Amount: dec("1")}, "platformId"},
		{"foreign destination", TransactionInput{PlatformID: p.ID, ToPlatformID: foreign.ID, Type: models.TxTransfer, Amount: dec("1")}, "toPlatformId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.ledger.Record(ctx, "u1", tt.in)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLedger_BalancesAndNetWorth(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	binance, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "Binance", Type: models.PlatformExchange})
	require.NoError(t, err)
	ajaib, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "Ajaib", Type: models.PlatformBroker, Currency: models.IDR})
	require.NoError(t, err)

	record := func(in TransactionInput) *models.BalanceTransaction {
		t.Helper()
		tx, err := fx.ledger.Record(ctx, "u1", in)
		require.NoError(t, err)
		return tx
	}

	dep := record(TransactionInput{PlatformID: binance.ID, Type: models.TxDeposit, Amount: dec("1000")})
	assert.Equal(t, models.USD, dep.Currency, "defaults to the platform currency")
	record(TransactionInput{PlatformID: binance.ID, Type: models.TxWithdraw, Amount: dec("150.50")})
	// 100 USD moved to an IDR platform arrives as 1,600,000 IDR.
	record(TransactionInput{PlatformID: binance.ID, ToPlatformID: ajaib.ID, Type: models.TxTransfer, Amount: dec("100"), Currency: models.USD})
	record(TransactionInput{PlatformID: ajaib.ID, Type: models.TxDeposit, Amount: dec("800000")})

	balances, snap, err := fx.ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, currency.SourceFallback, snap.Source)
	require.Len(t, balances, 2)

	byID := map[string]models.PlatformBalance{}
	for _, b := range balances {
		byID[b.PlatformID] = b
	}
	assert.True(t, byID[binance.ID].Balance.Equal(dec("749.5")), byID[binance.ID].Balance.String())
	assert.Equal(t, models.USD, byID[binance.ID].Currency)
	assert.True(t, byID[ajaib.ID].Balance.Equal(dec("2400000")), byID[ajaib.ID].Balance.String())
	assert.Equal(t, "Ajaib", byID[ajaib.ID].PlatformName)

	nw, err := fx.ledger.NetWorth(ctx, "u1")
	require.NoError(t, err)
	// 749.5 + 2,400,000/16,000
	assert.True(t, nw.TotalUSD.Equal(dec("899.5")), nw.TotalUSD.String())
	assert.True(t, nw.TotalIDR.Equal(dec("14392000")), nw.TotalIDR.String())
	assert.Equal(t, 16000.0, nw.Rates[models.IDR])
}

func TestLedger_ListAndDelete(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "A", Type: models.PlatformWallet})
	require.NoError(t, err)
	b, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "B", Type: models.PlatformWallet})
	require.NoError(t, err)

	older := t0.AddDate(0, 0, -1)
	first, err := fx.ledger.Record(ctx, "u1", TransactionInput{PlatformID: a.ID, Type: models.TxDeposit, Amount: dec("10"), Date: &older})
	require.NoError(t, err)
	second, err := fx.ledger.Record(ctx, "u1", TransactionInput{PlatformID: a.ID, ToPlatformID: b.ID, Type: models.TxTransfer, Amount: dec("5")})
	require.NoError(t, err)

	views, err := fx.ledger.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID, "most recent first")
	assert.Equal(t, "A", views[0].PlatformName)
	assert.Equal(t, "B", views[0].ToPlatformName)
	assert.Equal(t, first.ID, views[1].ID)

	assert.ErrorIs(t, fx.ledger.Delete(ctx, "u2", first.ID), apperrors.ErrNotFound)
	require.NoError(t, fx.ledger.Delete(ctx, "u1", first.ID))

	views, err = fx.ledger.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestLedger_DeletedPlatformIgnored(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "A", Type: models.PlatformWallet})
	require.NoError(t, err)
	b, err := fx.platforms.Create(ctx, "u1", PlatformInput{Name: "B", Type: models.PlatformWallet})
	require.NoError(t, err)
	_, err = fx.ledger.Record(ctx, "u1", TransactionInput{PlatformID: a.ID, ToPlatformID: b.ID, Type: models.TxTransfer, Amount: dec("5")})
	require.NoError(t, err)
	require.NoError(t, fx.platforms.Delete(ctx, "u1", b.ID))

	balances, _, err := fx.ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(dec("-5")))
}
