package cli

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"trading-journal/internal/accounts"
	"trading-journal/internal/analytics"
	"trading-journal/internal/api"
	"trading-journal/internal/config"
	"trading-journal/internal/currency"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/internal/observability"
	"trading-journal/internal/portfolio"
	"trading-journal/internal/resilience"
	"trading-journal/internal/store"
)

// NewServices wires every domain service over st. Metrics register on reg.
func NewServices(st store.DataStore, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics(reg)
	conv := newConverter(cfg, logger, metrics)

	health := resilience.NewHealthMonitor(5 * time.Second)
	health.RegisterComponent("storage", resilience.ErrorCheck(func(ctx context.Context) error {
		_, err := st.ListPlatforms(ctx, "")
		return err
	}))
	health.RegisterComponent("currency-rates", resilience.BreakerCheck(conv.Breaker()))

	daily := journal.NewDailyUpdater(st, st, loc, logger, journal.WithDailyMetrics(metrics))
	platforms := portfolio.NewPlatforms(st, logger)

	return &Services{
		Services: api.Services{
			Accounts:  accounts.NewService(st, logger),
			Trades:    journal.NewManager(st, platforms, daily, logger, journal.WithMetrics(metrics)),
			Daily:     daily,
			Analytics: analytics.NewService(st, st, analytics.Options{Location: loc, TopSymbols: cfg.Journal.TopSymbols}, logger),
			Platforms: platforms,
			Ledger:    portfolio.NewLedger(st, st, conv, logger),
			Currency:  conv,
			Metrics:   metrics,
			Health:    health,
		},
		Users: st,
	}, nil
}

// newConverter builds the rate converter. Without an API key only the
// fallback table is served.
func newConverter(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *currency.Converter {
	fallback := make(currency.Rates)
	var quoted []models.Currency
	for code, rate := range cfg.FallbackRates() {
		c := models.Currency(code)
		fallback[c] = rate
		if c != currency.Base {
			quoted = append(quoted, c)
		}
	}
	sort.Slice(quoted, func(i, j int) bool { return quoted[i] < quoted[j] })

	var source currency.RateSource
	if cfg.Currency.APIKey != "" {
		source = currency.NewFreeCurrencyAPI(currency.APIConfig{
			BaseURL:    cfg.Currency.BaseURL,
			APIKey:     cfg.Currency.APIKey,
			Timeout:    cfg.Currency.Timeout,
			Currencies: quoted,
		})
	} else {
		logger.Debug().Msg("No currency API key configured, using fallback rates")
	}

	opts := []currency.ConverterOption{
		currency.WithFallbackRates(fallback),
		currency.WithMetrics(metrics),
	}
	if cfg.Currency.CacheTTL > 0 {
		opts = append(opts, currency.WithCacheTTL(cfg.Currency.CacheTTL))
	}
	return currency.NewConverter(source, logger, opts...)
}
