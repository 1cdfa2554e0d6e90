package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"trading-journal/internal/cli"
	"trading-journal/internal/config"
	"trading-journal/internal/store"
	"trading-journal/internal/store/memory"
	"trading-journal/internal/store/postgres"
)

// openStore opens the backend named by cfg.Storage.Driver.
func openStore(ctx context.Context, cfg *config.Config) (store.DataStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Storage.PostgresDSN)
	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// bootstrap opens storage and wires the services. Every store it opens is
// also tracked in closers so main can release it after a failed command.
func bootstrap(closers *[]func() error) cli.Bootstrap {
	return func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*cli.Services, func() error, error) {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		closed := false
		closeStore := func() error {
			if closed {
				return nil
			}
			closed = true
			return st.Close()
		}
		*closers = append(*closers, closeStore)

		logger.Debug().
			Str("driver", cfg.Storage.Driver).
			Str("timezone", cfg.Journal.Timezone).
			Msg("Wiring services")

		svc, err := cli.NewServices(st, cfg, logger, prometheus.NewRegistry())
		if err != nil {
			_ = closeStore()
			return nil, nil, err
		}
		return svc, closeStore, nil
	}
}
