package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"FREECURRENCY_API_KEY",
		"JOURNAL_STORAGE_DRIVER",
		"JOURNAL_POSTGRES_DSN",
		"JOURNAL_SQLITE_PATH",
		"JOURNAL_ADDR",
		"JOURNAL_TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_CreatesTemplateOnFirstRun(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "crypto", cfg.Journal.DefaultJournalType)
	assert.Equal(t, 90, cfg.Journal.SummaryLimit)
	assert.Equal(t, 10, cfg.Journal.TopSymbols)
	assert.Equal(t, time.Hour, cfg.Currency.CacheTTL)
	assert.Equal(t, map[string]float64{"USD": 1, "IDR": 15800}, cfg.FallbackRates())
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoad_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
[storage]
driver = "memory"

[server]
addr = "127.0.0.1:9000"
write_timeout = "5s"

[journal]
timezone = "Asia/Jakarta"
default_journal_type = "stock"
top_symbols = 5

[currency]
cache_ttl = "30m"

[currency.fallback_rates]
USD = 1.0
IDR = 16000.0

[cli]
user = "trader@example.com"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "stock", cfg.Journal.DefaultJournalType)
	assert.Equal(t, 5, cfg.Journal.TopSymbols)
	assert.Equal(t, 90, cfg.Journal.SummaryLimit)
	assert.Equal(t, 30*time.Minute, cfg.Currency.CacheTTL)
	assert.Equal(t, 16000.0, cfg.FallbackRates()["IDR"])
	assert.Equal(t, "trader@example.com", cfg.CLI.User)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("FREECURRENCY_API_KEY", "secret")
	t.Setenv("JOURNAL_STORAGE_DRIVER", "postgres")
	t.Setenv("JOURNAL_POSTGRES_DSN", "postgres://localhost/journal")
	t.Setenv("JOURNAL_ADDR", ":9999")
	t.Setenv("JOURNAL_TIMEZONE", "UTC")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Currency.APIKey)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/journal", cfg.Storage.PostgresDSN)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Journal.Timezone)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:  StorageConfig{Driver: DriverSQLite, SQLitePath: "journal.db"},
			Journal:  JournalConfig{Timezone: "UTC", DefaultJournalType: "crypto"},
			Currency: CurrencyConfig{FallbackRates: map[string]float64{"usd": 1}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, true},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, true},
		{"sqlite without path", func(c *Config) { c.Storage.SQLitePath = "" }, true},
		{"memory needs nothing", func(c *Config) { c.Storage = StorageConfig{Driver: DriverMemory} }, false},
		{"bad timezone", func(c *Config) { c.Journal.Timezone = "Mars/Olympus" }, true},
		{"bad journal type", func(c *Config) { c.Journal.DefaultJournalType = "forex" }, true},
		{"negative ttl", func(c *Config) { c.Currency.CacheTTL = -time.Second }, true},
		{"zero fallback rate", func(c *Config) { c.Currency.FallbackRates["idr"] = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
