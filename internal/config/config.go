// Package config provides configuration management for the trading journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trading-journal/internal/logging"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Currency CurrencyConfig `mapstructure:"currency"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	CLI      CLIConfig      `mapstructure:"cli"`

	// Dir is the directory the config was loaded from.
	Dir string `mapstructure:"-"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // sqlite, postgres, memory
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// JournalConfig holds journal behaviour settings.
type JournalConfig struct {
	Timezone           string `mapstructure:"timezone"`
	DefaultJournalType string `mapstructure:"default_journal_type"` // crypto, stock
	SummaryLimit       int    `mapstructure:"summary_limit"`
	TopSymbols         int    `mapstructure:"top_symbols"`
}

// CurrencyConfig holds exchange rate settings.
type CurrencyConfig struct {
	APIKey        string             `mapstructure:"api_key"`
	BaseURL       string             `mapstructure:"base_url"`
	CacheTTL      time.Duration      `mapstructure:"cache_ttl"`
	Timeout       time.Duration      `mapstructure:"timeout"`
	FallbackRates map[string]float64 `mapstructure:"fallback_rates"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// CLIConfig holds command line defaults.
type CLIConfig struct {
	User string `mapstructure:"user"` // email the CLI acts as
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trading-journal"
	}
	return filepath.Join(home, ".config", "trading-journal")
}

// ConfigPath returns the path of config.toml inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from configDir. A commented template is written
// on first run and defaults apply to every key it leaves unset.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	cfg.Dir = configDir

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", filepath.Join(configDir, "journal.db"))
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("journal.timezone", "Local")
	v.SetDefault("journal.default_journal_type", "crypto")
	v.SetDefault("journal.summary_limit", 90)
	v.SetDefault("journal.top_symbols", 10)

	v.SetDefault("currency.api_key", "")
	v.SetDefault("currency.base_url", "https://api.freecurrencyapi.com")
	v.SetDefault("currency.cache_ttl", time.Hour)
	v.SetDefault("currency.timeout", 10*time.Second)
	v.SetDefault("currency.fallback_rates", map[string]float64{"usd": 1, "idr": 15800})

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)

	v.SetDefault("cli.user", "")
}

// applyEnvOverrides applies environment variable overrides. Callers load
// .env into the environment before Load.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FREECURRENCY_API_KEY"); v != "" {
		cfg.Currency.APIKey = v
	}

	// Storage
	if v := os.Getenv("JOURNAL_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("JOURNAL_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("JOURNAL_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("JOURNAL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JOURNAL_TIMEZONE"); v != "" {
		cfg.Journal.Timezone = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'sqlite', 'postgres' or 'memory')", c.Storage.Driver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if jt := c.Journal.DefaultJournalType; jt != "crypto" && jt != "stock" {
		return fmt.Errorf("invalid default_journal_type: %s (must be 'crypto' or 'stock')", jt)
	}
	if c.Journal.SummaryLimit < 0 {
		return fmt.Errorf("summary_limit must be non-negative")
	}
	if c.Journal.TopSymbols < 0 {
		return fmt.Errorf("top_symbols must be non-negative")
	}

	if c.Currency.CacheTTL < 0 {
		return fmt.Errorf("currency.cache_ttl must be non-negative")
	}
	for code, rate := range c.Currency.FallbackRates {
		if rate <= 0 {
			return fmt.Errorf("fallback rate for %s must be positive", strings.ToUpper(code))
		}
	}

	return nil
}

// Location resolves the journal timezone used to bucket trades into days.
func (c *Config) Location() (*time.Location, error) {
	switch c.Journal.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Journal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Journal.Timezone, err)
	}
	return loc, nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// FallbackRates returns the configured fallback rates keyed by upper-case code.
// Viper lower-cases map keys on load.
func (c *Config) FallbackRates() map[string]float64 {
	out := make(map[string]float64, len(c.Currency.FallbackRates))
	for code, rate := range c.Currency.FallbackRates {
		out[strings.ToUpper(code)] = rate
	}
	return out
}
