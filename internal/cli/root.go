// Package cli provides the command-line interface for the trading journal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trading-journal/internal/api"
	"trading-journal/internal/config"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/logging"
	"trading-journal/internal/models"
	"trading-journal/internal/security"
	"trading-journal/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// commandTimeout bounds every non-server command.
const commandTimeout = 30 * time.Second

// Services is everything a command may call.
type Services struct {
	api.Services
	Users store.UserStore
}

// Bootstrap opens storage and builds the services for cfg. The returned
// func releases whatever was opened.
type Bootstrap func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Services, func() error, error)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	boot     Bootstrap
	services *Services
	closer   func() error
}

// NewRootCmd creates the root command for the CLI. A nil cfg is loaded from
// the --config directory before any command runs.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger, boot Bootstrap) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		boot:   boot,
	}

	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trading Journal - record trades, review performance, track balances",
		Long: `Trading Journal records crypto and stock trades, classifies every exit
against its take-profit ladder, and keeps a per-day calendar of results.

It also tracks balances across exchanges, brokers and wallets and converts
between USD and IDR using live exchange rates.

Use 'journal help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded
				app.Logger = logging.NewLoggerWithConfig(loaded.LogConfig())
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("user", "", "email of the account to act as (default: cli.user)")

	addCoreCommands(rootCmd, app)
	addUserCommands(rootCmd, app)
	addPlatformCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	addLedgerCommands(rootCmd, app)
	addCurrencyCommands(rootCmd, app)
	addServeCommand(rootCmd, app)

	return rootCmd
}

// Services opens storage on first use.
func (a *App) Services(ctx context.Context) (*Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	if a.boot == nil {
		return nil, errors.New("no storage configured")
	}
	svc, closer, err := a.boot(ctx, a.Config, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %s", a.Config.Storage.Driver, security.MaskSecrets(err.Error()))
	}
	a.services, a.closer = svc, closer
	a.Logger.Debug().Str("driver", a.Config.Storage.Driver).Msg("Storage initialized")
	return svc, nil
}

// Close releases storage opened by Services.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	closer := a.closer
	a.closer, a.services = nil, nil
	return closer()
}

// CurrentUser resolves the account named by --user or cli.user.
func (a *App) CurrentUser(ctx context.Context, cmd *cobra.Command) (*models.User, error) {
	email, _ := cmd.Flags().GetString("user")
	if email == "" {
		email = a.Config.CLI.User
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidationError("user", "", "set --user or cli.user in config.toml")
	}

	svc, err := a.Services(ctx)
	if err != nil {
		return nil, err
	}
	user, err := svc.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no account for %s, run 'journal user register' first", email)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, nil
}

// Location is the timezone trades are grouped into days by.
func (a *App) Location() *time.Location {
	loc, err := a.Config.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// JournalType reads --journal, falling back to the configured default.
func (a *App) JournalType(cmd *cobra.Command) (models.JournalType, error) {
	jt, _ := cmd.Flags().GetString("journal")
	if jt == "" {
		jt = a.Config.Journal.DefaultJournalType
	}
	journalType := models.JournalType(strings.ToLower(jt))
	if !journalType.Valid() {
		return "", apperrors.NewValidationError("journal", jt, "must be crypto or stock")
	}
	return journalType, nil
}

func addJournalFlag(cmd *cobra.Command) {
	cmd.Flags().String("journal", "", "journal type: crypto or stock (default: journal.default_journal_type)")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), commandTimeout)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trading Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			masked := *app.Config
			masked.Currency.APIKey = security.MaskCredential(masked.Currency.APIKey)
			masked.Storage.PostgresDSN = security.RedactDSN(masked.Storage.PostgresDSN)
			if output.IsJSON() {
				return output.JSON(masked)
			}
			showConfig(output, &masked)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.ConfigPath(app.Config.Dir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Storage")
	output.Printf("  Driver:          %s\n", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		output.Printf("  SQLite Path:     %s\n", cfg.Storage.SQLitePath)
	case config.DriverPostgres:
		output.Printf("  Postgres DSN:    %s\n", cfg.Storage.PostgresDSN)
	}
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Read Timeout:    %s\n", cfg.Server.ReadTimeout)
	output.Printf("  Write Timeout:   %s\n", cfg.Server.WriteTimeout)
	output.Println()

	output.Bold("Journal")
	output.Printf("  Timezone:        %s\n", cfg.Journal.Timezone)
	output.Printf("  Default Journal: %s\n", cfg.Journal.DefaultJournalType)
	output.Printf("  Summary Days:    %d\n", cfg.Journal.SummaryLimit)
	output.Printf("  Top Symbols:     %d\n", cfg.Journal.TopSymbols)
	output.Println()

	output.Bold("Currency")
	apiKey := "not set (fallback rates only)"
	if cfg.Currency.APIKey != "" {
		apiKey = cfg.Currency.APIKey
	}
	output.Printf("  API Key:         %s\n", apiKey)
	output.Printf("  Base URL:        %s\n", cfg.Currency.BaseURL)
	output.Printf("  Cache TTL:       %s\n", cfg.Currency.CacheTTL)
	rates := cfg.FallbackRates()
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		output.Printf("  Fallback %-7s %.4f\n", code+":", rates[code])
	}
	output.Println()

	output.Bold("CLI")
	user := cfg.CLI.User
	if user == "" {
		user = "(none)"
	}
	output.Printf("  User:            %s\n", user)
}
