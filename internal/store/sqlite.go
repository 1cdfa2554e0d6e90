// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"trading-journal/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
//
// Timestamps are stored as unix nanoseconds so range predicates compare
// integers instead of formatted strings.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ DataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		username TEXT UNIQUE,
		bio TEXT,
		avatar TEXT,
		default_currency TEXT NOT NULL DEFAULT 'USD',
		is_public INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Platforms (exchanges, brokers, wallets)
	CREATE TABLE IF NOT EXISTS platforms (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Journaled trades
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		journal_type TEXT NOT NULL,
		trade_type TEXT NOT NULL,
		direction TEXT NOT NULL,
		currency TEXT NOT NULL,
		symbol TEXT NOT NULL,
		entry REAL NOT NULL,
		exit_price REAL,
		size REAL NOT NULL,
		leverage REAL,
		fee REAL NOT NULL DEFAULT 0,
		tp1 REAL,
		tp2 REAL,
		tp3 REAL,
		tp4 REAL,
		tp5 REAL,
		stop_loss REAL,
		status TEXT NOT NULL DEFAULT 'running',
		pnl REAL,
		pnl_percentage REAL,
		entry_date INTEGER NOT NULL,
		exit_date INTEGER,
		notes TEXT,
		tags TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Calendar aggregates
	CREATE TABLE IF NOT EXISTS daily_summaries (
		user_id TEXT NOT NULL,
		date INTEGER NOT NULL,
		journal_type TEXT NOT NULL,
		total_pnl REAL NOT NULL,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, date, journal_type)
	);

	-- Deposits, withdrawals and transfers
	CREATE TABLE IF NOT EXISTS balance_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		to_platform_id TEXT,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT,
		date INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_trades_user_journal ON trades(user_id, journal_type);
	CREATE INDEX IF NOT EXISTS idx_trades_entry_date ON trades(entry_date);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_date ON trades(exit_date);
	CREATE INDEX IF NOT EXISTS idx_platforms_user ON platforms(user_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_user ON balance_transactions(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Trades Methods
// ============================================================================

const tradeColumns = `id, user_id, platform_id, journal_type, trade_type, direction, currency, symbol,
	entry, exit_price, size, leverage, fee, tp1, tp2, tp3, tp4, tp5, stop_loss,
	status, pnl, pnl_percentage, entry_date, exit_date, notes, tags, created_at, updated_at`

// InsertTrade saves a new trade.
func (s *SQLiteStore) InsertTrade(ctx context.Context, t *models.Trade) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.PlatformID, t.JournalType, t.TradeType, t.Direction, t.Currency, t.Symbol,
		t.Entry, nullFloat(t.ExitPrice), t.Size, nullFloat(t.Leverage), t.Fee,
		nullFloat(t.TP1), nullFloat(t.TP2), nullFloat(t.TP3), nullFloat(t.TP4), nullFloat(t.TP5), nullFloat(t.StopLoss),
		t.Status, nullFloat(t.PnL), nullFloat(t.PnLPercentage), t.EntryDate.UnixNano(), nullTime(t.ExitDate),
		t.Notes, string(tags), t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// GetTrade retrieves one trade owned by userID.
func (s *SQLiteStore) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = ? AND user_id = ?", tradeID, userID)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &t, nil
}

// ListTrades retrieves trades matching filter.
func (s *SQLiteStore) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE user_id = ?"
	args := []interface{}{filter.UserID}

	if filter.JournalType != "" {
		query += " AND journal_type = ?"
		args = append(args, filter.JournalType)
	}
	if filter.TradeType != "" {
		query += " AND trade_type = ?"
		args = append(args, filter.TradeType)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.ClosedOnly {
		query += " AND status != ? AND pnl IS NOT NULL"
		args = append(args, models.StatusRunning)
	}
	if !filter.ExitFrom.IsZero() {
		query += " AND exit_date >= ?"
		args = append(args, filter.ExitFrom.UnixNano())
	}
	if !filter.ExitTo.IsZero() {
		query += " AND exit_date <= ?"
		args = append(args, filter.ExitTo.UnixNano())
	}

	query += " ORDER BY entry_date DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// CloseTrade writes the exit fields guarded by status = 'running'.
func (s *SQLiteStore) CloseTrade(ctx context.Context, userID, tradeID string, c models.TradeClose) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, exit_date = ?, pnl = ?, pnl_percentage = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`, c.ExitPrice, c.ExitDate.UnixNano(), c.PnL, c.PnLPercentage, c.Status, c.UpdatedAt.UnixNano(),
		tradeID, userID, models.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to close trade: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM trades WHERE id = ? AND user_id = ?", tradeID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check trade: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// DeleteTrade removes a trade owned by userID.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	return s.deleteOwned(ctx, "trades", userID, tradeID)
}

// ============================================================================
// Daily Summary Methods
// ============================================================================

// UpsertDailySummary inserts or replaces the summary row.
func (s *SQLiteStore) UpsertDailySummary(ctx context.Context, d *models.DailySummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO daily_summaries
		(user_id, date, journal_type, total_pnl, total_trades, winning_trades, losing_trades, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.UserID, d.Date.UnixNano(), d.JournalType, d.TotalPnL, d.TotalTrades, d.WinningTrades, d.LosingTrades, d.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// GetDailySummary retrieves the summary for one day.
func (s *SQLiteStore) GetDailySummary(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, date, journal_type, total_pnl, total_trades, winning_trades, losing_trades, updated_at
		FROM daily_summaries WHERE user_id = ? AND date = ? AND journal_type = ?
	`, userID, date.UnixNano(), journalType)

	d, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return &d, nil
}

// ListDailySummaries retrieves summaries, most recent first.
func (s *SQLiteStore) ListDailySummaries(ctx context.Context, filter SummaryFilter) ([]models.DailySummary, error) {
	query := `SELECT user_id, date, journal_type, total_pnl, total_trades, winning_trades, losing_trades, updated_at
		FROM daily_summaries WHERE user_id = ?`
	args := []interface{}{filter.UserID}

	if filter.JournalType != "" {
		query += " AND journal_type = ?"
		args = append(args, filter.JournalType)
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySummary
	for rows.Next() {
		d, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		summaries = append(summaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily summaries: %w", err)
	}
	return summaries, nil
}

// ============================================================================
// Platform Methods
// ============================================================================

// InsertPlatform saves a new platform.
func (s *SQLiteStore) InsertPlatform(ctx context.Context, p *models.Platform) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platforms (id, user_id, name, type, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Name, p.Type, p.Currency, p.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert platform: %w", err)
	}
	return nil
}

// GetPlatform retrieves one platform owned by userID.
func (s *SQLiteStore) GetPlatform(ctx context.Context, userID, platformID string) (*models.Platform, error) {
	var p models.Platform
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, currency, created_at FROM platforms WHERE id = ? AND user_id = ?
	`, platformID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.Currency, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}
	p.CreatedAt = fromUnixNano(created)
	return &p, nil
}

// ListPlatforms retrieves a user's platforms, newest first.
func (s *SQLiteStore) ListPlatforms(ctx context.Context, userID string) ([]models.Platform, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, currency, created_at FROM platforms
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer rows.Close()

	var platforms []models.Platform
	for rows.Next() {
		var p models.Platform
		var created int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.Currency, &created); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		p.CreatedAt = fromUnixNano(created)
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platforms: %w", err)
	}
	return platforms, nil
}

// UpdatePlatform overwrites name, type and currency.
func (s *SQLiteStore) UpdatePlatform(ctx context.Context, p *models.Platform) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE platforms SET name = ?, type = ?, currency = ? WHERE id = ? AND user_id = ?
	`, p.Name, p.Type, p.Currency, p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update platform: %w", err)
	}
	return requireOneRow(res)
}

// DeletePlatform removes a platform owned by userID.
func (s *SQLiteStore) DeletePlatform(ctx context.Context, userID, platformID string) error {
	return s.deleteOwned(ctx, "platforms", userID, platformID)
}

// ============================================================================
// User Methods
// ============================================================================

const userColumns = `id, name, email, password_hash, username, bio, avatar, default_currency, is_public, created_at, updated_at`

// InsertUser saves a new account.
func (s *SQLiteStore) InsertUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.PasswordHash, nullString(u.Username), u.Bio, u.Avatar,
		u.DefaultCurrency, boolToInt(u.IsPublic), u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by id.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.getUserWhere(ctx, "id = ?", userID)
}

// GetUserByEmail retrieves an account by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

// GetUserByUsername retrieves an account by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

func (s *SQLiteStore) getUserWhere(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var u models.User
	var username, bio, avatar sql.NullString
	var isPublic int
	var created, updated int64

	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &username, &bio, &avatar,
		&u.DefaultCurrency, &isPublic, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Username = username.String
	u.Bio = bio.String
	u.Avatar = avatar.String
	u.IsPublic = isPublic == 1
	u.CreatedAt = fromUnixNano(created)
	u.UpdatedAt = fromUnixNano(updated)
	return &u, nil
}

// UpdateUser overwrites the mutable profile fields.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, username = ?, bio = ?, avatar = ?, default_currency = ?, is_public = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, nullString(u.Username), u.Bio, u.Avatar, u.DefaultCurrency, boolToInt(u.IsPublic), u.UpdatedAt.UnixNano(), u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireOneRow(res)
}

// ============================================================================
// Ledger Methods
// ============================================================================

// InsertTransaction saves a balance transaction.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, tx *models.BalanceTransaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_transactions
		(id, user_id, platform_id, to_platform_id, type, amount, currency, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, tx.PlatformID, nullString(tx.ToPlatformID), tx.Type, tx.Amount.String(),
		tx.Currency, tx.Description, tx.Date.UnixNano(), tx.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactions retrieves a user's transactions, most recent first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string) ([]models.BalanceTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, platform_id, to_platform_id, type, amount, currency, description, date, created_at
		FROM balance_transactions WHERE user_id = ? ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.BalanceTransaction
	for rows.Next() {
		var tx models.BalanceTransaction
		var to, desc sql.NullString
		var amount string
		var date, created int64
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.PlatformID, &to, &tx.Type, &amount, &tx.Currency, &desc, &date, &created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
		}
		tx.ToPlatformID = to.String
		tx.Description = desc.String
		tx.Date = fromUnixNano(date)
		tx.CreatedAt = fromUnixNano(created)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return s.deleteOwned(ctx, "balance_transactions", userID, txID)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *SQLiteStore) deleteOwned(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return requireOneRow(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (models.Trade, error) {
	var t models.Trade
	var exit, leverage, tp1, tp2, tp3, tp4, tp5, stop, pnl, pct sql.NullFloat64
	var exitDate sql.NullInt64
	var notes, tags sql.NullString
	var entryDate, created, updated int64

	err := row.Scan(&t.ID, &t.UserID, &t.PlatformID, &t.JournalType, &t.TradeType, &t.Direction, &t.Currency, &t.Symbol,
		&t.Entry, &exit, &t.Size, &leverage, &t.Fee, &tp1, &tp2, &tp3, &tp4, &tp5, &stop,
		&t.Status, &pnl, &pct, &entryDate, &exitDate, &notes, &tags, &created, &updated)
	if err != nil {
		return t, err
	}

	t.ExitPrice = floatPtr(exit)
	t.Leverage = floatPtr(leverage)
	t.SetTakeProfits([5]*float64{floatPtr(tp1), floatPtr(tp2), floatPtr(tp3), floatPtr(tp4), floatPtr(tp5)})
	t.StopLoss = floatPtr(stop)
	t.PnL = floatPtr(pnl)
	t.PnLPercentage = floatPtr(pct)
	t.EntryDate = fromUnixNano(entryDate)
	if exitDate.Valid {
		at := fromUnixNano(exitDate.Int64)
		t.ExitDate = &at
	}
	t.Notes = notes.String
	if tags.Valid && tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return t, fmt.Errorf("decode tags: %w", err)
		}
	}
	t.CreatedAt = fromUnixNano(created)
	t.UpdatedAt = fromUnixNano(updated)
	return t, nil
}

func scanSummary(row rowScanner) (models.DailySummary, error) {
	var d models.DailySummary
	var date, updated int64
	if err := row.Scan(&d.UserID, &date, &d.JournalType, &d.TotalPnL, &d.TotalTrades, &d.WinningTrades, &d.LosingTrades, &updated); err != nil {
		return d, err
	}
	d.Date = fromUnixNano(date)
	d.UpdatedAt = fromUnixNano(updated)
	return d, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
