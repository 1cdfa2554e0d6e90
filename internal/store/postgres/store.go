package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

// Store implements store.DataStore using PostgreSQL.
type Store struct {
	pool *Pool
}

// Compile-time interface check.
var _ store.DataStore = (*Store)(nil)

// NewStore creates a Store on an open pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to dsn, applies migrations and returns a ready Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const tradeColumns = `id, user_id, platform_id, journal_type, trade_type, direction, currency, symbol,
	entry, exit_price, size, leverage, fee, tp1, tp2, tp3, tp4, tp5, stop_loss,
	status, pnl, pnl_percentage, entry_date, exit_date, notes, tags, created_at, updated_at`

// InsertTrade adds a trade. Returns ErrDuplicateKey if the id exists.
func (s *Store) InsertTrade(ctx context.Context, t *models.Trade) error {
	query := `
		INSERT INTO trades (` + tradeColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27, $28
		)
	`
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.UserID, t.PlatformID, t.JournalType, t.TradeType, t.Direction, t.Currency, t.Symbol,
		t.Entry, t.ExitPrice, t.Size, t.Leverage, t.Fee, t.TP1, t.TP2, t.TP3, t.TP4, t.TP5, t.StopLoss,
		t.Status, t.PnL, t.PnLPercentage, t.EntryDate, t.ExitDate, t.Notes, tags, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// GetTrade retrieves one trade owned by userID.
func (s *Store) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1 AND user_id = $2`, tradeID, userID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return &t, nil
}

// ListTrades retrieves trades matching filter, newest entry first.
func (s *Store) ListTrades(ctx context.Context, f store.TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1`
	args := []any{f.UserID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.JournalType != "" {
		query += " AND journal_type = " + next(f.JournalType)
	}
	if f.TradeType != "" {
		query += " AND trade_type = " + next(f.TradeType)
	}
	if f.Status != "" {
		query += " AND status = " + next(f.Status)
	}
	if f.Symbol != "" {
		query += " AND symbol = " + next(f.Symbol)
	}
	if f.ClosedOnly {
		query += " AND status <> " + next(models.StatusRunning) + " AND pnl IS NOT NULL"
	}
	if !f.ExitFrom.IsZero() {
		query += " AND exit_date >= " + next(f.ExitFrom)
	}
	if !f.ExitTo.IsZero() {
		query += " AND exit_date <= " + next(f.ExitTo)
	}
	query += " ORDER BY entry_date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT " + next(f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

// CloseTrade writes the exit fields guarded by status = 'running'.
func (s *Store) CloseTrade(ctx context.Context, userID, tradeID string, c models.TradeClose) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trades
		SET exit_price = $1, exit_date = $2, pnl = $3, pnl_percentage = $4, status = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8 AND status = $9
	`, c.ExitPrice, c.ExitDate, c.PnL, c.PnLPercentage, c.Status, c.UpdatedAt, tradeID, userID, models.StatusRunning)
	if err != nil {
		return fmt.Errorf("close trade: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trades WHERE id = $1 AND user_id = $2)`, tradeID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check trade: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

// DeleteTrade removes a trade owned by userID.
func (s *Store) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	return s.deleteOwned(ctx, "trades", userID, tradeID)
}

// UpsertDailySummary inserts or replaces the summary row.
func (s *Store) UpsertDailySummary(ctx context.Context, d *models.DailySummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO daily_summaries
			(user_id, date, journal_type, total_pnl, total_trades, winning_trades, losing_trades, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, date, journal_type) DO UPDATE SET
			total_pnl = EXCLUDED.total_pnl,
			total_trades = EXCLUDED.total_trades,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			updated_at = EXCLUDED.updated_at
	`, d.UserID, d.Date, d.JournalType, d.TotalPnL, d.TotalTrades, d.WinningTrades, d.LosingTrades, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	return nil
}

const summaryColumns = `user_id, date, journal_type, total_pnl, total_trades, winning_trades, losing_trades, updated_at`

// GetDailySummary retrieves the summary for one day.
func (s *Store) GetDailySummary(ctx context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error) {
	var d models.DailySummary
	err := s.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM daily_summaries
		WHERE user_id = $1 AND date = $2 AND journal_type = $3`, userID, date, journalType).
		Scan(&d.UserID, &d.Date, &d.JournalType, &d.TotalPnL, &d.TotalTrades, &d.WinningTrades, &d.LosingTrades, &d.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get daily summary: %w", err)
	}
	return &d, nil
}

// ListDailySummaries retrieves summaries, most recent first.
func (s *Store) ListDailySummaries(ctx context.Context, f store.SummaryFilter) ([]models.DailySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM daily_summaries WHERE user_id = $1`
	args := []any{f.UserID}
	if f.JournalType != "" {
		args = append(args, f.JournalType)
		query += fmt.Sprintf(" AND journal_type = $%d", len(args))
	}
	query += " ORDER BY date DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily summaries: %w", err)
	}
	defer rows.Close()

	var out []models.DailySummary
	for rows.Next() {
		var d models.DailySummary
		if err := rows.Scan(&d.UserID, &d.Date, &d.JournalType, &d.TotalPnL, &d.TotalTrades, &d.WinningTrades, &d.LosingTrades, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily summaries: %w", err)
	}
	return out, nil
}

// InsertPlatform adds a platform.
func (s *Store) InsertPlatform(ctx context.Context, p *models.Platform) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO platforms (id, user_id, name, type, currency, created_at) VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.UserID, p.Name, p.Type, p.Currency, p.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert platform: %w", err)
	}
	return nil
}

// GetPlatform retrieves one platform owned by userID.
func (s *Store) GetPlatform(ctx context.Context, userID, platformID string) (*models.Platform, error) {
	var p models.Platform
	err := s.pool.QueryRow(ctx, `SELECT id, user_id, name, type, currency, created_at FROM platforms
		WHERE id = $1 AND user_id = $2`, platformID, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.Currency, &p.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get platform: %w", err)
	}
	return &p, nil
}

// ListPlatforms retrieves a user's platforms, newest first.
func (s *Store) ListPlatforms(ctx context.Context, userID string) ([]models.Platform, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, name, type, currency, created_at FROM platforms
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer rows.Close()

	var out []models.Platform
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Type, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}
	return out, nil
}

// UpdatePlatform overwrites name, type and currency.
func (s *Store) UpdatePlatform(ctx context.Context, p *models.Platform) error {
	tag, err := s.pool.Exec(ctx, `UPDATE platforms SET name = $1, type = $2, currency = $3
		WHERE id = $4 AND user_id = $5`, p.Name, p.Type, p.Currency, p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("update platform: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePlatform removes a platform owned by userID.
func (s *Store) DeletePlatform(ctx context.Context, userID, platformID string) error {
	return s.deleteOwned(ctx, "platforms", userID, platformID)
}

const userColumns = `id, name, email, password_hash, COALESCE(username, ''), bio, avatar, default_currency, is_public, created_at, updated_at`

// InsertUser adds an account. Duplicate email or username yields ErrDuplicateKey.
func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, username, bio, avatar, default_currency, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Username, u.Bio, u.Avatar, u.DefaultCurrency, u.IsPublic, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves an account by id.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.getUserWhere(ctx, "id = $1", userID)
}

// GetUserByEmail retrieves an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, "email = $1", email)
}

// GetUserByUsername retrieves an account by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserWhere(ctx, "username = $1", username)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Username, &u.Bio, &u.Avatar,
		&u.DefaultCurrency, &u.IsPublic, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateUser overwrites the mutable profile fields.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $1, username = NULLIF($2, ''), bio = $3, avatar = $4,
			default_currency = $5, is_public = $6, updated_at = $7
		WHERE id = $8
	`, u.Name, u.Username, u.Bio, u.Avatar, u.DefaultCurrency, u.IsPublic, u.UpdatedAt, u.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InsertTransaction adds a balance transaction.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.BalanceTransaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balance_transactions
			(id, user_id, platform_id, to_platform_id, type, amount, currency, description, date, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::numeric, $7, $8, $9, $10)
	`, tx.ID, tx.UserID, tx.PlatformID, tx.ToPlatformID, tx.Type, tx.Amount.String(), tx.Currency, tx.Description, tx.Date, tx.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions retrieves a user's transactions, most recent first.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.BalanceTransaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, platform_id, COALESCE(to_platform_id, ''), type, amount::text, currency, description, date, created_at
		FROM balance_transactions WHERE user_id = $1 ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.BalanceTransaction
	for rows.Next() {
		var tx models.BalanceTransaction
		var amount string
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.PlatformID, &tx.ToPlatformID, &tx.Type, &amount,
			&tx.Currency, &tx.Description, &tx.Date, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteTransaction removes a transaction owned by userID.
func (s *Store) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return s.deleteOwned(ctx, "balance_transactions", userID, txID)
}

func (s *Store) deleteOwned(ctx context.Context, table, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanTrade(row pgx.Row) (models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.UserID, &t.PlatformID, &t.JournalType, &t.TradeType, &t.Direction, &t.Currency, &t.Symbol,
		&t.Entry, &t.ExitPrice, &t.Size, &t.Leverage, &t.Fee, &t.TP1, &t.TP2, &t.TP3, &t.TP4, &t.TP5, &t.StopLoss,
		&t.Status, &t.PnL, &t.PnLPercentage, &t.EntryDate, &t.ExitDate, &t.Notes, &t.Tags, &t.CreatedAt, &t.UpdatedAt)
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	return t, err
}
