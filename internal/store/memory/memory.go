// Package memory provides an in-process DataStore used by tests and the
// "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trading-journal/internal/models"
	"trading-journal/internal/store"
)

type summaryKey struct {
	userID      string
	date        int64
	journalType models.JournalType
}

// Store keeps every record in maps guarded by one RWMutex. Records are copied
// on the way in and out so callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	trades    map[string]models.Trade
	summaries map[summaryKey]models.DailySummary
	platforms map[string]models.Platform
	users     map[string]models.User
	txs       map[string]models.BalanceTransaction
}

var _ store.DataStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		trades:    make(map[string]models.Trade),
		summaries: make(map[summaryKey]models.DailySummary),
		platforms: make(map[string]models.Platform),
		users:     make(map[string]models.User),
		txs:       make(map[string]models.BalanceTransaction),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) InsertTrade(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trades[t.ID]; ok {
		return store.ErrDuplicateKey
	}
	s.trades[t.ID] = cloneTrade(*t)
	return nil
}

func (s *Store) GetTrade(_ context.Context, userID, tradeID string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[tradeID]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	out := cloneTrade(t)
	return &out, nil
}

func (s *Store) ListTrades(_ context.Context, f store.TradeFilter) ([]models.Trade, error) {
	s.mu.RLock()
	var out []models.Trade
	for _, t := range s.trades {
		if matchTrade(t, f) {
			out = append(out, cloneTrade(t))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchTrade(t models.Trade, f store.TradeFilter) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.JournalType != "" && t.JournalType != f.JournalType {
		return false
	}
	if f.TradeType != "" && t.TradeType != f.TradeType {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Symbol != "" && t.Symbol != f.Symbol {
		return false
	}
	if f.ClosedOnly && (!t.IsClosed() || t.PnL == nil) {
		return false
	}
	if !f.ExitFrom.IsZero() || !f.ExitTo.IsZero() {
		if t.ExitDate == nil {
			return false
		}
		if !f.ExitFrom.IsZero() && t.ExitDate.Before(f.ExitFrom) {
			return false
		}
		if !f.ExitTo.IsZero() && t.ExitDate.After(f.ExitTo) {
			return false
		}
	}
	return true
}

func (s *Store) CloseTrade(_ context.Context, userID, tradeID string, c models.TradeClose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[tradeID]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	if t.Status != models.StatusRunning {
		return store.ErrConflict
	}
	c.Apply(&t)
	s.trades[tradeID] = t
	return nil
}

func (s *Store) DeleteTrade(_ context.Context, userID, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[tradeID]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.trades, tradeID)
	return nil
}

func (s *Store) UpsertDailySummary(_ context.Context, d *models.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summaryKey{d.UserID, d.Date.UnixNano(), d.JournalType}] = *d
	return nil
}

func (s *Store) GetDailySummary(_ context.Context, userID string, date time.Time, journalType models.JournalType) (*models.DailySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.summaries[summaryKey{userID, date.UnixNano(), journalType}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) ListDailySummaries(_ context.Context, f store.SummaryFilter) ([]models.DailySummary, error) {
	s.mu.RLock()
	var out []models.DailySummary
	for k, d := range s.summaries {
		if k.userID != f.UserID {
			continue
		}
		if f.JournalType != "" && k.journalType != f.JournalType {
			continue
		}
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) InsertPlatform(_ context.Context, p *models.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.platforms[p.ID]; ok {
		return store.ErrDuplicateKey
	}
	s.platforms[p.ID] = *p
	return nil
}

func (s *Store) GetPlatform(_ context.Context, userID, platformID string) (*models.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[platformID]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPlatforms(_ context.Context, userID string) ([]models.Platform, error) {
	s.mu.RLock()
	var out []models.Platform
	for _, p := range s.platforms {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdatePlatform(_ context.Context, p *models.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.platforms[p.ID]
	if !ok || cur.UserID != p.UserID {
		return store.ErrNotFound
	}
	cur.Name, cur.Type, cur.Currency = p.Name, p.Type, p.Currency
	s.platforms[p.ID] = cur
	return nil
}

func (s *Store) DeletePlatform(_ context.Context, userID, platformID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[platformID]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.platforms, platformID)
	return nil
}

func (s *Store) InsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrDuplicateKey
	}
	for _, other := range s.users {
		if other.Email == u.Email || (u.Username != "" && other.Username == u.Username) {
			return store.ErrDuplicateKey
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, store.ErrNotFound
	}
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if u.Username != "" {
		for id, other := range s.users {
			if id != u.ID && other.Username == u.Username {
				return store.ErrDuplicateKey
			}
		}
	}
	cur.Name, cur.Username, cur.Bio, cur.Avatar = u.Name, u.Username, u.Bio, u.Avatar
	cur.DefaultCurrency, cur.IsPublic, cur.UpdatedAt = u.DefaultCurrency, u.IsPublic, u.UpdatedAt
	s.users[u.ID] = cur
	return nil
}

func (s *Store) InsertTransaction(_ context.Context, tx *models.BalanceTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; ok {
		return store.ErrDuplicateKey
	}
	s.txs[tx.ID] = *tx
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]models.BalanceTransaction, error) {
	s.mu.RLock()
	var out []models.BalanceTransaction
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txID]
	if !ok || tx.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.txs, txID)
	return nil
}

// cloneTrade deep-copies the pointer and slice fields.
func cloneTrade(t models.Trade) models.Trade {
	t.ExitPrice = cloneFloat(t.ExitPrice)
	t.Leverage = cloneFloat(t.Leverage)
	t.TP1, t.TP2, t.TP3, t.TP4, t.TP5 = cloneFloat(t.TP1), cloneFloat(t.TP2), cloneFloat(t.TP3), cloneFloat(t.TP4), cloneFloat(t.TP5)
	t.StopLoss = cloneFloat(t.StopLoss)
	t.PnL = cloneFloat(t.PnL)
	t.PnLPercentage = cloneFloat(t.PnLPercentage)
	if t.ExitDate != nil {
		at := *t.ExitDate
		t.ExitDate = &at
	}
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
