package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"trading-journal/internal/accounts"
	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/internal/portfolio"
)

// Accounts

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Accounts.Profile(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd accounts.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Accounts.UpdateProfile(r.Context(), UserID(r.Context()), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"message": "Profile updated successfully",
	})
}

// Trades

func journalTypeQuery(r *http.Request) (models.JournalType, error) {
	raw := r.URL.Query().Get("journalType")
	if raw == "" {
		return models.JournalCrypto, nil
	}
	jt := models.JournalType(raw)
	if !jt.Valid() {
		return "", apperrors.NewValidationError("journalType", raw, "must be crypto or stock")
	}
	return jt, nil
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if id := q.Get("id"); id != "" {
		trade, err := s.svc.Trades.Get(ctx, UserID(ctx), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"trade": trade})
		return
	}

	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	jt, err := journalTypeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trades, err := s.svc.Trades.List(ctx, UserID(ctx), journal.ListFilter{
		JournalType: jt,
		TradeType:   models.TradeType(q.Get("tradeType")),
		Status:      models.TradeStatus(q.Get("status")),
		Symbol:      q.Get("symbol"),
		Limit:       limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func (s *Server) handleOpenTrade(w http.ResponseWriter, r *http.Request) {
	var req journal.OpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	trade, err := s.svc.Trades.Open(r.Context(), UserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Trade created",
		"tradeId": trade.ID,
		"trade":   trade,
	})
}

type closeBody struct {
	TradeID   string     `json:"tradeId"`
	ExitPrice float64    `json:"exitPrice"`
	ExitDate  *time.Time `json:"exitDate,omitempty"`
}

func (s *Server) handleCloseTrade(w http.ResponseWriter, r *http.Request) {
	var body closeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.TradeID) == "" {
		writeError(w, r, apperrors.NewValidationError("tradeId", body.TradeID, "is required"))
		return
	}

	result, err := s.svc.Trades.Close(r.Context(), UserID(r.Context()), body.TradeID, journal.CloseRequest{
		ExitPrice: body.ExitPrice,
		ExitDate:  body.ExitDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Trade closed",
		"result":  result,
	})
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := requiredQuery(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Trades.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Trade deleted"})
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	jt, err := journalTypeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summaries, err := s.svc.Daily.List(r.Context(), UserID(r.Context()), jt, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []models.DailySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summaries": summaries})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	jt, err := journalTypeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.svc.Analytics.Report(r.Context(), UserID(r.Context()), jt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Platforms

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := s.svc.Platforms.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if platforms == nil {
		platforms = []models.Platform{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"platforms": platforms})
}

func (s *Server) handleCreatePlatform(w http.ResponseWriter, r *http.Request) {
	var in portfolio.PlatformInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	platform, err := s.svc.Platforms.Create(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"platform": platform})
}

type platformPatch struct {
	ID string `json:"id"`
	portfolio.PlatformUpdate
}

func (s *Server) handleUpdatePlatform(w http.ResponseWriter, r *http.Request) {
	var body platformPatch
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(body.ID) == "" {
		writeError(w, r, apperrors.NewValidationError("id", body.ID, "platform ID required"))
		return
	}
	platform, err := s.svc.Platforms.Update(r.Context(), UserID(r.Context()), body.ID, body.PlatformUpdate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"platform": platform})
}

func (s *Server) handleDeletePlatform(w http.ResponseWriter, r *http.Request) {
	id, err := requiredQuery(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Platforms.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Platform deleted"})
}

// Net worth

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Query().Get("type") == "transactions" {
		txs, err := s.svc.Ledger.List(ctx, UserID(ctx))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if txs == nil {
			txs = []portfolio.TransactionView{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
		return
	}

	nw, err := s.svc.Ledger.NetWorth(ctx, UserID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nw)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var in portfolio.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Ledger.Record(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": tx})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := requiredQuery(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Ledger.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// Currency

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	amount, from, to := q.Get("amount"), q.Get("from"), q.Get("to")

	if amount == "" || from == "" || to == "" {
		writeJSON(w, http.StatusOK, s.svc.Currency.Rates(ctx))
		return
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		writeError(w, r, apperrors.NewValidationError("amount", amount, "must be a number"))
		return
	}
	conv, err := s.svc.Currency.Convert(ctx, value, models.Currency(from), models.Currency(to))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type convertBody struct {
	Amounts        []currency.Amount `json:"amounts"`
	TargetCurrency models.Currency   `json:"targetCurrency"`
}

func (s *Server) handleConvertMany(w http.ResponseWriter, r *http.Request) {
	var body convertBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	batch, err := s.svc.Currency.ConvertMany(r.Context(), body.Amounts, body.TargetCurrency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
