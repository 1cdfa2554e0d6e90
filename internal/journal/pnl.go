// Package journal implements the trade lifecycle: PnL arithmetic, exit
// classification, open/close transitions and the per-day calendar aggregate.
package journal

import (
	"math"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// PnLResult is the realized outcome of a closed position.
type PnLResult struct {
	PnL           float64 `json:"pnl"`
	PnLPercentage float64 `json:"pnlPercentage"`
}

// CalculatePnL returns the realized PnL net of fee and the percentage move.
//
// The percentage is (exit-entry)/entry*100 for both directions, so a
// profitable short reports a negative percentage alongside a positive PnL.
func CalculatePnL(entry, exit, size float64, dir models.Direction, fee float64) (PnLResult, error) {
	if entry == 0 {
		return PnLResult{}, apperrors.NewArithmeticError("pnl percentage", "entry price must not be zero")
	}
	if size <= 0 || math.IsNaN(size) {
		return PnLResult{}, apperrors.NewValidationError("size", size, "must be greater than zero")
	}
	if fee < 0 || math.IsNaN(fee) {
		return PnLResult{}, apperrors.NewValidationError("fee", fee, "must not be negative")
	}

	var pnl float64
	switch dir {
	case models.DirectionLong:
		pnl = (exit-entry)*size - fee
	case models.DirectionShort:
		pnl = (entry-exit)*size - fee
	default:
		return PnLResult{}, apperrors.NewValidationError("direction", dir, "must be long or short")
	}

	pct := (exit - entry) / entry * 100
	if !isFinite(pnl) || !isFinite(pct) {
		return PnLResult{}, apperrors.NewArithmeticError("pnl", "result is not a finite number")
	}

	return PnLResult{
		PnL:           pnl,
		PnLPercentage: pct,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
