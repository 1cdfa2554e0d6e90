package journal

import "trading-journal/internal/models"

// Ladder is the take-profit tiers and stop loss recorded on a trade.
// Unset tiers are nil.
type Ladder struct {
	TakeProfits [5]*float64
	StopLoss    *float64
}

// LadderOf extracts the ladder stored on t.
func LadderOf(t *models.Trade) Ladder {
	return Ladder{TakeProfits: t.TakeProfits(), StopLoss: t.StopLoss}
}

// ClassifyExit labels an exit price.
//
// Any exit on the adverse side of entry is a stoploss whether or not a stop
// level was set. Otherwise the highest reached tier wins (tp5 first), and a
// favorable exit that reaches no tier is a plain profit. An exit equal to
// entry is not adverse.
func ClassifyExit(entry, exit float64, dir models.Direction, ladder Ladder) models.TradeStatus {
	if isAdverse(entry, exit, dir) {
		return models.StatusStopLoss
	}

	for i := len(ladder.TakeProfits) - 1; i >= 0; i-- {
		tp := ladder.TakeProfits[i]
		if tp == nil {
			continue
		}
		if reached(exit, *tp, dir) {
			return models.TakeProfitStatuses[i]
		}
	}

	return models.StatusProfit
}

func isAdverse(entry, exit float64, dir models.Direction) bool {
	if dir == models.DirectionShort {
		return exit > entry
	}
	return exit < entry
}

func reached(exit, tp float64, dir models.Direction) bool {
	if dir == models.DirectionShort {
		return exit <= tp
	}
	return exit >= tp
}
