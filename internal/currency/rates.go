// Package currency converts amounts between journal currencies using USD as
// the pivot. Rates are quoted as units of a currency per one USD.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"trading-journal/internal/models"
)

// Base is the pivot currency every rate is quoted against.
const Base = models.USD

// Rates maps a currency code to units per one USD.
type Rates map[models.Currency]float64

// FallbackRates are served when no live rates are available.
func FallbackRates() Rates {
	return Rates{models.USD: 1, models.IDR: 15800}
}

// Normalize upper-cases and trims a currency code.
func Normalize(c models.Currency) models.Currency {
	return models.Currency(strings.ToUpper(strings.TrimSpace(string(c))))
}

// Rate returns the rate for c. Unknown or non-positive rates count as 1.
func (r Rates) Rate(c models.Currency) float64 {
	if v, ok := r[Normalize(c)]; ok && v > 0 {
		return v
	}
	return 1
}

// Clone returns a copy of r.
func (r Rates) Clone() Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Convert converts amount from one currency to another through USD.
func (r Rates) Convert(amount float64, from, to models.Currency) float64 {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return amount
	}
	return amount / r.Rate(from) * r.Rate(to)
}

// ConvertDecimal is Convert for ledger amounts.
func (r Rates) ConvertDecimal(amount decimal.Decimal, from, to models.Currency) decimal.Decimal {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return amount
	}
	return amount.
		Div(decimal.NewFromFloat(r.Rate(from))).
		Mul(decimal.NewFromFloat(r.Rate(to)))
}

// CrossRate returns how many units of to one unit of from buys.
func (r Rates) CrossRate(from, to models.Currency) float64 {
	return r.Rate(to) / r.Rate(from)
}
